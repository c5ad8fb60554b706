package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"landing-service/internal/media"
	"landing-service/internal/metrics"
)

// recordingResolver counts every resolution in the metrics.
type recordingResolver struct {
	next media.SourceResolver
}

func (r recordingResolver) Resolve(ctx context.Context, mediaID string) (media.Source, error) {
	src, err := r.next.Resolve(ctx, mediaID)
	if !errors.Is(err, context.Canceled) {
		metrics.RecordResolution(err)
	}
	return src, err
}

// GET /api/media/:id/source
func (a *App) MediaSourceHandler(c *gin.Context) {
	src, err := recordingResolver{a.resolver}.Resolve(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, media.ErrEmptyMediaID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		a.log.Warn("media resolution failed", zap.String("media_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, src)
	}
}

func (a *App) playerView(id string, s *playerSession, applied *bool) playerResponse {
	return playerResponse{ID: id, Applied: applied, Snapshot: s.player.Snapshot()}
}

func (a *App) lookupPlayer(c *gin.Context) (string, *playerSession, bool) {
	id := c.Param("id")
	s, ok := a.players.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return "", nil, false
	}
	return id, s, true
}

// load starts resolving mediaID and, when wait is set, blocks until it settles
// or the request goes away.
func (a *App) load(c *gin.Context, s *playerSession, mediaID string, wait bool) {
	done := s.player.Load(mediaID)
	if !wait {
		return
	}
	select {
	case <-done:
	case <-c.Request.Context().Done():
	}
}

// POST /api/players
func (a *App) CreatePlayerHandler(c *gin.Context) {
	var req createPlayerReq
	if c.Request.ContentLength != 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	mediaID := strings.TrimSpace(req.MediaID)
	if mediaID == "" {
		mediaID = a.defaultMediaID
	}
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}

	screen := media.NewVirtualScreen()
	s := &playerSession{screen: screen}
	s.player = media.NewPlayer(media.PlayerOptions{
		Resolver:  recordingResolver{a.resolver},
		Element:   media.NewVirtualElement(a.now),
		Screen:    screen,
		HideDelay: a.hideDelay,
		Logger:    a.log,
		OnError:   func(string, error) { metrics.PlayerErrorsTotal.Inc() },
	})
	id := a.players.Add(s)
	a.load(c, s, mediaID, req.Wait)
	c.JSON(http.StatusCreated, a.playerView(id, s, nil))
}

// GET /api/players/:id
func (a *App) GetPlayerHandler(c *gin.Context) {
	id, s, ok := a.lookupPlayer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.playerView(id, s, nil))
}

// DELETE /api/players/:id
func (a *App) DeletePlayerHandler(c *gin.Context) {
	if !a.players.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/players/:id/load
// Supersedes any resolution still in flight for this player.
func (a *App) LoadPlayerHandler(c *gin.Context) {
	id, s, ok := a.lookupPlayer(c)
	if !ok {
		return
	}
	var req createPlayerReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.MediaID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media_id required"})
		return
	}
	a.load(c, s, strings.TrimSpace(req.MediaID), req.Wait)
	c.JSON(http.StatusOK, a.playerView(id, s, nil))
}

func (a *App) playerOp(fn func(*media.Player)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, s, ok := a.lookupPlayer(c)
		if !ok {
			return
		}
		fn(s.player)
		c.JSON(http.StatusOK, a.playerView(id, s, nil))
	}
}

// PUT /api/players/:id/seek
func (a *App) SeekHandler(c *gin.Context) {
	id, s, ok := a.lookupPlayer(c)
	if !ok {
		return
	}
	var req seekReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	applied := s.player.Seek(*req.Percent)
	c.JSON(http.StatusOK, a.playerView(id, s, &applied))
}

// PUT /api/players/:id/fullscreen
// Reports a fullscreen change made outside the player, such as Escape.
func (a *App) FullscreenHandler(c *gin.Context) {
	id, s, ok := a.lookupPlayer(c)
	if !ok {
		return
	}
	var req fullscreenReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.screen.Report(req.Active)
	c.JSON(http.StatusOK, a.playerView(id, s, nil))
}

// POST /api/players/:id/hover
func (a *App) HoverHandler(c *gin.Context) {
	id, s, ok := a.lookupPlayer(c)
	if !ok {
		return
	}
	var req hoverReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Inside {
		s.player.HoverEnter()
	} else {
		s.player.HoverLeave()
	}
	c.JSON(http.StatusOK, a.playerView(id, s, nil))
}
