// Package app is the HTTP surface of the landing service: demo booking
// sessions, media players, calendar data and the admin lead views.
package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"landing-service/internal/media"
	"landing-service/internal/store"
	"landing-service/internal/wizard"
)

type Options struct {
	Store    store.Store
	Resolver media.SourceResolver
	// Calendar is nil when Google Calendar sync is not configured.
	Calendar *GoogleCalendar

	Location       *time.Location
	Now            func() time.Time
	ResetDelay     time.Duration
	HideDelay      time.Duration
	SessionTTL     time.Duration
	DefaultMediaID string
	Logger         *zap.Logger
}

type App struct {
	store    store.Store
	resolver media.SourceResolver
	calendar *GoogleCalendar

	loc            *time.Location
	now            func() time.Time
	resetDelay     time.Duration
	hideDelay      time.Duration
	defaultMediaID string
	log            *zap.Logger

	demos   *Registry[*demoSession]
	players *Registry[*playerSession]

	// background calendar syncs
	bg sync.WaitGroup
}

// demoSession pairs a wizard with the lead it produced, if any.
type demoSession struct {
	mu     sync.Mutex
	w      *wizard.Wizard
	leadID string
}

type playerSession struct {
	player *media.Player
	screen *media.VirtualScreen
}

func New(opts Options) *App {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	a := &App{
		store:          opts.Store,
		resolver:       opts.Resolver,
		calendar:       opts.Calendar,
		loc:            opts.Location,
		now:            opts.Now,
		resetDelay:     opts.ResetDelay,
		hideDelay:      opts.HideDelay,
		defaultMediaID: opts.DefaultMediaID,
		log:            opts.Logger,
	}
	a.demos = NewRegistry("wizard", opts.SessionTTL, func(s *demoSession) { s.w.Dispose() })
	a.players = NewRegistry("player", opts.SessionTTL, func(s *playerSession) { s.player.Close() })
	return a
}

// StartJanitors begins evicting idle sessions.
func (a *App) StartJanitors(interval time.Duration) {
	a.demos.StartJanitor(interval)
	a.players.StartJanitor(interval)
}

// Close disposes of every session and waits for pending calendar syncs.
func (a *App) Close() {
	a.demos.Close()
	a.players.Close()
	a.bg.Wait()
}

// Register mounts every route on r. admin guards the admin group.
func (a *App) Register(r gin.IRouter, admin gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// OAuth2 callback (must be outside the admin group)
	r.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := r.Group("/api")
	{
		api.GET("/content", a.ContentHandler)
		api.GET("/calendar", a.CalendarHandler)
		api.GET("/slots", a.SlotsHandler)

		demos := api.Group("/demo-sessions")
		{
			demos.POST("", a.CreateDemoSessionHandler)
			demos.GET("/:id", a.GetDemoSessionHandler)
			demos.DELETE("/:id", a.DeleteDemoSessionHandler)
			demos.PUT("/:id/fields/:field", a.UpdateFieldHandler)
			demos.PUT("/:id/date", a.SelectDateHandler)
			demos.PUT("/:id/time", a.SelectTimeHandler)
			demos.POST("/:id/advance", a.wizardOp("advance", (*wizard.Wizard).Advance))
			demos.POST("/:id/retreat", a.wizardOp("retreat", (*wizard.Wizard).Retreat))
			demos.POST("/:id/submit", a.SubmitHandler)
			demos.POST("/:id/open", a.OpenHandler)
			demos.POST("/:id/close", a.CloseHandler)
			demos.GET("/:id/calendar", a.DemoCalendarHandler)
			demos.POST("/:id/calendar/next", a.monthOp((*wizard.Wizard).NextMonth))
			demos.POST("/:id/calendar/previous", a.monthOp((*wizard.Wizard).PreviousMonth))
		}

		api.GET("/media/:id/source", a.MediaSourceHandler)

		players := api.Group("/players")
		{
			players.POST("", a.CreatePlayerHandler)
			players.GET("/:id", a.GetPlayerHandler)
			players.DELETE("/:id", a.DeletePlayerHandler)
			players.POST("/:id/load", a.LoadPlayerHandler)
			players.POST("/:id/toggle-playback", a.playerOp(func(p *media.Player) { p.TogglePlayback() }))
			players.POST("/:id/toggle-mute", a.playerOp(func(p *media.Player) { p.ToggleMute() }))
			players.POST("/:id/toggle-fullscreen", a.playerOp((*media.Player).ToggleFullscreen))
			players.POST("/:id/interact", a.playerOp((*media.Player).Interact))
			players.POST("/:id/hover", a.HoverHandler)
			players.PUT("/:id/seek", a.SeekHandler)
			players.PUT("/:id/fullscreen", a.FullscreenHandler)
		}

		adm := api.Group("/admin", admin)
		{
			adm.GET("/leads", a.ListLeadsHandler)
			adm.GET("/leads/:id", a.GetLeadHandler)
			adm.DELETE("/leads/:id", a.CancelLeadHandler)
			adm.GET("/calendar/auth", a.GoogleAuthHandler)
			adm.GET("/calendar/events", a.GoogleCalendarEventsHandler)
		}
	}
}
