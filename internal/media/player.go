package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultHideDelay = time.Second

var ErrPlaybackRejected = errors.New("playback could not start")

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseEnded   Phase = "ended"
	PhaseError   Phase = "error"
)

type PlayerOptions struct {
	Resolver SourceResolver
	Element  Element
	Screen   Screen
	// HideDelay is how long controls stay up while playing without interaction.
	HideDelay time.Duration
	Logger    *zap.Logger
	// OnError is called outside the player lock when a load or play attempt fails.
	OnError func(mediaID string, err error)
}

// Player drives an Element from user intents. Fullscreen and mute are
// independent of the playback phase.
type Player struct {
	mu sync.Mutex

	resolver  SourceResolver
	el        Element
	screen    Screen
	hideDelay time.Duration
	log       *zap.Logger
	onError   func(string, error)

	mediaID    string
	source     Source
	hasSource  bool
	phase      Phase
	err        error
	muted      bool
	fullscreen bool
	hovered    bool
	started    bool
	controls   bool
	position   float64
	duration   float64

	loadGen   uint64
	cancel    context.CancelFunc
	hideTimer *time.Timer
	hideGen   uint64
	closed    bool
	unsub     func()
}

func NewPlayer(opts PlayerOptions) *Player {
	if opts.HideDelay <= 0 {
		opts.HideDelay = DefaultHideDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Element == nil {
		opts.Element = NewVirtualElement(nil)
	}
	if opts.Screen == nil {
		opts.Screen = NewVirtualScreen()
	}
	p := &Player{
		resolver:  opts.Resolver,
		el:        opts.Element,
		screen:    opts.Screen,
		hideDelay: opts.HideDelay,
		log:       opts.Logger,
		onError:   opts.OnError,
		phase:     PhaseIdle,
	}
	p.unsub = p.screen.Subscribe(p.FullscreenChanged)
	return p
}

// Load starts resolving mediaID and supersedes any resolution still in
// flight. The returned channel closes once this attempt has been committed or
// discarded.
func (p *Player) Load(mediaID string) <-chan struct{} {
	done := make(chan struct{})

	p.mu.Lock()
	if p.closed || p.resolver == nil {
		p.mu.Unlock()
		close(done)
		return done
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.loadGen++
	gen := p.loadGen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.el.Pause()
	p.mediaID = mediaID
	p.source = Source{}
	p.hasSource = false
	p.err = nil
	p.phase = PhaseLoading
	p.position = 0
	p.duration = 0
	p.started = false
	p.updateControlsLocked(false)
	p.mu.Unlock()

	go func() {
		defer close(done)
		src, err := p.resolver.Resolve(ctx, mediaID)
		p.commit(gen, mediaID, src, err)
	}()
	return done
}

func (p *Player) commit(gen uint64, mediaID string, src Source, err error) {
	p.mu.Lock()
	if p.closed || gen != p.loadGen {
		p.mu.Unlock()
		p.log.Debug("discarding stale resolution", zap.String("media_id", mediaID))
		return
	}
	p.cancel()
	p.cancel = nil

	if err != nil {
		p.phase = PhaseError
		p.err = err
		p.updateControlsLocked(false)
		p.mu.Unlock()
		p.log.Warn("media resolution failed", zap.String("media_id", mediaID), zap.Error(err))
		p.reportError(mediaID, err)
		return
	}

	p.source = src
	p.hasSource = true
	p.el.Load(src)
	p.el.SetMuted(p.muted)
	p.duration = p.el.Duration()
	p.phase = PhaseReady
	p.mu.Unlock()
}

func (p *Player) reportError(mediaID string, err error) {
	if p.onError != nil {
		p.onError(mediaID, err)
	}
}

// TogglePlayback plays a paused, ready or ended source and pauses a playing
// one. It is a no-op without a source and after an error.
func (p *Player) TogglePlayback() bool {
	p.mu.Lock()
	if p.closed || !p.hasSource || p.phase == PhaseError {
		p.mu.Unlock()
		return false
	}
	p.syncLocked()

	if !p.el.Paused() {
		p.el.Pause()
		p.phase = PhasePaused
		p.syncLocked()
		p.updateControlsLocked(true)
		p.mu.Unlock()
		return true
	}

	p.started = true
	if err := p.el.Play(); err != nil {
		p.phase = PhaseError
		p.err = fmt.Errorf("%w: %w", ErrPlaybackRejected, err)
		p.updateControlsLocked(false)
		mediaID, playErr := p.mediaID, p.err
		p.mu.Unlock()
		p.log.Warn("playback rejected", zap.String("media_id", mediaID), zap.Error(err))
		p.reportError(mediaID, playErr)
		return true
	}
	p.phase = PhasePlaying
	p.syncLocked()
	p.updateControlsLocked(true)
	p.mu.Unlock()
	return true
}

func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.muted
	}
	p.muted = !p.muted
	p.el.SetMuted(p.muted)
	return p.muted
}

// Seek moves the playhead to percent (0-100) of the duration. Without a known
// duration it does nothing.
func (p *Player) Seek(percent float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.hasSource || p.phase == PhaseError || math.IsNaN(percent) {
		return false
	}
	d := p.el.Duration()
	if !validDuration(d) {
		return false
	}
	p.syncLocked()
	percent = math.Max(0, math.Min(100, percent))
	t := percent / 100 * d
	p.el.Seek(t)
	p.position = t
	if p.phase == PhaseEnded && t < d {
		p.phase = PhasePaused
	}
	p.updateControlsLocked(true)
	return true
}

// ToggleFullscreen asks the screen to enter or leave fullscreen. The player's
// own flag only moves when the screen reports the change; failures are ignored.
func (p *Player) ToggleFullscreen() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	active := p.fullscreen
	p.mu.Unlock()

	var err error
	if active {
		err = p.screen.ExitFullscreen()
	} else {
		err = p.screen.RequestFullscreen()
	}
	if err != nil {
		p.log.Debug("fullscreen request ignored", zap.Error(err))
	}
}

// FullscreenChanged is the screen's change notification.
func (p *Player) FullscreenChanged(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.fullscreen = active
}

func (p *Player) HoverEnter() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hovered = true
	p.updateControlsLocked(true)
}

func (p *Player) HoverLeave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hovered = false
	p.updateControlsLocked(false)
}

// Interact reports pointer or keyboard activity over the player.
func (p *Player) Interact() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateControlsLocked(true)
}

// Sync pulls the element's playhead, like a timeupdate event, and notices the end.
func (p *Player) Sync() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncLocked()
}

func (p *Player) syncLocked() {
	if !p.hasSource {
		return
	}
	p.position = p.el.CurrentTime()
	p.duration = p.el.Duration()
	if p.phase == PhasePlaying && p.el.Ended() {
		p.phase = PhaseEnded
		p.updateControlsLocked(false)
	}
}

func (p *Player) updateControlsLocked(interaction bool) {
	switch {
	case p.closed || !p.started || p.phase == PhaseError:
		p.stopHideLocked()
		p.controls = false
	case p.phase != PhasePlaying || p.hovered:
		p.stopHideLocked()
		p.controls = true
	default:
		if interaction {
			p.controls = true
		}
		p.scheduleHideLocked()
	}
}

func (p *Player) scheduleHideLocked() {
	p.stopHideLocked()
	gen := p.hideGen
	p.hideTimer = time.AfterFunc(p.hideDelay, func() { p.hideControls(gen) })
}

func (p *Player) stopHideLocked() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
	p.hideGen++
}

func (p *Player) hideControls(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.hideGen {
		return
	}
	p.hideTimer = nil
	if p.phase == PhasePlaying && !p.hovered {
		p.controls = false
	}
}

// Close cancels any resolution in flight, stops the controls timer and
// detaches from the screen.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.stopHideLocked()
	p.el.Pause()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

type Snapshot struct {
	MediaID         string  `json:"media_id,omitempty"`
	Phase           Phase   `json:"phase"`
	URL             string  `json:"url,omitempty"`
	CurrentTime     float64 `json:"current_time"`
	Duration        float64 `json:"duration"`
	Progress        float64 `json:"progress"`
	TimeLabel       string  `json:"time_label"`
	Muted           bool    `json:"muted"`
	Fullscreen      bool    `json:"fullscreen"`
	Hovered         bool    `json:"hovered"`
	ControlsVisible bool    `json:"controls_visible"`
	// ShowPlayButton is the large centre button shown whenever a source is
	// loaded and not playing.
	ShowPlayButton bool   `json:"show_play_button"`
	Error          string `json:"error,omitempty"`
}

// Snapshot syncs with the element and returns a copy of the player state.
// The URL is only exposed while the source is playable.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncLocked()

	s := Snapshot{
		MediaID:         p.mediaID,
		Phase:           p.phase,
		Muted:           p.muted,
		Fullscreen:      p.fullscreen,
		Hovered:         p.hovered,
		ControlsVisible: p.controls,
	}
	if p.hasSource && p.phase != PhaseError {
		s.URL = p.source.URL
		s.ShowPlayButton = p.phase != PhasePlaying
	}
	if validDuration(p.duration) {
		s.Duration = p.duration
		s.CurrentTime = p.position
		s.Progress = p.position / p.duration * 100
	}
	s.TimeLabel = FormatTime(s.CurrentTime) + " / " + FormatTime(s.Duration)
	if p.err != nil {
		s.Error = p.err.Error()
	}
	return s
}

// FormatTime renders seconds as m:ss; anything non-finite or non-positive is 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
