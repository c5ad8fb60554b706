package media

import (
	"errors"
	"math"
	"sync"
	"time"
)

var (
	ErrNoSource         = errors.New("no source loaded")
	ErrPlaybackBlocked  = errors.New("playback blocked by platform")
	ErrFullscreenDenied = errors.New("fullscreen request denied")
)

// Element is the native media element the player wraps. Implementations must
// not call back into the Player synchronously.
type Element interface {
	Load(src Source)
	Play() error
	Pause()
	// Paused is also true once playback reached the end.
	Paused() bool
	Ended() bool
	Seek(seconds float64)
	SetMuted(muted bool)
	CurrentTime() float64
	// Duration is NaN or zero while unknown.
	Duration() float64
}

// Screen hosts the player container and owns the fullscreen state. Subscribers
// hear every change, including exits the player did not ask for.
type Screen interface {
	RequestFullscreen() error
	ExitFullscreen() error
	Subscribe(fn func(active bool)) (unsubscribe func())
}

// VirtualElement is an in-process Element whose playhead advances with the clock.
type VirtualElement struct {
	mu sync.Mutex

	now       func() time.Time
	loaded    bool
	playing   bool
	startedAt time.Time
	position  float64
	duration  float64
	muted     bool

	// BlockPlay makes Play fail, like an autoplay policy would.
	BlockPlay bool
}

func NewVirtualElement(now func() time.Time) *VirtualElement {
	if now == nil {
		now = time.Now
	}
	return &VirtualElement{now: now, duration: math.NaN()}
}

func (e *VirtualElement) Load(src Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = true
	e.playing = false
	e.position = 0
	e.duration = src.Duration
	if e.duration <= 0 {
		e.duration = math.NaN()
	}
}

func (e *VirtualElement) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNoSource
	}
	if e.BlockPlay {
		return ErrPlaybackBlocked
	}
	e.settleLocked()
	if e.endedLocked() {
		e.position = 0
	}
	if !e.playing {
		e.playing = true
		e.startedAt = e.now()
	}
	return nil
}

func (e *VirtualElement) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = e.currentLocked()
	e.playing = false
}

func (e *VirtualElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.playing || e.endedLocked()
}

func (e *VirtualElement) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endedLocked()
}

func (e *VirtualElement) endedLocked() bool {
	return validDuration(e.duration) && e.currentLocked() >= e.duration
}

func (e *VirtualElement) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked()
	if seconds < 0 {
		seconds = 0
	}
	if validDuration(e.duration) && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds
	if e.playing {
		e.startedAt = e.now()
	}
}

// settleLocked stops the clock once the playhead reached the end, so an ended
// element is paused like a native one.
func (e *VirtualElement) settleLocked() {
	if e.playing && e.endedLocked() {
		e.position = e.duration
		e.playing = false
	}
}

func (e *VirtualElement) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

func (e *VirtualElement) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *VirtualElement) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

func (e *VirtualElement) currentLocked() float64 {
	pos := e.position
	if e.playing {
		pos += e.now().Sub(e.startedAt).Seconds()
	}
	if validDuration(e.duration) && pos > e.duration {
		pos = e.duration
	}
	return pos
}

func (e *VirtualElement) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// VirtualScreen is an in-process Screen. Report simulates changes made outside
// the player, such as the user pressing Escape.
type VirtualScreen struct {
	mu     sync.Mutex
	active bool
	subs   map[int]func(bool)
	nextID int

	// Deny makes fullscreen requests fail.
	Deny bool
}

func NewVirtualScreen() *VirtualScreen {
	return &VirtualScreen{subs: make(map[int]func(bool))}
}

func (s *VirtualScreen) RequestFullscreen() error {
	s.mu.Lock()
	if s.Deny {
		s.mu.Unlock()
		return ErrFullscreenDenied
	}
	s.mu.Unlock()
	s.Report(true)
	return nil
}

func (s *VirtualScreen) ExitFullscreen() error {
	s.Report(false)
	return nil
}

func (s *VirtualScreen) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Report records a fullscreen change and notifies subscribers outside the lock.
func (s *VirtualScreen) Report(active bool) {
	s.mu.Lock()
	changed := s.active != active
	s.active = active
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(active)
	}
}

func (s *VirtualScreen) Subscribe(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
