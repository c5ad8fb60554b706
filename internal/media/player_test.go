package media

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type result struct {
	src Source
	err error
}

// gateResolver blocks each Resolve until the test releases a result for that id.
type gateResolver struct {
	mu    sync.Mutex
	gates map[string]chan result
}

func newGateResolver() *gateResolver {
	return &gateResolver{gates: make(map[string]chan result)}
}

func (r *gateResolver) gate(id string) chan result {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[id]
	if !ok {
		g = make(chan result, 1)
		r.gates[id] = g
	}
	return g
}

func (r *gateResolver) release(id string, src Source, err error) {
	r.gate(id) <- result{src: src, err: err}
}

func (r *gateResolver) Resolve(ctx context.Context, id string) (Source, error) {
	select {
	case res := <-r.gate(id):
		return res.src, res.err
	case <-ctx.Done():
		return Source{}, ctx.Err()
	}
}

type staticResolver struct {
	src Source
	err error
}

func (r staticResolver) Resolve(_ context.Context, id string) (Source, error) {
	if r.err != nil {
		return Source{}, r.err
	}
	src := r.src
	src.MediaID = id
	return src, nil
}

type fixture struct {
	player *Player
	el     *VirtualElement
	screen *VirtualScreen
	clock  *fakeClock
}

func newFixture(t *testing.T, resolver SourceResolver) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	el := NewVirtualElement(clock.Now)
	screen := NewVirtualScreen()
	p := NewPlayer(PlayerOptions{
		Resolver:  resolver,
		Element:   el,
		Screen:    screen,
		HideDelay: 30 * time.Millisecond,
	})
	t.Cleanup(p.Close)
	return &fixture{player: p, el: el, screen: screen, clock: clock}
}

func loaded(t *testing.T, duration float64) *fixture {
	t.Helper()
	f := newFixture(t, staticResolver{src: Source{URL: "https://cdn/v.mp4", Duration: duration}})
	<-f.player.Load("vid")
	require.Equal(t, PhaseReady, f.player.Snapshot().Phase)
	return f
}

func TestPlayer_LoadSuccess(t *testing.T) {
	f := newFixture(t, staticResolver{src: Source{URL: "https://cdn/v.mp4", Duration: 120}})
	assert.Equal(t, PhaseIdle, f.player.Snapshot().Phase)

	<-f.player.Load("vid")
	s := f.player.Snapshot()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, "https://cdn/v.mp4", s.URL)
	assert.Equal(t, float64(120), s.Duration)
	assert.False(t, s.ControlsVisible, "controls stay hidden until first play")
	assert.True(t, s.ShowPlayButton)
	assert.Equal(t, "0:00 / 2:00", s.TimeLabel)
}

func TestPlayer_LoadFailureExposesNoURL(t *testing.T) {
	for _, err := range []error{ErrNoPlayableAsset, ErrManifestStatus} {
		f := newFixture(t, staticResolver{err: err})
		<-f.player.Load("vid")

		s := f.player.Snapshot()
		assert.Equal(t, PhaseError, s.Phase)
		assert.Empty(t, s.URL)
		assert.NotEmpty(t, s.Error)
		assert.False(t, f.player.TogglePlayback(), "no retry from the error state")
	}
}

func TestPlayer_NewerLoadWinsOverStaleResponse(t *testing.T) {
	r := newGateResolver()
	f := newFixture(t, r)

	first := f.player.Load("old")
	second := f.player.Load("new")

	r.release("new", Source{MediaID: "new", URL: "https://cdn/new.mp4"}, nil)
	<-second
	<-first // cancelled by the second load and discarded

	s := f.player.Snapshot()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, "new", s.MediaID)
	assert.Equal(t, "https://cdn/new.mp4", s.URL)
}

func TestPlayer_StaleSuccessAfterNewerDoesNotOverwrite(t *testing.T) {
	// The stale resolver ignores cancellation, like a response already in flight.
	stale := make(chan struct{})
	r := resolverFunc(func(ctx context.Context, id string) (Source, error) {
		if id == "old" {
			<-stale
			return Source{MediaID: "old", URL: "https://cdn/old.mp4"}, nil
		}
		return Source{MediaID: id, URL: "https://cdn/new.mp4"}, nil
	})
	f := newFixture(t, r)

	first := f.player.Load("old")
	<-f.player.Load("new")
	close(stale)
	<-first

	s := f.player.Snapshot()
	assert.Equal(t, "new", s.MediaID)
	assert.Equal(t, "https://cdn/new.mp4", s.URL)
}

type resolverFunc func(ctx context.Context, id string) (Source, error)

func (f resolverFunc) Resolve(ctx context.Context, id string) (Source, error) { return f(ctx, id) }

func TestPlayer_CloseCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	r := newGateResolver()
	p := NewPlayer(PlayerOptions{Resolver: r})
	done := p.Load("vid")
	p.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resolution not cancelled on close")
	}
	assert.Equal(t, PhaseLoading, p.Snapshot().Phase, "nothing committed after close")
}

func TestPlayer_TogglePlayback(t *testing.T) {
	f := loaded(t, 60)

	require.True(t, f.player.TogglePlayback())
	s := f.player.Snapshot()
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.True(t, s.ControlsVisible)
	assert.False(t, s.ShowPlayButton)

	f.clock.Advance(10 * time.Second)
	require.True(t, f.player.TogglePlayback())
	s = f.player.Snapshot()
	assert.Equal(t, PhasePaused, s.Phase)
	assert.InDelta(t, 10, s.CurrentTime, 0.001)
	assert.Equal(t, "0:10 / 1:00", s.TimeLabel)
	assert.True(t, s.ControlsVisible, "controls forced visible while paused")
}

func TestPlayer_NoSourceIsNoOp(t *testing.T) {
	f := newFixture(t, newGateResolver())
	assert.False(t, f.player.TogglePlayback())
	assert.False(t, f.player.Seek(50))
	assert.Equal(t, PhaseIdle, f.player.Snapshot().Phase)
}

func TestPlayer_PlayRejectedEntersError(t *testing.T) {
	f := loaded(t, 60)
	f.el.BlockPlay = true

	assert.True(t, f.player.TogglePlayback())
	s := f.player.Snapshot()
	assert.Equal(t, PhaseError, s.Phase)
	assert.Contains(t, s.Error, "playback could not start")
	assert.Empty(t, s.URL)
}

func TestPlayer_Ended(t *testing.T) {
	f := loaded(t, 5)
	require.True(t, f.player.TogglePlayback())

	f.clock.Advance(6 * time.Second)
	f.player.Sync()
	s := f.player.Snapshot()
	assert.Equal(t, PhaseEnded, s.Phase)
	assert.Equal(t, float64(5), s.CurrentTime)
	assert.True(t, s.ControlsVisible)

	require.True(t, f.player.TogglePlayback(), "play after end restarts")
	s = f.player.Snapshot()
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, float64(0), s.CurrentTime)
}

func TestPlayer_SeekAfterEndStaysPaused(t *testing.T) {
	f := loaded(t, 10)
	require.True(t, f.player.TogglePlayback())
	f.clock.Advance(12 * time.Second)

	require.True(t, f.player.Seek(50))
	s := f.player.Snapshot()
	assert.Equal(t, PhasePaused, s.Phase)
	assert.Equal(t, float64(5), s.CurrentTime)
	assert.True(t, f.el.Paused(), "element must not keep running behind a paused player")

	f.clock.Advance(2 * time.Second)
	f.player.Sync()
	assert.Equal(t, float64(5), f.player.Snapshot().CurrentTime)

	require.True(t, f.player.TogglePlayback())
	assert.Equal(t, PhasePlaying, f.player.Snapshot().Phase)
	f.clock.Advance(time.Second)
	f.player.Sync()
	assert.Equal(t, float64(6), f.player.Snapshot().CurrentTime)
}

func TestPlayer_Seek(t *testing.T) {
	f := loaded(t, 200)

	require.True(t, f.player.Seek(25))
	s := f.player.Snapshot()
	assert.Equal(t, float64(50), s.CurrentTime)
	assert.InDelta(t, 25, s.Progress, 0.0001)

	require.True(t, f.player.Seek(150), "clamped to the end")
	assert.Equal(t, float64(200), f.player.Snapshot().CurrentTime)

	assert.False(t, f.player.Seek(math.NaN()))
}

func TestPlayer_SeekWithoutDurationIsNoOp(t *testing.T) {
	f := loaded(t, 0)

	assert.False(t, f.player.Seek(50))
	s := f.player.Snapshot()
	assert.Equal(t, float64(0), s.CurrentTime)
	assert.Equal(t, float64(0), s.Duration)
}

func TestPlayer_ToggleMuteIndependentOfPhase(t *testing.T) {
	f := newFixture(t, staticResolver{src: Source{URL: "u", Duration: 10}})
	assert.True(t, f.player.ToggleMute())
	assert.True(t, f.el.Muted())

	<-f.player.Load("vid")
	assert.True(t, f.el.Muted(), "mute carried onto the loaded source")
	assert.True(t, f.player.Snapshot().Muted)

	assert.False(t, f.player.ToggleMute())
	assert.False(t, f.el.Muted())
}

func TestPlayer_Fullscreen(t *testing.T) {
	f := loaded(t, 10)

	f.player.ToggleFullscreen()
	assert.True(t, f.player.Snapshot().Fullscreen)
	assert.True(t, f.screen.Active())

	// Escape pressed outside the player.
	f.screen.Report(false)
	assert.False(t, f.player.Snapshot().Fullscreen)

	f.player.ToggleFullscreen()
	assert.True(t, f.player.Snapshot().Fullscreen)
	f.player.ToggleFullscreen()
	assert.False(t, f.player.Snapshot().Fullscreen)
}

func TestPlayer_FullscreenDeniedIsSwallowed(t *testing.T) {
	f := loaded(t, 10)
	f.screen.Deny = true

	f.player.ToggleFullscreen()
	s := f.player.Snapshot()
	assert.False(t, s.Fullscreen)
	assert.Equal(t, PhaseReady, s.Phase)
}

func TestPlayer_ControlsAutoHide(t *testing.T) {
	f := loaded(t, 600)
	require.True(t, f.player.TogglePlayback())
	assert.True(t, f.player.Snapshot().ControlsVisible)

	require.Eventually(t, func() bool {
		return !f.player.Snapshot().ControlsVisible
	}, time.Second, 5*time.Millisecond)

	f.player.Interact()
	assert.True(t, f.player.Snapshot().ControlsVisible)
	require.Eventually(t, func() bool {
		return !f.player.Snapshot().ControlsVisible
	}, time.Second, 5*time.Millisecond)
}

func TestPlayer_HoverKeepsControls(t *testing.T) {
	f := loaded(t, 600)
	require.True(t, f.player.TogglePlayback())
	f.player.HoverEnter()

	time.Sleep(80 * time.Millisecond)
	assert.True(t, f.player.Snapshot().ControlsVisible)

	f.player.HoverLeave()
	require.Eventually(t, func() bool {
		return !f.player.Snapshot().ControlsVisible
	}, time.Second, 5*time.Millisecond)
}

func TestPlayer_PauseCancelsPendingHide(t *testing.T) {
	f := loaded(t, 600)
	require.True(t, f.player.TogglePlayback())
	require.True(t, f.player.TogglePlayback())

	time.Sleep(80 * time.Millisecond)
	s := f.player.Snapshot()
	assert.Equal(t, PhasePaused, s.Phase)
	assert.True(t, s.ControlsVisible)
}

func TestPlayer_CloseStopsHideTimer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := &fakeClock{now: time.Now()}
	p := NewPlayer(PlayerOptions{
		Resolver:  staticResolver{src: Source{URL: "u", Duration: 100}},
		Element:   NewVirtualElement(clock.Now),
		HideDelay: 20 * time.Millisecond,
	})
	<-p.Load("vid")
	require.True(t, p.TogglePlayback())
	p.Close()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, p.Snapshot().ControlsVisible)
	assert.False(t, p.TogglePlayback())
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{9.9, "0:09"},
		{61, "1:01"},
		{3600, "60:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in))
	}
}
