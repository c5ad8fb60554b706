// Package wizard implements the two-step "book a demo" flow: contact details,
// then a date and time from the booking calendar, then a confirmation.
package wizard

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"landing-service/internal/calendar"
)

const DefaultResetDelay = 200 * time.Millisecond

type Options struct {
	Now      func() time.Time
	Location *time.Location
	// ResetDelay defers clearing the form after Close so a closing transition
	// does not show the content being wiped.
	ResetDelay time.Duration
	// OnOpenChange is called outside the wizard lock whenever visibility changes.
	OnOpenChange func(open bool)
	Logger       *zap.Logger
}

// Wizard is safe for concurrent use. Guarded operations return false and leave
// the state untouched when the transition is not allowed.
type Wizard struct {
	mu    sync.Mutex
	state State
	view  calendar.View

	now        func() time.Time
	loc        *time.Location
	resetDelay time.Duration
	onOpen     func(bool)
	log        *zap.Logger

	resetTimer *time.Timer
	resetGen   uint64
	disposed   bool
}

func New(opts Options) *Wizard {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = DefaultResetDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	w := &Wizard{
		now:        opts.Now,
		loc:        opts.Location,
		resetDelay: opts.ResetDelay,
		onOpen:     opts.OnOpenChange,
		log:        opts.Logger,
	}
	w.state = initialState()
	w.view = calendar.ViewOf(w.today())
	return w
}

func (w *Wizard) today() calendar.Date {
	return calendar.Today(w.now(), w.loc)
}

// SetOpen is the dialog's open-change entry point.
func (w *Wizard) SetOpen(open bool) {
	if open {
		w.Open()
		return
	}
	w.Close()
}

// Open shows the wizard. A reset still pending from a previous Close runs
// immediately so a fresh open never shows the previous session.
func (w *Wizard) Open() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
		w.resetLocked()
	}
	w.state.Open = true
	w.mu.Unlock()

	w.notify(true)
}

// Close signals closed right away and clears the form after the reset delay.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.state.Open = false
	if w.resetTimer != nil {
		w.resetTimer.Stop()
	}
	w.resetGen++
	gen := w.resetGen
	w.resetTimer = time.AfterFunc(w.resetDelay, func() { w.deferredReset(gen) })
	w.mu.Unlock()

	w.notify(false)
}

func (w *Wizard) deferredReset(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed || gen != w.resetGen || w.resetTimer == nil {
		return
	}
	w.resetTimer = nil
	w.resetLocked()
	w.log.Debug("wizard reset after close")
}

func (w *Wizard) resetLocked() {
	open := w.state.Open
	w.state = initialState()
	w.state.Open = open
	w.view = calendar.ViewOf(w.today())
}

func (w *Wizard) notify(open bool) {
	if w.onOpen != nil {
		w.onOpen(open)
	}
}

// Dispose stops a pending reset. Open and Close are ignored afterwards.
func (w *Wizard) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resetTimer != nil {
		w.resetTimer.Stop()
		w.resetTimer = nil
	}
	w.disposed = true
}

func (w *Wizard) UpdateField(f Field, value string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Contact.set(f, value)
}

// Advance moves to the scheduling step once every required contact field is filled.
func (w *Wizard) Advance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.CanAdvance() {
		return false
	}
	w.state.Step = StepSchedule
	return true
}

// Retreat returns to the details step, keeping the date and time picked so far.
func (w *Wizard) Retreat() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepSchedule {
		return false
	}
	w.state.Step = StepDetails
	return true
}

// SelectDate picks a bookable day and always drops the previously chosen time.
func (w *Wizard) SelectDate(d calendar.Date) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepSchedule || w.state.Submitted || !calendar.Selectable(d, w.today()) {
		return false
	}
	w.state.Booking.Date = d
	w.state.Booking.Time = 0
	return true
}

func (w *Wizard) SelectTime(s calendar.Slot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepSchedule || w.state.Submitted || w.state.Booking.Date.IsZero() || !s.Valid() {
		return false
	}
	w.state.Booking.Time = s
	return true
}

func (w *Wizard) Submit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.CanSubmit() {
		return false
	}
	w.state.Submitted = true
	return true
}

func (w *Wizard) NextMonth() calendar.MonthGrid {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = w.view.Next()
	return w.gridLocked()
}

func (w *Wizard) PreviousMonth() calendar.MonthGrid {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = w.view.Previous()
	return w.gridLocked()
}

func (w *Wizard) Calendar() calendar.MonthGrid {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gridLocked()
}

func (w *Wizard) gridLocked() calendar.MonthGrid {
	return w.view.Grid(w.today(), w.state.Booking.Date)
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Summary is the confirmation line, e.g. "Monday, October 19, 2026 at 10:00 AM".
func (w *Wizard) Summary() string {
	s := w.State()
	if !s.Booking.Complete() {
		return "Your demo is confirmed."
	}
	return fmt.Sprintf("%s at %s", calendar.FormatLong(s.Booking.Date), s.Booking.Time)
}

// Lead is what a submitted wizard hands to the booking backend.
type Lead struct {
	Contact Contact
	Date    calendar.Date
	Time    calendar.Slot
	StartAt time.Time
	EndAt   time.Time
}

// Lead returns the submitted contact and slot, or false before submission.
func (w *Wizard) Lead() (Lead, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Submitted {
		return Lead{}, false
	}
	b := w.state.Booking
	start := b.Time.StartOn(b.Date, w.loc)
	return Lead{
		Contact: w.state.Contact,
		Date:    b.Date,
		Time:    b.Time,
		StartAt: start,
		EndAt:   start.Add(calendar.SlotLength),
	}, true
}
