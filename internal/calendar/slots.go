package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	firstSlotHour = 9
	slotCount     = 17
	SlotLength    = 30 * time.Minute
)

// Slot is one of the fixed half-hour start times from 9:00 AM to 5:00 PM.
// Slots are numbered from 1; the zero value means no time selected.
type Slot int

func Slots() []Slot {
	out := make([]Slot, slotCount)
	for i := range out {
		out[i] = Slot(i + 1)
	}
	return out
}

func (s Slot) Valid() bool {
	return s >= 1 && s <= slotCount
}

func (s Slot) offset() time.Duration {
	return time.Duration(firstSlotHour)*time.Hour + time.Duration(s-1)*SlotLength
}

// Clock returns the 24h hour and minute the slot starts at.
func (s Slot) Clock() (hour, minute int) {
	off := s.offset()
	return int(off / time.Hour), int(off % time.Hour / time.Minute)
}

func (s Slot) String() string {
	if !s.Valid() {
		return ""
	}
	h, m := s.Clock()
	return time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format("3:04 PM")
}

// StartOn returns the instant the slot begins on d in loc.
func (s Slot) StartOn(d Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	h, m := s.Clock()
	return time.Date(d.Year, d.Month, d.Day, h, m, 0, 0, loc)
}

func ParseSlot(label string) (Slot, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, s := range Slots() {
		if s.String() == label {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown time slot %q", label)
}

func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = 0
		return nil
	}
	parsed, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
