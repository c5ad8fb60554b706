package wizard

import (
	"fmt"
	"strings"

	"landing-service/internal/calendar"
)

type Step int

const (
	StepDetails  Step = 1
	StepSchedule Step = 2
)

// Field names a contact input. The set is closed; use ParseField for untrusted input.
type Field string

const (
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldCompany   Field = "company"
	FieldPhone     Field = "phone"
)

var fields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldCompany, FieldPhone}

func ParseField(s string) (Field, error) {
	for _, f := range fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

type Contact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Phone     string `json:"phone,omitempty"`
}

// Complete reports whether every required field is non-blank. Email and
// phone formats are not checked; phone is optional.
func (c Contact) Complete() bool {
	for _, v := range []string{c.FirstName, c.LastName, c.Email, c.Company} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (c *Contact) set(f Field, v string) bool {
	switch f {
	case FieldFirstName:
		c.FirstName = v
	case FieldLastName:
		c.LastName = v
	case FieldEmail:
		c.Email = v
	case FieldCompany:
		c.Company = v
	case FieldPhone:
		c.Phone = v
	default:
		return false
	}
	return true
}

// Booking is the selected date and time. A time is only kept relative to its
// date: changing the date always clears it.
type Booking struct {
	Date calendar.Date `json:"date"`
	Time calendar.Slot `json:"time"`
}

func (b Booking) Complete() bool {
	return !b.Date.IsZero() && b.Time.Valid()
}

type State struct {
	Open      bool    `json:"open"`
	Step      Step    `json:"step"`
	Submitted bool    `json:"submitted"`
	Contact   Contact `json:"contact"`
	Booking   Booking `json:"booking"`
}

func initialState() State {
	return State{Step: StepDetails}
}

// CanAdvance and CanSubmit mirror the enabled state of the Continue and Confirm buttons.
func (s State) CanAdvance() bool {
	return s.Step == StepDetails && s.Contact.Complete()
}

// CanSubmit only looks at the booking. Dates and times can only be picked on
// the scheduling step, so a complete booking implies the contact step passed.
func (s State) CanSubmit() bool {
	return !s.Submitted && s.Booking.Complete()
}
