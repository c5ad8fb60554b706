package app

import (
	"time"

	"landing-service/internal/calendar"
	"landing-service/internal/media"
	"landing-service/internal/wizard"
)

// demoResponse is the wizard state as the frontend renders it.
type demoResponse struct {
	ID string `json:"id"`
	// Applied is set on operation responses; false means the guard refused it.
	Applied    *bool              `json:"applied,omitempty"`
	State      wizard.State       `json:"state"`
	CanAdvance bool               `json:"can_advance"`
	CanSubmit  bool               `json:"can_submit"`
	Summary    string             `json:"summary,omitempty"`
	LeadID     string             `json:"lead_id,omitempty"`
	Calendar   calendar.MonthGrid `json:"calendar"`
}

type playerResponse struct {
	ID      string `json:"id"`
	Applied *bool  `json:"applied,omitempty"`
	media.Snapshot
}

type fieldReq struct {
	Value string `json:"value"`
}

type dateReq struct {
	Date string `json:"date" binding:"required"`
}

type timeReq struct {
	Time string `json:"time" binding:"required"`
}

type createPlayerReq struct {
	MediaID string `json:"media_id"`
	// Wait blocks the response until the source has been resolved.
	Wait bool `json:"wait"`
}

type seekReq struct {
	Percent *float64 `json:"percent" binding:"required"`
}

type fullscreenReq struct {
	Active bool `json:"active"`
}

type hoverReq struct {
	Inside bool `json:"inside"`
}

// SlotView is one bookable start time for a day.
type SlotView struct {
	Label     string    `json:"label"`
	StartUTC  time.Time `json:"start_utc"`
	EndUTC    time.Time `json:"end_utc"`
	Available bool      `json:"available"`
}
