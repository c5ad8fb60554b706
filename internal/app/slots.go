package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"landing-service/internal/calendar"
	"landing-service/internal/store"
)

// GET /api/calendar?year=2026&month=10
// Without parameters the current month is returned.
func (a *App) CalendarHandler(c *gin.Context) {
	today := calendar.Today(a.now(), a.loc)
	view := calendar.ViewOf(today)

	if ys, ms := c.Query("year"), c.Query("month"); ys != "" || ms != "" {
		y, yerr := strconv.Atoi(ys)
		m, merr := strconv.Atoi(ms)
		if yerr != nil || merr != nil || m < 1 || m > 12 || y < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year and month required together, month 1-12"})
			return
		}
		view = calendar.View{Year: y, Month: time.Month(m)}
	}
	c.JSON(http.StatusOK, view.Grid(today, calendar.Date{}))
}

// GET /api/slots?date=YYYY-MM-DD
func (a *App) SlotsHandler(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required (YYYY-MM-DD)"})
		return
	}
	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	if !calendar.Selectable(d, calendar.Today(a.now(), a.loc)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is not bookable"})
		return
	}
	slots, err := a.slotsOn(c.Request.Context(), d)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  d,
		"slots": slots,
	})
}

// slotsOn lists the fixed slots of d, marking those held by a confirmed lead.
func (a *App) slotsOn(ctx context.Context, d calendar.Date) ([]SlotView, error) {
	booked := map[int64]struct{}{}
	if a.store != nil {
		dayStart := d.In(a.loc)
		leads, err := a.store.ListLeads(ctx, dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC(), true)
		if err != nil {
			return nil, err
		}
		for _, l := range leads {
			if l.Status == store.StatusConfirmed {
				booked[l.StartAtUTC.Unix()] = struct{}{}
			}
		}
	}

	out := make([]SlotView, 0, len(calendar.Slots()))
	for _, s := range calendar.Slots() {
		start := s.StartOn(d, a.loc).UTC()
		_, taken := booked[start.Unix()]
		out = append(out, SlotView{
			Label:     s.String(),
			StartUTC:  start,
			EndUTC:    start.Add(calendar.SlotLength),
			Available: !taken,
		})
	}
	return out, nil
}
