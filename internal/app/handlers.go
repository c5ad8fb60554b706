package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"landing-service/internal/calendar"
	"landing-service/internal/metrics"
	"landing-service/internal/store"
	"landing-service/internal/wizard"
)

func (a *App) demoView(id string, s *demoSession, applied *bool) demoResponse {
	st := s.w.State()
	resp := demoResponse{
		ID:         id,
		Applied:    applied,
		State:      st,
		CanAdvance: st.CanAdvance(),
		CanSubmit:  st.CanSubmit(),
		Calendar:   s.w.Calendar(),
	}
	if st.Submitted {
		resp.Summary = s.w.Summary()
		s.mu.Lock()
		resp.LeadID = s.leadID
		s.mu.Unlock()
	}
	return resp
}

func (a *App) lookupDemo(c *gin.Context) (string, *demoSession, bool) {
	id := c.Param("id")
	s, ok := a.demos.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return "", nil, false
	}
	return id, s, true
}

func (a *App) respondOp(c *gin.Context, op, id string, s *demoSession, applied bool) {
	metrics.RecordWizard(op, applied)
	c.JSON(http.StatusOK, a.demoView(id, s, &applied))
}

// POST /api/demo-sessions
// Creates a wizard and opens it, like clicking "Book a demo".
func (a *App) CreateDemoSessionHandler(c *gin.Context) {
	s := &demoSession{}
	s.w = wizard.New(wizard.Options{
		Now:        a.now,
		Location:   a.loc,
		ResetDelay: a.resetDelay,
		Logger:     a.log,
	})
	s.w.Open()
	id := a.demos.Add(s)
	c.JSON(http.StatusCreated, a.demoView(id, s, nil))
}

// GET /api/demo-sessions/:id
func (a *App) GetDemoSessionHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.demoView(id, s, nil))
}

// DELETE /api/demo-sessions/:id
func (a *App) DeleteDemoSessionHandler(c *gin.Context) {
	if !a.demos.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PUT /api/demo-sessions/:id/fields/:field
func (a *App) UpdateFieldHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	field, err := wizard.ParseField(c.Param("field"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req fieldReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.respondOp(c, "update_field", id, s, s.w.UpdateField(field, req.Value))
}

// PUT /api/demo-sessions/:id/date
func (a *App) SelectDateHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	var req dateReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}
	a.respondOp(c, "select_date", id, s, s.w.SelectDate(d))
}

// PUT /api/demo-sessions/:id/time
func (a *App) SelectTimeHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	var req timeReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slot, err := calendar.ParseSlot(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.respondOp(c, "select_time", id, s, s.w.SelectTime(slot))
}

func (a *App) wizardOp(op string, fn func(*wizard.Wizard) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, s, ok := a.lookupDemo(c)
		if !ok {
			return
		}
		a.respondOp(c, op, id, s, fn(s.w))
	}
}

// POST /api/demo-sessions/:id/open
func (a *App) OpenHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	s.w.Open()
	// the lead only goes with a submitted state that survived the open
	if !s.w.State().Submitted {
		s.mu.Lock()
		s.leadID = ""
		s.mu.Unlock()
	}
	a.respondOp(c, "open", id, s, true)
}

// POST /api/demo-sessions/:id/close
// The form content is cleared after the reset delay, not immediately.
func (a *App) CloseHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	s.w.Close()
	a.respondOp(c, "close", id, s, true)
}

// POST /api/demo-sessions/:id/submit
// The transition is local; persisting the lead is best effort and never
// undoes it.
func (a *App) SubmitHandler(c *gin.Context) {
	id, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	applied := s.w.Submit()
	if applied {
		if lead, ok := s.w.Lead(); ok {
			if leadID := a.persistLead(c.Request.Context(), lead); leadID != "" {
				s.mu.Lock()
				s.leadID = leadID
				s.mu.Unlock()
			}
		}
	}
	a.respondOp(c, "submit", id, s, applied)
}

func (a *App) persistLead(ctx context.Context, wl wizard.Lead) string {
	if a.store == nil {
		return ""
	}
	l := store.Lead{
		FirstName:  wl.Contact.FirstName,
		LastName:   wl.Contact.LastName,
		Email:      wl.Contact.Email,
		Company:    wl.Contact.Company,
		Phone:      wl.Contact.Phone,
		StartAtUTC: wl.StartAt.UTC(),
		EndAtUTC:   wl.EndAt.UTC(),
		Source:     "landing",
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := a.store.InsertLead(ctx, &l)
	switch {
	case errors.Is(err, store.ErrSlotTaken):
		metrics.RecordLead("slot_taken")
		a.log.Warn("submitted slot already booked", zap.Time("start", l.StartAtUTC))
		return ""
	case err != nil:
		metrics.RecordLead("error")
		a.log.Error("persist lead", zap.Error(err))
		return ""
	}
	metrics.RecordLead("stored")
	a.log.Info("lead stored", zap.String("lead_id", l.ID), zap.Time("start", l.StartAtUTC))

	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		a.syncLead(l)
	}()
	return l.ID
}

// GET /api/demo-sessions/:id/calendar
func (a *App) DemoCalendarHandler(c *gin.Context) {
	_, s, ok := a.lookupDemo(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.w.Calendar())
}

func (a *App) monthOp(fn func(*wizard.Wizard) calendar.MonthGrid) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, s, ok := a.lookupDemo(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, fn(s.w))
	}
}
