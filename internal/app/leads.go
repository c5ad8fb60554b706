package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"landing-service/internal/store"
)

// GET /api/admin/leads?from=ISO&to=ISO
func (a *App) ListLeadsHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	var (
		from time.Time
		to   time.Time
		err  error
	)

	// if both provided, parse
	if fromStr != "" && toStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
	}

	leads, err := a.store.ListLeads(c.Request.Context(), from, to, fromStr != "" && toStr != "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// GET /api/admin/leads/:id
func (a *App) GetLeadHandler(c *gin.Context) {
	l, err := a.store.GetLead(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, l)
}

// DELETE /api/admin/leads/:id
func (a *App) CancelLeadHandler(c *gin.Context) {
	err := a.store.CancelLead(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
	case errors.Is(err, store.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "lead already cancelled"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
