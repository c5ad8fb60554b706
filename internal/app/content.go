package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"landing-service/internal/content"
)

// GET /api/content
func (a *App) ContentHandler(c *gin.Context) {
	page, err := content.Landing()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}
