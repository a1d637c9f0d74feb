package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stagefinder/internal/store"
)

func (a *API) handleListReview(c *gin.Context) {
	queue, err := a.review.List(c.Request.Context(), c.Query("person_id"))
	if err != nil {
		a.logger.WithError(err).Error("Failed to list review queue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch review queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

func (a *API) handleApprove(c *gin.Context) {
	event, err := a.review.Approve(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to approve candidate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve candidate"})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (a *API) handleReject(c *gin.Context) {
	err := a.review.Reject(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "candidate not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to reject candidate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject candidate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSweep forces an expiry sweep outside the cron schedule.
func (a *API) handleSweep(c *gin.Context) {
	removed, err := a.review.SweepExpired(c.Request.Context())
	if err != nil {
		a.logger.WithError(err).Error("Manual sweep failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sweep expired events"})
		return
	}
	a.metrics.EventsSwept.WithLabelValues("manual").Add(float64(removed))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
