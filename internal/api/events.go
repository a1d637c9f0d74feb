package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stagefinder/internal/store"
)

type createEventRequest struct {
	PersonID  string     `json:"person_id"`
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Location  string     `json:"location"`
	Venue     string     `json:"venue"`
	City      string     `json:"city"`
	Country   string     `json:"country"`
	URL       string     `json:"url"`
	TicketURL string     `json:"ticket_url"`
}

func (a *API) handleListEvents(c *gin.Context) {
	events, err := a.store.ListEventsByPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.logger.WithError(err).Error("Failed to list events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// handleCreateEvent records a manually entered event. Manual events skip
// the review queue and carry no expiry: approved_at/expires_at are set
// only when an event is promoted out of the queue, so the sweeper never
// touches manual entries.
func (a *API) handleCreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PersonID == "" || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id and title are required"})
		return
	}

	event, err := a.store.CreateEvent(c.Request.Context(), store.Event{
		PersonID:  req.PersonID,
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Venue:     req.Venue,
		City:      req.City,
		Country:   req.Country,
		URL:       req.URL,
		TicketURL: req.TicketURL,
	})
	if err != nil {
		a.logger.WithError(err).Error("Failed to create event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create event"})
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (a *API) handleDeleteEvent(c *gin.Context) {
	err := a.store.DeleteEvent(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to delete event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
