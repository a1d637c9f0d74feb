package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stagefinder/internal/store"
)

type personRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

func (a *API) handleListPeople(c *gin.Context) {
	people, err := a.store.ListPeople(c.Request.Context())
	if err != nil {
		a.logger.WithError(err).Error("Failed to list people")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch people"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"people": people})
}

func (a *API) handleGetPerson(c *gin.Context) {
	person, err := a.store.GetPerson(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to fetch person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch person"})
		return
	}
	c.JSON(http.StatusOK, person)
}

func (a *API) handleCreatePerson(c *gin.Context) {
	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}

	person, err := a.store.CreatePerson(c.Request.Context(), strings.TrimSpace(*req.Name), notes)
	if err != nil {
		a.logger.WithError(err).Error("Failed to create person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create person"})
		return
	}
	c.JSON(http.StatusCreated, person)
}

func (a *API) handleUpdatePerson(c *gin.Context) {
	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	person, err := a.store.UpdatePerson(c.Request.Context(), c.Param("id"), req.Name, req.Notes)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to update person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update person"})
		return
	}
	c.JSON(http.StatusOK, person)
}

func (a *API) handleDeletePerson(c *gin.Context) {
	err := a.store.DeletePerson(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to delete person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete person"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
