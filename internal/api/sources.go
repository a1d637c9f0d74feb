package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stagefinder/internal/discovery"
	"stagefinder/internal/store"
)

type createSourceRequest struct {
	PersonID   string `json:"person_id"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	Confidence string `json:"confidence"`
}

type updateSourceRequest struct {
	Status     *string `json:"status"`
	Confidence *string `json:"confidence"`
}

func (a *API) handleListSources(c *gin.Context) {
	sources, err := a.store.ListSourcesByPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.logger.WithError(err).Error("Failed to list sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (a *API) handleCreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PersonID == "" || req.Type == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id, type, and url are required"})
		return
	}

	source, err := a.store.CreateSource(c.Request.Context(), req.PersonID, req.Type, req.URL, req.Confidence)
	if err != nil {
		a.logger.WithError(err).Error("Failed to create source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
		return
	}
	c.JSON(http.StatusCreated, source)
}

func (a *API) handleUpdateSource(c *gin.Context) {
	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source, err := a.store.UpdateSource(c.Request.Context(), c.Param("id"), req.Status, req.Confidence)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to update source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update source"})
		return
	}
	c.JSON(http.StatusOK, source)
}

func (a *API) handleDeleteSource(c *gin.Context) {
	err := a.store.DeleteSource(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to delete source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleExtractSource runs the pipeline for a single source synchronously
// and returns the run summary.
func (a *API) handleExtractSource(c *gin.Context) {
	ctx := c.Request.Context()
	source, err := a.store.GetSource(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to fetch source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch source"})
		return
	}

	summary, err := a.pipeline.RunSource(ctx, source)
	if err != nil {
		a.logger.WithError(err).WithField("url", source.URL).Error("Source extraction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract from source"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source_id": source.ID,
		"summary":   summary,
	})
}

// handleDiscover runs source discovery for one person and saves the
// results. With a model configured the propose-verify-analyze flow runs;
// otherwise pattern-based guessing fills in.
func (a *API) handleDiscover(c *gin.Context) {
	ctx := c.Request.Context()
	person, err := a.store.GetPerson(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	if err != nil {
		a.logger.WithError(err).Error("Failed to fetch person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch person"})
		return
	}

	seeds, discovered, err := a.discoverSeeds(c, person.Name, person.Notes)
	if err != nil {
		a.logger.WithError(err).WithField("person", person.Name).Error("Source discovery failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to discover sources"})
		return
	}

	inserted, err := a.store.BulkInsertSources(ctx, person.ID, seeds)
	if err != nil {
		a.logger.WithError(err).Error("Failed to save discovered sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"person_id":     person.ID,
		"discovered":    discovered,
		"new_sources":   inserted,
		"total_sources": len(seeds),
	})
}

func (a *API) discoverSeeds(c *gin.Context, name, notes string) ([]store.SourceSeed, []discovery.Discovered, error) {
	if a.discoverer == nil {
		seeds := discovery.GuessSources(name)
		return seeds, nil, nil
	}

	discovered, err := a.discoverer.Discover(c.Request.Context(), name, notes)
	if err != nil {
		return nil, nil, err
	}
	seeds := make([]store.SourceSeed, 0, len(discovered))
	for _, d := range discovered {
		seeds = append(seeds, d.Seed())
	}
	return seeds, discovered, nil
}

type bulkDiscoverRequest struct {
	People   []string `json:"people"`
	SaveToDB bool     `json:"save_to_db"`
}

type bulkDiscoverResult struct {
	Person   string             `json:"person"`
	PersonID string             `json:"person_id,omitempty"`
	Sources  []store.SourceSeed `json:"sources"`
	Error    string             `json:"error,omitempty"`
}

// handleBulkDiscover discovers sources for up to four names at once,
// optionally creating the people as it goes.
func (a *API) handleBulkDiscover(c *gin.Context) {
	var req bulkDiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.People) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please provide an array of people"})
		return
	}
	if len(req.People) > 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maximum 4 people allowed"})
		return
	}

	ctx := c.Request.Context()
	results := make([]bulkDiscoverResult, 0, len(req.People))
	for _, name := range req.People {
		name = strings.TrimSpace(name)
		result := bulkDiscoverResult{Person: name}

		seeds, _, err := a.discoverSeeds(c, name, "")
		if err != nil {
			result.Error = "discovery failed"
			results = append(results, result)
			continue
		}
		result.Sources = seeds

		if req.SaveToDB {
			person, err := a.store.CreatePerson(ctx, name, "")
			if err != nil {
				result.Error = "failed to save person"
				results = append(results, result)
				continue
			}
			result.PersonID = person.ID
			if _, err := a.store.BulkInsertSources(ctx, person.ID, seeds); err != nil {
				result.Error = "failed to save sources"
			}
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
