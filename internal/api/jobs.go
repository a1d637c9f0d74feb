package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stagefinder/internal/extraction"
	"stagefinder/internal/frequency"
	"stagefinder/internal/store"
)

// extractionTimeout bounds one full extraction run across all of a
// person's sources.
const extractionTimeout = 30 * time.Minute

// Job tracks a background extraction run. Jobs live in memory only; a
// restart forgets them, but the queue rows they produced survive.
type Job struct {
	ID         string              `json:"id"`
	PersonID   string              `json:"person_id"`
	Status     string              `json:"status"`
	Summary    *extraction.Summary `json:"summary,omitempty"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// handleStartExtraction kicks off the pipeline for one person in the
// background and returns a job id to poll.
func (a *API) handleStartExtraction(c *gin.Context) {
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

	sources, err := a.store.ListSourcesByPerson(ctx, person.ID)
	if err != nil {
		a.logger.WithError(err).Error("Failed to list sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sources"})
		return
	}
	if len(sources) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no sources found, run discovery first"})
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		PersonID:  person.ID,
		Status:    "running",
		StartedAt: a.now().UTC(),
	}
	a.saveJob(job)

	go a.runExtraction(job.ID, person, sources)

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

func (a *API) handleGetJob(c *gin.Context) {
	a.jobsMu.Lock()
	job, ok := a.jobs[c.Param("id")]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	a.jobsMu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (a *API) runExtraction(jobID string, person store.Person, sources []store.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
	defer cancel()

	summary, err := a.pipeline.RunPerson(ctx, person, sources)
	if err != nil {
		a.metrics.ExtractionRuns.WithLabelValues("failed").Inc()
	} else {
		a.metrics.ExtractionRuns.WithLabelValues("completed").Inc()
	}
	a.metrics.CandidatesQueued.WithLabelValues("true").Add(float64(summary.Verified))
	if unverified := summary.Saved - summary.Verified; unverified > 0 {
		a.metrics.CandidatesQueued.WithLabelValues("false").Add(float64(unverified))
	}

	finished := a.now().UTC()
	a.jobsMu.Lock()
	defer a.jobsMu.Unlock()
	job, ok := a.jobs[jobID]
	if !ok {
		return
	}
	job.FinishedAt = &finished
	job.Summary = &summary
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
		return
	}
	job.Status = "completed"
}

func (a *API) saveJob(job *Job) {
	a.jobsMu.Lock()
	a.jobs[job.ID] = job
	a.jobsMu.Unlock()
}

// handleAnalyzeFrequency runs posting-frequency analysis for all of a
// person's sources synchronously and persists the results.
func (a *API) handleAnalyzeFrequency(c *gin.Context) {
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

	sources, err := a.store.ListSourcesByPerson(ctx, person.ID)
	if err != nil {
		a.logger.WithError(err).Error("Failed to list sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sources"})
		return
	}
	if len(sources) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no sources found, run discovery first"})
		return
	}

	update := func(ctx context.Context, sourceID string, lastPost *time.Time, avg float64) error {
		return a.store.UpdateSourceActivity(ctx, sourceID, lastPost, avg, a.now())
	}
	reports, err := a.analyzer.AnalyzeAll(ctx, sources, frequency.UpdateFunc(update))
	if err != nil {
		a.logger.WithError(err).Error("Frequency analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"person_id": person.ID,
		"reports":   reports,
	})
}
