// Package api exposes the HTTP surface: people and source management,
// discovery and extraction triggers, and the review workflow.
package api

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stagefinder/internal/discovery"
	"stagefinder/internal/extraction"
	"stagefinder/internal/frequency"
	"stagefinder/internal/store"
)

// Store is the persistence surface the handlers need. *store.Store
// satisfies it; tests substitute fakes.
type Store interface {
	ListPeople(ctx context.Context) ([]store.Person, error)
	GetPerson(ctx context.Context, id string) (store.Person, error)
	CreatePerson(ctx context.Context, name, notes string) (store.Person, error)
	UpdatePerson(ctx context.Context, id string, name, notes *string) (store.Person, error)
	DeletePerson(ctx context.Context, id string) error

	ListSourcesByPerson(ctx context.Context, personID string) ([]store.Source, error)
	GetSource(ctx context.Context, id string) (store.Source, error)
	CreateSource(ctx context.Context, personID, sourceType, url, confidence string) (store.Source, error)
	BulkInsertSources(ctx context.Context, personID string, seeds []store.SourceSeed) (int64, error)
	UpdateSource(ctx context.Context, id string, status, confidence *string) (store.Source, error)
	UpdateSourceActivity(ctx context.Context, id string, lastPostDate *time.Time, avgPostsPerMonth float64, checkedAt time.Time) error
	DeleteSource(ctx context.Context, id string) error

	ListEventsByPerson(ctx context.Context, personID string) ([]store.Event, error)
	CreateEvent(ctx context.Context, ev store.Event) (store.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Discoverer proposes and verifies sources with the model. It is nil when
// no model is configured, and the pattern-based fallback takes over.
type Discoverer interface {
	Discover(ctx context.Context, name, description string) ([]discovery.Discovered, error)
}

// ExtractionRunner drives the extract-verify-enqueue pipeline.
type ExtractionRunner interface {
	RunPerson(ctx context.Context, person store.Person, sources []store.Source) (extraction.Summary, error)
	RunSource(ctx context.Context, source store.Source) (extraction.Summary, error)
}

// FrequencyRunner analyzes posting cadence for a set of sources.
type FrequencyRunner interface {
	AnalyzeAll(ctx context.Context, sources []store.Source, update frequency.UpdateFunc) ([]frequency.Report, error)
}

// ReviewManager applies approve/reject/sweep decisions.
type ReviewManager interface {
	List(ctx context.Context, personID string) ([]store.QueuedCandidate, error)
	Approve(ctx context.Context, id string) (store.Event, error)
	Reject(ctx context.Context, id string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// API holds the handler dependencies and the in-memory job registry for
// long-running extraction runs.
type API struct {
	store      Store
	discoverer Discoverer
	pipeline   ExtractionRunner
	analyzer   FrequencyRunner
	review     ReviewManager
	metrics    *Metrics
	logger     *logrus.Logger
	now        func() time.Time

	jobsMu sync.Mutex
	jobs   map[string]*Job
}

// Config wires an API. Discoverer may be nil; everything else is required.
type Config struct {
	Store      Store
	Discoverer Discoverer
	Pipeline   ExtractionRunner
	Analyzer   FrequencyRunner
	Review     ReviewManager
	Metrics    *Metrics
	Logger     *logrus.Logger
}

func New(cfg Config) *API {
	return &API{
		store:      cfg.Store,
		discoverer: cfg.Discoverer,
		pipeline:   cfg.Pipeline,
		analyzer:   cfg.Analyzer,
		review:     cfg.Review,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
		jobs:       make(map[string]*Job),
	}
}

// RegisterRoutes mounts all handlers under /api.
func (a *API) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api")

	group.GET("/people", a.handleListPeople)
	group.POST("/people", a.handleCreatePerson)
	group.GET("/people/:id", a.handleGetPerson)
	group.PUT("/people/:id", a.handleUpdatePerson)
	group.DELETE("/people/:id", a.handleDeletePerson)

	group.GET("/people/:id/sources", a.handleListSources)
	group.POST("/people/:id/discover", a.handleDiscover)
	group.POST("/people/:id/extract", a.handleStartExtraction)
	group.POST("/people/:id/frequency", a.handleAnalyzeFrequency)
	group.GET("/people/:id/events", a.handleListEvents)

	group.POST("/sources", a.handleCreateSource)
	group.PUT("/sources/:id", a.handleUpdateSource)
	group.DELETE("/sources/:id", a.handleDeleteSource)
	group.POST("/sources/:id/extract", a.handleExtractSource)

	group.POST("/events", a.handleCreateEvent)
	group.DELETE("/events/:id", a.handleDeleteEvent)

	group.GET("/review", a.handleListReview)
	group.POST("/review/:id/approve", a.handleApprove)
	group.POST("/review/:id/reject", a.handleReject)
	group.POST("/review/sweep", a.handleSweep)

	group.GET("/jobs/:id", a.handleGetJob)

	group.POST("/discover-sources", a.handleBulkDiscover)
}
