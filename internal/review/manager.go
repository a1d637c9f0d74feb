package review

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"stagefinder/internal/store"
)

// RetentionWindow is how long an approved event stays before the sweeper
// removes it.
const RetentionWindow = 7 * 24 * time.Hour

// QueueStore is the storage surface the review workflow needs.
type QueueStore interface {
	ListQueue(ctx context.Context, personID string) ([]store.QueuedCandidate, error)
	GetQueued(ctx context.Context, id string) (store.QueuedCandidate, error)
	DeleteQueued(ctx context.Context, id string) error
	PromoteQueued(ctx context.Context, id string, approvedAt, expiresAt time.Time) (store.Event, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Manager applies reviewer decisions to queued candidates.
type Manager struct {
	store  QueueStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewManager(store QueueStore, logger *logrus.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// List returns pending candidates, optionally scoped to one person.
func (m *Manager) List(ctx context.Context, personID string) ([]store.QueuedCandidate, error) {
	return m.store.ListQueue(ctx, personID)
}

// Approve promotes a candidate to a confirmed upcoming event with the
// standard retention window.
func (m *Manager) Approve(ctx context.Context, id string) (store.Event, error) {
	if err := Transition(StatePending, StateUpcoming); err != nil {
		return store.Event{}, err
	}
	approvedAt := m.now()
	event, err := m.store.PromoteQueued(ctx, id, approvedAt, approvedAt.Add(RetentionWindow))
	if err != nil {
		return store.Event{}, err
	}
	m.logger.WithFields(logrus.Fields{
		"event":      event.ID,
		"title":      event.Title,
		"expires_at": event.ExpiresAt,
	}).Info("Approved event candidate")
	return event, nil
}

// Reject discards a candidate.
func (m *Manager) Reject(ctx context.Context, id string) error {
	if err := Transition(StatePending, StateRejected); err != nil {
		return err
	}
	if err := m.store.DeleteQueued(ctx, id); err != nil {
		return err
	}
	m.logger.WithField("candidate", id).Info("Rejected event candidate")
	return nil
}

// SweepExpired retires approved events whose retention window has passed.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	if err := Transition(StateUpcoming, StateExpired); err != nil {
		return 0, err
	}
	removed, err := m.store.SweepExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.WithField("removed", removed).Info("Swept expired events")
	}
	return removed, nil
}
