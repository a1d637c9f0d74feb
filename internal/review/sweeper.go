package review

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically retires expired events on a cron schedule.
type Sweeper struct {
	manager *Manager
	cron    *cron.Cron
	logger  *logrus.Logger
	swept   *prometheus.CounterVec
}

// NewSweeper schedules the expiry sweep. The schedule uses standard cron
// syntax or descriptors like "@hourly". swept may be nil.
func NewSweeper(manager *Manager, schedule string, logger *logrus.Logger, swept *prometheus.CounterVec) (*Sweeper, error) {
	s := &Sweeper{
		manager: manager,
		cron:    cron.New(),
		logger:  logger,
		swept:   swept,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.manager.SweepExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled expiry sweep failed")
		return
	}
	if s.swept != nil {
		s.swept.WithLabelValues("schedule").Add(float64(removed))
	}
}
