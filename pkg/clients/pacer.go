package clients

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go/ratelimiter"

	"stagefinder/pkg/logging"
)

// PacerConfig configures a minimum-interval gate for an external dependency.
type PacerConfig struct {
	// Name identifies this pacer in logs
	Name string

	// Interval is the minimum spacing between successive calls. Zero or
	// negative disables pacing.
	Interval time.Duration

	// Logger for wait diagnostics
	Logger logging.Logger
}

// Pacer serializes calls to a rate-limited external dependency (a scraped
// site, the reasoning service) so successive calls are spaced at least one
// interval apart. All callers that talk to the same dependency share one
// Pacer, keeping the pacing policy in one place instead of scattered sleeps.
type Pacer struct {
	name    string
	limiter ratelimiter.RateLimiter[any]
	logger  logging.Logger
}

// NewPacer creates a pacer backed by a smooth rate limiter.
func NewPacer(cfg PacerConfig) *Pacer {
	p := &Pacer{name: cfg.Name, logger: cfg.Logger}
	if cfg.Interval > 0 {
		p.limiter = ratelimiter.NewSmoothBuilderWithMaxRate[any](cfg.Interval).Build()
	}
	return p
}

// Wait blocks until the next permitted call slot, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := p.limiter.AcquirePermit(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Second && p.logger != nil {
		p.logger.WithFields(logging.Fields{
			"pacer":  p.name,
			"waited": waited,
		}).Debug("Paced external call")
	}
	return nil
}
