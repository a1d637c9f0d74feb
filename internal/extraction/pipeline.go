package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"stagefinder/internal/scrape"
	"stagefinder/internal/store"
	"stagefinder/pkg/clients"
)

const (
	maxPostsPerRun     = 15
	maxStoredPostChars = 5000
)

// ReviewQueue is where verified-or-not candidates land for human review.
type ReviewQueue interface {
	EnqueueCandidate(ctx context.Context, c store.QueuedCandidate) (store.QueuedCandidate, error)
}

// Summary counts what one extraction run produced.
type Summary struct {
	Extracted int `json:"extracted"`
	Verified  int `json:"verified"`
	Saved     int `json:"saved"`
	Failed    int `json:"failed"`
}

func (s *Summary) add(other Summary) {
	s.Extracted += other.Extracted
	s.Verified += other.Verified
	s.Saved += other.Saved
	s.Failed += other.Failed
}

// Pipeline runs the full source-to-review-queue flow: fetch, segment,
// extract, verify, enqueue. One post or candidate failing never aborts the
// rest of the run.
type Pipeline struct {
	fetcher     *scrape.Fetcher
	extractor   *Extractor
	verifier    *Verifier
	queue       ReviewQueue
	llmPacer    *clients.Pacer
	sourcePacer *clients.Pacer
	logger      *logrus.Logger
	maxPosts    int
}

// PipelineConfig wires a pipeline. MaxPosts defaults to 15 when zero; the
// pacers may be nil to disable spacing.
type PipelineConfig struct {
	Fetcher     *scrape.Fetcher
	Extractor   *Extractor
	Verifier    *Verifier
	Queue       ReviewQueue
	LLMPacer    *clients.Pacer
	SourcePacer *clients.Pacer
	Logger      *logrus.Logger
	MaxPosts    int
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	maxPosts := cfg.MaxPosts
	if maxPosts <= 0 {
		maxPosts = maxPostsPerRun
	}
	return &Pipeline{
		fetcher:     cfg.Fetcher,
		extractor:   cfg.Extractor,
		verifier:    cfg.Verifier,
		queue:       cfg.Queue,
		llmPacer:    cfg.LLMPacer,
		sourcePacer: cfg.SourcePacer,
		logger:      cfg.Logger,
		maxPosts:    maxPosts,
	}
}

// RunPerson extracts from every active source of a person, pausing between
// sources. Source failures are counted, not propagated.
func (p *Pipeline) RunPerson(ctx context.Context, person store.Person, sources []store.Source) (Summary, error) {
	var total Summary
	for _, source := range sources {
		if source.Status == store.SourceStatusInactive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
		if p.sourcePacer != nil {
			if err := p.sourcePacer.Wait(ctx); err != nil {
				return total, err
			}
		}

		summary, err := p.RunSource(ctx, source)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return total, err
			}
			p.logger.WithError(err).WithFields(logrus.Fields{
				"person": person.Name,
				"url":    source.URL,
			}).Warn("Source extraction failed")
			total.Failed++
			continue
		}
		total.add(summary)
	}

	p.logger.WithFields(logrus.Fields{
		"person":    person.Name,
		"extracted": total.Extracted,
		"verified":  total.Verified,
		"saved":     total.Saved,
		"failed":    total.Failed,
	}).Info("Extraction run complete")
	return total, nil
}

// RunSource fetches one source page and processes its posts.
func (p *Pipeline) RunSource(ctx context.Context, source store.Source) (Summary, error) {
	var summary Summary

	page, err := p.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return summary, fmt.Errorf("fetch source: %w", err)
	}

	posts := scrape.Segment(page)
	p.logger.WithFields(logrus.Fields{
		"url":   source.URL,
		"posts": len(posts),
	}).Info("Segmented source page")

	if len(posts) > p.maxPosts {
		posts = posts[:p.maxPosts]
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := p.processPost(ctx, source, post, &summary); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			p.logger.WithError(err).WithField("post", post.Title).Warn("Post analysis failed")
			summary.Failed++
		}
	}
	return summary, nil
}

func (p *Pipeline) processPost(ctx context.Context, source store.Source, post scrape.Post, summary *Summary) error {
	if p.llmPacer != nil {
		if err := p.llmPacer.Wait(ctx); err != nil {
			return err
		}
	}

	candidates, err := p.extractor.ExtractFromPost(ctx, post)
	if err != nil {
		return err
	}
	summary.Extracted += len(candidates)

	for _, candidate := range candidates {
		if p.llmPacer != nil {
			if err := p.llmPacer.Wait(ctx); err != nil {
				return err
			}
		}
		result := p.verifier.Verify(ctx, candidate)
		if result.Passed() {
			summary.Verified++
		}

		sourceID := source.ID
		postText := scrape.Truncate(post.Text, maxStoredPostChars)

		// Every candidate reaches the queue; verification outcome rides
		// along for the reviewer.
		_, err := p.queue.EnqueueCandidate(ctx, store.QueuedCandidate{
			PersonID:           source.PersonID,
			SourceID:           &sourceID,
			Title:              candidate.Title,
			EventDate:          candidate.Date,
			Location:           candidate.Location,
			URL:                candidate.URL,
			RegistrationURL:    candidate.RegistrationURL,
			OriginalPostURL:    post.URL,
			OriginalPostText:   postText,
			HTTPCheck:          result.HTTPCheck,
			ContentCheck:       result.ContentCheck,
			DateCheck:          result.DateCheck,
			RegistrationCheck:  result.RegistrationCheck,
			VerificationErrors: result.Errors,
		})
		if err != nil {
			p.logger.WithError(err).WithField("title", candidate.Title).Error("Failed to enqueue candidate")
			summary.Failed++
			continue
		}
		summary.Saved++
	}
	return nil
}
