package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/drive-scout-service/internal/domain"
	"github.com/couchcryptid/drive-scout-service/internal/observability"
)

// Fetcher retrieves the current page of raw events from the upstream API.
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]domain.RawEvent, error)
}

// Transformer converts an eligible raw event into a listing entry.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) domain.ProcessedEvent
}

// Publisher forwards the processed events of a successful run downstream.
type Publisher interface {
	Publish(ctx context.Context, events []domain.ProcessedEvent) error
}

// Result is the outcome of a single run.
type Result struct {
	Events []domain.ProcessedEvent
	Stats  domain.Stats
}

// Pipeline runs fetch, classify, build, filter, and rank for one request. It
// holds no per-request state, so a single Pipeline serves concurrent requests.
type Pipeline struct {
	fetcher     Fetcher
	policy      domain.Policy
	transformer Transformer
	ranker      *domain.Ranker
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics

	// lastFetchErr holds the error of the most recent failed fetch, nil after a success.
	lastFetchErr atomic.Pointer[error]
}

// New creates a Pipeline. ranker and publisher are optional; pass nil to skip
// proximity ranking or publishing.
func New(f Fetcher, policy domain.Policy, t Transformer, ranker *domain.Ranker, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:     f,
		policy:      policy,
		transformer: t,
		ranker:      ranker,
		publisher:   pub,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness reports an error while the most recent upstream fetch failed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if errp := p.lastFetchErr.Load(); errp != nil {
		return fmt.Errorf("last upstream fetch failed: %w", *errp)
	}
	return nil
}

// Run executes one pass. The only error it returns is an upstream failure;
// everything downstream of the fetch degrades per event.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	raws, err := p.fetcher.FetchEvents(ctx)
	p.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.lastFetchErr.Store(&err)
		return Result{}, err
	}
	p.lastFetchErr.Store(nil)

	var stats domain.Stats
	stats.TotalEvents = len(raws)
	p.metrics.EventsProcessed.WithLabelValues(observability.StageFetched).Add(float64(len(raws)))

	classified := domain.Classify(raws, p.policy)
	stats.Classified = len(classified)
	p.metrics.EventsProcessed.WithLabelValues(observability.StageClassified).Add(float64(len(classified)))

	events := make([]domain.ProcessedEvent, 0, len(classified))
	for _, raw := range classified {
		if !domain.Eligible(raw) {
			p.logger.Debug("skipping event without location or timeslots", "event_id", raw.ID)
			continue
		}
		stats.Eligible++

		ev := p.transformer.Transform(ctx, raw)
		if !domain.Listable(ev) {
			p.logger.Debug("skipping event without date or place", "event_id", raw.ID)
			continue
		}
		events = append(events, ev)
	}
	stats.Valid = len(events)
	p.metrics.EventsProcessed.WithLabelValues(observability.StageEligible).Add(float64(stats.Eligible))
	p.metrics.EventsProcessed.WithLabelValues(observability.StageListed).Add(float64(stats.Valid))

	if p.ranker != nil {
		events = p.ranker.Rank(events)
		p.metrics.EventsProcessed.WithLabelValues(observability.StageRanked).Add(float64(len(events)))
	}
	stats.InRegion = len(events)

	p.logger.Info("events processed",
		"total", stats.TotalEvents,
		"classified", stats.Classified,
		"eligible", stats.Eligible,
		"valid", stats.Valid,
		"count", len(events),
	)

	p.publish(ctx, events)
	return Result{Events: events, Stats: stats}, nil
}

func (p *Pipeline) publish(ctx context.Context, events []domain.ProcessedEvent) {
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events); err != nil {
		p.metrics.PublishErrors.Inc()
		if errors.Is(err, context.Canceled) {
			p.logger.Warn("publish cancelled", "count", len(events))
			return
		}
		p.logger.Error("publish events failed", "error", err, "count", len(events))
	}
}
