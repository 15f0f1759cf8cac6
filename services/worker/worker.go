package worker

import (
	"context"
	"time"

	"surplusbridge/ingestworker/internal/ingest"
	"surplusbridge/ingestworker/internal/parser"
	"surplusbridge/ingestworker/logger"
)

// Worker triggers scrape runs for every configured platform on an
// interval. It is an optional alternative to external scheduling; runs
// are dedup-keyed at the storage layer, so overlap with externally
// triggered runs only wastes work.
type Worker struct {
	svc       *ingest.Service
	platforms []parser.Platform
	interval  time.Duration
}

// NewWorker creates an interval scheduler over the ingestion service
func NewWorker(svc *ingest.Service, platforms []parser.Platform, interval time.Duration) *Worker {
	return &Worker{
		svc:       svc,
		platforms: platforms,
		interval:  interval,
	}
}

// Start runs scrapes on the interval until the context is cancelled.
// The first round runs immediately.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runAll(ctx)
		}
	}
}

// runAll triggers each platform sequentially; a failing platform never
// blocks the others beyond its own bounded fetch.
func (w *Worker) runAll(ctx context.Context) {
	start := time.Now()
	for _, platform := range w.platforms {
		if ctx.Err() != nil {
			return
		}
		result, err := w.svc.RunScrape(ctx, platform)
		if err != nil {
			logger.Error("scheduled run for %s failed: %v", platform, err)
			continue
		}
		logger.Info("scheduled run for %s: found=%d queued=%d rejected=%d success=%t",
			platform, result.Stats.ItemsFound, result.Stats.ItemsQueued,
			result.Stats.ItemsRejected, result.Success)
	}
	logger.Debug("scheduled round finished in %s", time.Since(start))
}
