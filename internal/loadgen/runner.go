package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/careerpulse/pkg/logger"
)

// counters are updated concurrently by submitters.
type counters struct {
	submitted, created, duplicate, rejected, failed atomic.Int64
}

// Run generates traffic, submits it and verifies the stored histories.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = cfg.withDefaults()
	start := time.Now()
	log := logger.Named("loadgen")

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("subjects", cfg.Subjects),
		logger.Int("analysesPerSubject", cfg.AnalysesPerSubject),
		logger.Int("workers", cfg.Workers),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	status, err := c.getJSON(ctx, "/healthz", nil)
	if err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}
	if status != http.StatusOK {
		return Stats{}, fmt.Errorf("service health check failed with status: %d", status)
	}

	// Step 2: Generate traffic
	p, err := generate(cfg)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Generated: len(p.analyses) + len(p.replays)}

	// Step 3: Submit first-time analyses and activity, then replays
	var n counters
	if err := submit(ctx, c, cfg.Workers, p.analyses, &n); err != nil {
		return stats, err
	}
	if err := submit(ctx, c, cfg.Workers, p.replays, &n); err != nil {
		return stats, err
	}
	activities, err := recordActivity(ctx, c, cfg.Workers, p.activities)
	if err != nil {
		return stats, err
	}
	stats.Submitted = int(n.submitted.Load())
	stats.Created = int(n.created.Load())
	stats.Duplicate = int(n.duplicate.Load())
	stats.Rejected = int(n.rejected.Load())
	stats.Failed = int(n.failed.Load())
	stats.Activities = activities

	// Step 4: Verify results
	verified, err := verify(ctx, c, cfg, p)
	stats.Verified = verified
	stats.Duration = time.Since(start)

	log.Info(ctx, "load run completed",
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, err
}

// submit posts every request with at most workers in flight.
func submit(ctx context.Context, c *client, workers int, reqs []scoreRequest, n *counters) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, req := range reqs {
		g.Go(func() error {
			status, err := c.post(gctx, "/scores", req)
			n.submitted.Add(1)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				n.failed.Add(1)
			case status == http.StatusCreated:
				n.created.Add(1)
			case status == http.StatusOK:
				n.duplicate.Add(1)
			case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
				n.rejected.Add(1)
			default:
				n.failed.Add(1)
			}
			return nil
		})
	}
	return g.Wait()
}

func recordActivity(ctx context.Context, c *client, workers int, reqs []activityRequest) (int, error) {
	var ok atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, req := range reqs {
		g.Go(func() error {
			status, err := c.post(gctx, "/activity", req)
			if err != nil {
				return fmt.Errorf("record activity for %s: %w", req.SubjectID, err)
			}
			if status == http.StatusCreated {
				ok.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return int(ok.Load()), err
}
