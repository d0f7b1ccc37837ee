// Package scheduler runs the periodic retention job that prunes old search
// analytics, price history and shared comparison snapshots.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pruner deletes rows older than a cutoff and reports how many went
type Pruner interface {
	PruneSearchQueries(ctx context.Context, before time.Time) (int64, error)
	PrunePriceHistory(ctx context.Context, before time.Time) (int64, error)
}

// SnapshotPruner deletes shared comparisons older than a cutoff
type SnapshotPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Retention holds the pruning horizons
type Retention struct {
	SearchQueries time.Duration
	PriceHistory  time.Duration
	Snapshots     time.Duration
}

// Scheduler wraps robfig/cron and owns the retention job
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	store     Pruner
	snapshots SnapshotPruner
	retention Retention
	log       logrus.FieldLogger
	now       func() time.Time
}

// New creates a Scheduler. snapshots may be nil.
func New(spec string, store Pruner, snapshots SnapshotPruner, retention Retention, log logrus.FieldLogger) *Scheduler {
	log = log.WithField("component", "scheduler")
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log))),
		spec:      spec,
		store:     store,
		snapshots: snapshots,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Start registers the retention job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunRetention(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.WithField("spec", s.spec).Info("Cron started")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Cron stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunRetention prunes everything past its horizon. Each step is independent;
// a failure is logged and the next step still runs.
func (s *Scheduler) RunRetention(ctx context.Context) {
	now := s.now()
	s.log.Info("Retention cycle started")

	if s.retention.SearchQueries > 0 {
		n, err := s.store.PruneSearchQueries(ctx, now.Add(-s.retention.SearchQueries))
		if err != nil {
			s.log.WithError(err).Error("Failed to prune search queries")
		} else {
			s.log.WithField("deleted", n).Info("Pruned search queries")
		}
	}

	if s.retention.PriceHistory > 0 {
		n, err := s.store.PrunePriceHistory(ctx, now.Add(-s.retention.PriceHistory))
		if err != nil {
			s.log.WithError(err).Error("Failed to prune price history")
		} else {
			s.log.WithField("deleted", n).Info("Pruned price history")
		}
	}

	if s.snapshots != nil && s.retention.Snapshots > 0 {
		n, err := s.snapshots.Prune(ctx, now.Add(-s.retention.Snapshots))
		if err != nil {
			s.log.WithError(err).Error("Failed to prune comparison snapshots")
		} else {
			s.log.WithField("deleted", n).Info("Pruned comparison snapshots")
		}
	}

	s.log.Info("Retention cycle complete")
}
