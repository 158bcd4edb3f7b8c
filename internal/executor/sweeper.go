package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/torrkit/seedsweep/internal/core"
	"github.com/torrkit/seedsweep/internal/logger"
	"github.com/torrkit/seedsweep/internal/metrics"
)

// Sweeper carries a plan out against the torrent service.
//
// Hard gates in order:
//  1. only items with a remove verdict are ever acted on
//  2. dry-run: report would-remove, issue no service calls
//  3. execute: one batched removal for the whole decision set, with file
//     data, each hash exactly once; a removal failure aborts the run
type Sweeper struct {
	svc     core.TorrentService
	aud     core.Auditor
	log     logger.Logger
	metrics core.Metrics
	now     func() time.Time
}

// NewSweeper creates a sweeper with no-op logging and metrics.
func NewSweeper(svc core.TorrentService) *Sweeper {
	return &Sweeper{
		svc:     svc,
		log:     logger.NewNop(),
		metrics: metrics.NewNoop(),
		now:     time.Now,
	}
}

// NewSweeperWithMetrics creates a sweeper with logger and metrics.
func NewSweeperWithMetrics(svc core.TorrentService, log logger.Logger, m core.Metrics) *Sweeper {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Sweeper{svc: svc, log: log, metrics: m, now: time.Now}
}

// WithAuditor attaches an auditor (optional). Safe to pass nil.
func (s *Sweeper) WithAuditor(aud core.Auditor) *Sweeper {
	s.aud = aud
	return s
}

// Sweep partitions the plan and, unless in dry-run, requests removal of the
// remove set's hashes from the torrent service with accompanying file data.
func (s *Sweeper) Sweep(ctx context.Context, runID string, plan []core.PlanItem, mode core.Mode) (core.RunSummary, error) {
	summary := core.RunSummary{
		RunID:        runID,
		Mode:         mode,
		SnapshotSize: len(plan),
		StartedAt:    s.now(),
	}
	defer func() {
		summary.FinishedAt = s.now()
		s.metrics.ObserveRunDuration(summary.FinishedAt.Sub(summary.StartedAt))
		s.metrics.SetLastRun(summary.FinishedAt)
	}()

	var removeSet []core.PlanItem

	for _, it := range plan {
		if s.aud != nil {
			s.aud.Record(ctx, core.NewDecisionAuditEvent(runID, mode, it))
		}

		switch it.Decision.Action {
		case core.ActionTooYoung:
			summary.TooYoung++
		case core.ActionKeep:
			summary.Kept++
			s.log.Info("keeping torrent",
				logger.F("name", it.Torrent.Name),
				logger.F("hash", it.Torrent.Hash),
				logger.F("reason", it.Decision.Reason),
				logger.F("age_days", it.Decision.AgeDays),
			)
		case core.ActionRemove:
			summary.MarkedRemove++
			removeSet = append(removeSet, it)
		}
	}

	if len(removeSet) == 0 {
		s.log.Info("nothing to remove", logger.F("torrents", len(plan)))
		return summary, nil
	}

	if mode == core.ModeDryRun {
		for _, it := range removeSet {
			s.log.Info("dry run - would remove torrent with files",
				removalFields(it)...,
			)
			if s.aud != nil {
				s.aud.Record(ctx, core.NewRemovalAuditEvent(runID, mode, it, false, nil))
			}
		}
		return summary, nil
	}

	hashes := make([]string, 0, len(removeSet))
	for _, it := range removeSet {
		hashes = append(hashes, it.Torrent.Hash)
	}

	if err := s.svc.Remove(ctx, hashes, true); err != nil {
		s.metrics.IncRemovalErrors("remove")
		for _, it := range removeSet {
			if s.aud != nil {
				s.aud.Record(ctx, core.NewRemovalAuditEvent(runID, mode, it, false, err))
			}
		}
		s.log.Error("removal failed",
			logger.F("hashes", len(hashes)),
			logger.F("error", err.Error()),
		)
		return summary, fmt.Errorf("removing %d torrents: %w", len(hashes), err)
	}

	for _, it := range removeSet {
		summary.Removed++
		summary.BytesReclaimed += it.Torrent.Size
		s.log.Info("removed torrent with files", removalFields(it)...)
		if s.aud != nil {
			s.aud.Record(ctx, core.NewRemovalAuditEvent(runID, mode, it, true, nil))
		}
	}

	s.metrics.AddRemoved(summary.Removed)
	s.metrics.AddBytesReclaimed(summary.BytesReclaimed)

	return summary, nil
}

func removalFields(it core.PlanItem) []logger.Field {
	fields := []logger.Field{
		logger.F("name", it.Torrent.Name),
		logger.F("hash", it.Torrent.Hash),
		logger.F("projected_ratio", it.Decision.ProjectedRatio),
		logger.F("age_days", it.Decision.AgeDays),
	}
	if it.Torrent.Ratio != nil {
		fields = append(fields, logger.F("ratio", *it.Torrent.Ratio))
	}
	return fields
}
