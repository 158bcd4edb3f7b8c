package planner

import (
	"context"
	"sort"

	"github.com/torrkit/seedsweep/internal/core"
	"github.com/torrkit/seedsweep/internal/logger"
	"github.com/torrkit/seedsweep/internal/metrics"
)

// Simple evaluates a materialized snapshot against one policy and one
// reference clock. It never samples time itself; env.Now is authoritative
// for every torrent in the pass.
type Simple struct {
	log     logger.Logger
	metrics core.Metrics
}

// NewSimple creates a planner with no-op logging and metrics.
func NewSimple() *Simple {
	return &Simple{log: logger.NewNop(), metrics: metrics.NewNoop()}
}

// NewSimpleWithMetrics creates a planner with the given logger and metrics.
func NewSimpleWithMetrics(log logger.Logger, m core.Metrics) *Simple {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Simple{log: log, metrics: m}
}

func (p *Simple) BuildPlan(
	ctx context.Context,
	snapshot []core.Torrent,
	pol core.Policy,
	env core.EnvSnapshot,
) ([]core.PlanItem, error) {
	p.log.Debug("building plan", logger.F("torrents", len(snapshot)))
	p.metrics.SetSnapshotSize(len(snapshot))

	items := make([]core.PlanItem, 0, len(snapshot))

	for _, t := range snapshot {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dec := pol.Evaluate(ctx, t, env)
		p.metrics.IncDecision(dec.Action)

		fields := []logger.Field{
			logger.F("name", t.Name),
			logger.F("hash", t.Hash),
			logger.F("age_days", dec.AgeDays),
		}
		if t.Ratio != nil {
			fields = append(fields, logger.F("ratio", *t.Ratio))
		}
		if dec.HasProjection {
			fields = append(fields, logger.F("projected_ratio", dec.ProjectedRatio))
		}

		switch dec.Action {
		case core.ActionTooYoung:
			p.log.Debug("torrent too new", fields...)
		case core.ActionKeep:
			p.log.Debug("torrent kept", append(fields, logger.F("reason", dec.Reason))...)
		case core.ActionRemove:
			p.log.Debug("torrent below ratio target", fields...)
		}

		items = append(items, core.PlanItem{Torrent: t, Decision: dec})
	}

	// Order never changes decisions, only report and removal-request order.
	// Remove candidates first, then a stable name/hash order for output.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		aRem := a.Decision.Action == core.ActionRemove
		bRem := b.Decision.Action == core.ActionRemove
		if aRem != bRem {
			return aRem
		}
		if a.Torrent.Name != b.Torrent.Name {
			return a.Torrent.Name < b.Torrent.Name
		}
		return a.Torrent.Hash < b.Torrent.Hash
	})

	p.log.Info("plan built", logger.F("items", len(items)))
	return items, nil
}
