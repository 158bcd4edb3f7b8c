package metrics

import (
	"time"

	"github.com/torrkit/seedsweep/internal/core"
)

// Noop implements core.Metrics with no-ops, for when metrics are disabled
// and for tests.
type Noop struct{}

// NewNoop creates a no-op metrics collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) SetSnapshotSize(int)              {}
func (n *Noop) IncDecision(core.Action)          {}
func (n *Noop) AddRemoved(int)                   {}
func (n *Noop) AddBytesReclaimed(int64)          {}
func (n *Noop) IncRemovalErrors(string)          {}
func (n *Noop) ObserveRunDuration(time.Duration) {}
func (n *Noop) SetLastRun(time.Time)             {}

// Ensure Noop implements core.Metrics
var _ core.Metrics = (*Noop)(nil)
