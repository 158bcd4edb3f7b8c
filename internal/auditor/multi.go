package auditor

import (
	"context"

	"github.com/torrkit/seedsweep/internal/core"
)

// Multi fans one audit event out to multiple backends.
type Multi struct {
	auditors []core.Auditor
}

// NewMulti creates an auditor that writes to every given backend.
func NewMulti(auditors ...core.Auditor) *Multi {
	return &Multi{auditors: auditors}
}

func (m *Multi) Record(ctx context.Context, evt core.AuditEvent) {
	for _, a := range m.auditors {
		a.Record(ctx, evt)
	}
}

// Ensure Multi implements core.Auditor
var _ core.Auditor = (*Multi)(nil)
