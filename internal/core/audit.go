package core

import "time"

// Canonical audit actions
const (
	AuditActionDecision = "decision"
	AuditActionRemove   = "remove"
)

// NewDecisionAuditEvent standardizes the plan-time audit shape: one event
// per torrent evaluated, whatever the verdict.
func NewDecisionAuditEvent(runID string, mode Mode, it PlanItem) AuditEvent {
	evt := AuditEvent{
		Time:   time.Now(),
		Level:  "info",
		Action: AuditActionDecision,
		Hash:   it.Torrent.Hash,
		Name:   it.Torrent.Name,
		Fields: map[string]any{
			"run_id":      runID,
			"mode":        string(mode),
			"verdict":     string(it.Decision.Action),
			"reason":      it.Decision.Reason,
			"age_days":    it.Decision.AgeDays,
			"age_seconds": it.Decision.AgeSeconds,
			"size_bytes":  it.Torrent.Size,
		},
	}
	if it.Torrent.Ratio != nil {
		evt.Fields["ratio"] = *it.Torrent.Ratio
	}
	if it.Decision.HasProjection {
		evt.Fields["projected_ratio"] = it.Decision.ProjectedRatio
	}
	return evt
}

// NewRemovalAuditEvent standardizes the execute-time audit shape: one event
// per torrent in the remove set, recording whether the removal was actually
// issued (execute) or only reported (dry-run), and any service error.
func NewRemovalAuditEvent(runID string, mode Mode, it PlanItem, removed bool, err error) AuditEvent {
	evt := AuditEvent{
		Time:   time.Now(),
		Level:  "info",
		Action: AuditActionRemove,
		Hash:   it.Torrent.Hash,
		Name:   it.Torrent.Name,
		Fields: map[string]any{
			"run_id":          runID,
			"mode":            string(mode),
			"removed":         removed,
			"delete_files":    true,
			"age_days":        it.Decision.AgeDays,
			"projected_ratio": it.Decision.ProjectedRatio,
			"size_bytes":      it.Torrent.Size,
		},
		Err: err,
	}
	if err != nil {
		evt.Level = "error"
	}
	return evt
}
