package core

import (
	"context"
	"errors"
	"time"
)

type Mode string

const (
	ModeDryRun  Mode = "dry-run"
	ModeExecute Mode = "execute"
)

// Action is the retention verdict for a single torrent.
type Action string

const (
	ActionTooYoung Action = "too_young"
	ActionKeep     Action = "keep"
	ActionRemove   Action = "remove"
)

// Torrent is one entry of the point-in-time snapshot returned by the
// torrent service. It is read-only for the duration of a run.
type Torrent struct {
	Hash    string // stable opaque identifier
	Name    string // display only, may be empty
	AddedOn int64  // epoch seconds; 0 means unknown, i.e. maximally old
	Ratio   *float64
	Size    int64 // bytes on disk, reporting only
}

// Decision is the evaluator output for one torrent.
type Decision struct {
	Action         Action
	Reason         string
	AgeSeconds     int64
	AgeDays        int64
	ProjectedRatio float64
	HasProjection  bool
}

type PlanItem struct {
	Torrent  Torrent
	Decision Decision
}

// RunSummary aggregates one full pass over a snapshot.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Mode           Mode      `json:"mode"`
	SnapshotSize   int       `json:"snapshot_size"`
	TooYoung       int       `json:"too_young"`
	Kept           int       `json:"kept"`
	MarkedRemove   int       `json:"marked_remove"`
	Removed        int       `json:"removed"`
	BytesReclaimed int64     `json:"bytes_reclaimed"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

var (
	ErrAuthFailed  = errors.New("authentication failed")
	ErrBadEndpoint = errors.New("invalid endpoint")
)

// Policy evaluates one torrent against the retention rules.
// Implementations must be pure: same inputs, same Decision, no I/O.
type Policy interface {
	Evaluate(ctx context.Context, t Torrent, env EnvSnapshot) Decision
}

// TorrentService is the external collaborator boundary.
// Login must succeed before List or Remove.
type TorrentService interface {
	Login(ctx context.Context) error
	List(ctx context.Context) ([]Torrent, error)
	Remove(ctx context.Context, hashes []string, deleteFiles bool) error
}

type Planner interface {
	BuildPlan(ctx context.Context, snapshot []Torrent, pol Policy, env EnvSnapshot) ([]PlanItem, error)
}

type Auditor interface {
	Record(ctx context.Context, evt AuditEvent)
}

type AuditEvent struct {
	Time   time.Time
	Level  string
	Action string
	Hash   string
	Name   string
	Fields map[string]any
	Err    error
}

// Metrics defines the interface for collecting operational metrics.
type Metrics interface {
	SetSnapshotSize(n int)
	IncDecision(action Action)
	AddRemoved(n int)
	AddBytesReclaimed(bytes int64)
	IncRemovalErrors(op string)
	ObserveRunDuration(d time.Duration)
	SetLastRun(t time.Time)
}

// EnvSnapshot carries the reference clock for a run. It is captured once
// per run and reused for every torrent, so every age is computed against
// the same instant and decisions are reproducible within a run.
type EnvSnapshot struct {
	Now time.Time
}
