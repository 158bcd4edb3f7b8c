package auditor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/torrkit/seedsweep/internal/core"
)

func TestJSONL_RecordsOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	a, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("NewJSONL: %v", err)
	}

	ctx := context.Background()
	a.Record(ctx, core.AuditEvent{
		Time:   time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		Level:  "info",
		Action: core.AuditActionDecision,
		Hash:   "h1",
		Name:   "some.iso",
		Fields: map[string]any{"verdict": "remove", "projected_ratio": 1.825},
	})
	a.Record(ctx, core.AuditEvent{
		Level:  "error",
		Action: core.AuditActionRemove,
		Hash:   "h1",
		Err:    errors.New("webui: 500"),
	})

	if err := a.Err(); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	if lines[0]["action"] != "decision" || lines[0]["hash"] != "h1" {
		t.Errorf("first line: %v", lines[0])
	}
	fields, _ := lines[0]["fields"].(map[string]any)
	if fields["verdict"] != "remove" {
		t.Errorf("fields: %v", fields)
	}

	if lines[1]["err"] != "webui: 500" {
		t.Errorf("second line should carry the error string: %v", lines[1])
	}
	if _, ok := lines[1]["time"]; !ok {
		t.Error("zero event time should be filled in")
	}
}

func TestJSONL_RecordAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	a, err := NewJSONL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	// must not panic or surface an error
	a.Record(context.Background(), core.AuditEvent{Action: "decision"})
	if err := a.Err(); err != nil {
		t.Fatalf("unexpected error after close: %v", err)
	}
}

func TestJSONL_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	for i := 0; i < 2; i++ {
		a, err := NewJSONL(path)
		if err != nil {
			t.Fatal(err)
		}
		a.Record(context.Background(), core.AuditEvent{Action: "decision", Hash: "h"})
		if err := a.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, b := range data {
		if b == '\n' {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("got %d lines, want 2", count)
	}
}
