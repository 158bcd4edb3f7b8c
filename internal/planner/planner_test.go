package planner

import (
	"context"
	"testing"
	"time"

	"github.com/torrkit/seedsweep/internal/core"
	"github.com/torrkit/seedsweep/internal/policy"
)

func ratio(v float64) *float64 { return &v }

func TestBuildPlan_EvaluatesEveryTorrent(t *testing.T) {
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	env := core.EnvSnapshot{Now: now}
	pol := policy.NewRatioPolicy(100, 2.0)

	snapshot := []core.Torrent{
		{Hash: "h1", Name: "old-and-slow", AddedOn: now.Unix() - 200*86400, Ratio: ratio(1.0)},
		{Hash: "h2", Name: "young", AddedOn: now.Unix() - 10*86400, Ratio: ratio(0.1)},
		{Hash: "h3", Name: "no-ratio", AddedOn: now.Unix() - 365*86400},
	}

	plan, err := NewSimple().BuildPlan(context.Background(), snapshot, pol, env)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan) != len(snapshot) {
		t.Fatalf("plan has %d items, want %d", len(plan), len(snapshot))
	}

	byHash := map[string]core.Action{}
	for _, it := range plan {
		byHash[it.Torrent.Hash] = it.Decision.Action
	}
	if byHash["h1"] != core.ActionRemove {
		t.Errorf("h1 = %s, want remove", byHash["h1"])
	}
	if byHash["h2"] != core.ActionTooYoung {
		t.Errorf("h2 = %s, want too_young", byHash["h2"])
	}
	if byHash["h3"] != core.ActionKeep {
		t.Errorf("h3 = %s, want keep", byHash["h3"])
	}
}

func TestBuildPlan_OrderIsDeterministic(t *testing.T) {
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	env := core.EnvSnapshot{Now: now}
	pol := policy.NewRatioPolicy(100, 2.0)

	forward := []core.Torrent{
		{Hash: "h1", Name: "a", AddedOn: now.Unix() - 200*86400, Ratio: ratio(1.0)},
		{Hash: "h2", Name: "b", AddedOn: now.Unix() - 200*86400, Ratio: ratio(5.0)},
		{Hash: "h3", Name: "c", AddedOn: now.Unix() - 200*86400, Ratio: ratio(0.5)},
	}
	reversed := []core.Torrent{forward[2], forward[1], forward[0]}

	p1, err := NewSimple().BuildPlan(context.Background(), forward, pol, env)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := NewSimple().BuildPlan(context.Background(), reversed, pol, env)
	if err != nil {
		t.Fatal(err)
	}

	for i := range p1 {
		if p1[i].Torrent.Hash != p2[i].Torrent.Hash {
			t.Fatalf("item %d differs: %s vs %s", i, p1[i].Torrent.Hash, p2[i].Torrent.Hash)
		}
		if p1[i].Decision != p2[i].Decision {
			t.Fatalf("decision for %s differs across input orders", p1[i].Torrent.Hash)
		}
	}

	// remove candidates sort ahead of keepers
	if p1[0].Decision.Action != core.ActionRemove {
		t.Fatalf("first item action = %s, want remove", p1[0].Decision.Action)
	}
}

func TestBuildPlan_SingleReferenceClock(t *testing.T) {
	// The planner must judge every torrent against env.Now, not wall time.
	// A snapshot evaluated with a reference clock a year ahead gets judged
	// as a year older; if the planner sampled time.Now itself the torrent
	// below would be too young.
	now := time.Now()
	env := core.EnvSnapshot{Now: now.Add(365 * 24 * time.Hour)}
	pol := policy.NewRatioPolicy(100, 2.0)

	snapshot := []core.Torrent{{Hash: "h1", AddedOn: now.Unix(), Ratio: ratio(0.1)}}

	plan, err := NewSimple().BuildPlan(context.Background(), snapshot, pol, env)
	if err != nil {
		t.Fatal(err)
	}
	if plan[0].Decision.Action != core.ActionRemove {
		t.Fatalf("action = %s, want remove when judged a year later", plan[0].Decision.Action)
	}
}

func TestBuildPlan_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshot := []core.Torrent{{Hash: "h1"}}
	_, err := NewSimple().BuildPlan(ctx, snapshot, policy.NewRatioPolicy(0, 1), core.EnvSnapshot{Now: time.Now()})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestBuildPlan_EmptySnapshot(t *testing.T) {
	plan, err := NewSimple().BuildPlan(context.Background(), nil, policy.NewRatioPolicy(0, 1), core.EnvSnapshot{Now: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %d items", len(plan))
	}
}
