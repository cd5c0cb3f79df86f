package provider

import (
	"context"
	"testing"

	"timeboard/tempo"
	"timeboard/toggl"
)

func TestRegistry_SyncAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	failing := NewToggl(&fakeTogglClient{err: &toggl.APIError{StatusCode: 502, Body: "bad gateway"}}, Options{Store: store})
	working := NewTempo(&fakeTempoClient{worklogs: []tempo.Worklog{
		{TempoWorklogID: 1, Issue: tempo.Issue{ID: 10, Key: "PROJ-1"}, TimeSpentSeconds: 3600, StartDate: "2026-03-02"},
	}}, Options{Store: store})

	registry, err := NewRegistry(failing, working)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	outcomes := registry.SyncAll(context.Background(), SyncOptions{})
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Name != "toggl" || outcomes[0].Err == nil {
		t.Fatalf("expected toggl failure, got %+v", outcomes[0])
	}
	if outcomes[1].Name != "tempo" || outcomes[1].Err != nil || outcomes[1].Result.Count != 1 {
		t.Fatalf("expected tempo success, got %+v", outcomes[1])
	}
}

func TestRegistry_SyncAllSkipsUnconfigured(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(NewToggl(nil, Options{}), NewTempo(nil, Options{}))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if outcomes := registry.SyncAll(context.Background(), SyncOptions{}); len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %+v", outcomes)
	}
}

func TestRegistry_GetAndRegister(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(NewToggl(nil, Options{}))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, ok := registry.Get(" Toggl "); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if _, ok := registry.Get("harvest"); ok {
		t.Fatalf("unexpected provider")
	}
	if err := registry.Register(NewToggl(nil, Options{})); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(NewTempo(nil, Options{})); err != nil {
		t.Fatalf("register tempo: %v", err)
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "toggl" || names[1] != "tempo" {
		t.Fatalf("unexpected names %v", names)
	}
	if all := registry.All(); len(all) != 2 {
		t.Fatalf("expected 2 providers")
	}
}
