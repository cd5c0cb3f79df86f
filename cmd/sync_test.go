package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"timeboard/provider"
	"timeboard/worklog"
)

type fakeProvider struct {
	name       string
	configured bool
	result     provider.SyncResult
	err        error
	calls      int
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Source() worklog.Source { return worklog.Source(p.name) }
func (p *fakeProvider) Configured() bool { return p.configured }
func (p *fakeProvider) Validate(context.Context) bool { return p.configured }
func (p *fakeProvider) CachePath() string { return "" }

func (p *fakeProvider) Sync(context.Context, provider.SyncOptions) (provider.SyncResult, error) {
	p.calls++
	return p.result, p.err
}

func newFakeRegistry(t *testing.T, providers ...provider.Provider) *provider.Registry {
	t.Helper()
	registry, err := provider.NewRegistry(providers...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func TestRunSync_NamedProvidersRunInOrder(t *testing.T) {
	togglFake := &fakeProvider{name: "toggl", configured: true, result: provider.SyncResult{Count: 2}}
	tempoFake := &fakeProvider{name: "tempo", err: provider.ErrMissingCredential}
	registry := newFakeRegistry(t, togglFake, tempoFake)

	outcomes, err := runSync(context.Background(), registry, []string{"TEMPO", "toggl"}, provider.SyncOptions{})
	if err != nil {
		t.Fatalf("run sync: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Name != "tempo" || outcomes[1].Name != "toggl" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
	if !errors.Is(outcomes[0].Err, provider.ErrMissingCredential) {
		t.Fatalf("named unconfigured provider must report its error, got %v", outcomes[0].Err)
	}
	if outcomes[1].Result.Count != 2 {
		t.Fatalf("unexpected toggl result %+v", outcomes[1].Result)
	}
}

func TestRunSync_Errors(t *testing.T) {
	registry := newFakeRegistry(t, &fakeProvider{name: "toggl"})

	if _, err := runSync(context.Background(), registry, []string{"harvest"}, provider.SyncOptions{}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := runSync(context.Background(), registry, nil, provider.SyncOptions{}); err == nil {
		t.Fatalf("expected error when nothing is configured")
	}
}

func TestRenderSyncTable(t *testing.T) {
	rendered := renderSyncTable([]provider.Outcome{
		{Name: "toggl", Result: provider.SyncResult{Count: 12, Cached: true, Details: provider.TogglDetails{RunningSkipped: 1}}},
		{Name: "tempo", Err: errors.New("tempo api GET /4/worklogs: status 401")},
	})

	for _, want := range []string{"PROVIDER", "toggl", "12", "yes", "running skipped: 1", "tempo", "failed", "status 401"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected %q in table:\n%s", want, rendered)
		}
	}
}

func TestDescribeDetails(t *testing.T) {
	if got := describeDetails(provider.TempoDetails{IssueKeysResolved: 3, IssueKeysFallback: 1, RowsSkipped: 2}); got != "issue keys resolved: 3, fallback: 1, rows skipped: 2" {
		t.Fatalf("unexpected tempo details %q", got)
	}
	if got := describeDetails(nil); got != "" {
		t.Fatalf("expected empty details, got %q", got)
	}
}
