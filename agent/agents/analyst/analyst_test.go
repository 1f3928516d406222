package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
)

type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) Invoke(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(step)
		return t
	}
}

func researcherSpec() contractx.AgentSpec {
	return contractx.AgentSpec{
		Role:      contractx.RoleCompanyResearcher,
		Name:      "Company Researcher",
		Goal:      "Gather comprehensive company information",
		Backstory: "Expert financial researcher",
	}
}

func TestExecuteSuccessRecordsOneEntry(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	model := &fakeModel{reply: "Acme Co makes anvils."}
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	a := New(researcherSpec(), model, store, WithClock(steppingClock(start, 1500*time.Millisecond)))

	out, rec := a.Execute(context.Background(), "Research company background for Acme Co", "Company: Acme Co")
	if out != "Acme Co makes anvils." {
		t.Fatalf("Execute() output = %q", out)
	}
	if rec.Failed() {
		t.Fatalf("unexpected errors: %#v", rec.Errors)
	}
	if rec.Agent != "Company Researcher" || rec.Role != contractx.RoleCompanyResearcher {
		t.Fatalf("unexpected identity: %#v", rec)
	}
	if !rec.Timestamp.Equal(start) {
		t.Fatalf("Timestamp = %v, want start time", rec.Timestamp)
	}
	if rec.ExecutionTime != 1.5 {
		t.Fatalf("ExecutionTime = %v, want 1.5", rec.ExecutionTime)
	}
	if rec.Errors == nil {
		t.Fatal("Errors should be an empty list, not nil")
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("store has %d records, want 1", len(records))
	}
	if records[0].Output != out || records[0].InputContext != "Company: Acme Co" {
		t.Fatalf("unexpected stored record: %#v", records[0])
	}
}

func TestExecuteFailureIsCaptured(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	model := &fakeModel{err: errors.New("connection refused")}
	a := New(researcherSpec(), model, store)

	out, rec := a.Execute(context.Background(), "Research company background", "Company: Acme Co")
	if out != "Error: connection refused" {
		t.Fatalf("Execute() output = %q", out)
	}
	if rec.Output != "Error occurred" {
		t.Fatalf("record output = %q", rec.Output)
	}
	if len(rec.Errors) != 1 || rec.Errors[0] != "connection refused" {
		t.Fatalf("record errors = %#v", rec.Errors)
	}
	if len(store.Records()) != 1 {
		t.Fatalf("failed call should still append exactly one record, got %d", len(store.Records()))
	}
}

func TestExecuteEmptyTaskIsValidationFailure(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	model := &fakeModel{reply: "unused"}
	a := New(researcherSpec(), model, store)

	out, rec := a.Execute(context.Background(), "   ", "")
	if !strings.HasPrefix(out, "Error: ") {
		t.Fatalf("Execute() output = %q, want error string", out)
	}
	if !rec.Failed() || !strings.Contains(rec.Errors[0], contractx.ErrValidation.Error()) {
		t.Fatalf("record errors = %#v", rec.Errors)
	}
	if len(model.prompts) != 0 {
		t.Fatal("model should not be called for an empty task")
	}
	if len(store.Records()) != 1 {
		t.Fatal("validation failure should append one record")
	}
}

func TestExecuteTruncatesRecordFieldsOnly(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 600)
	store := statex.NewContextStore()
	model := &fakeModel{reply: long}
	a := New(researcherSpec(), model, store)

	out, rec := a.Execute(context.Background(), long, long)
	if out != long {
		t.Fatal("caller should receive the full output")
	}
	if got := len([]rune(rec.Task)); got != 100 {
		t.Fatalf("task runes = %d, want 100", got)
	}
	if got := len([]rune(rec.InputContext)); got != 200 {
		t.Fatalf("input context runes = %d, want 200", got)
	}
	if got := len([]rune(rec.Output)); got != 500 {
		t.Fatalf("output runes = %d, want 500", got)
	}
}

func TestExecutePromptCarriesSnapshot(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	model := &fakeModel{reply: "ok"}
	a := New(researcherSpec(), model, store)

	a.Execute(context.Background(), "first task", "")
	store.Store(statex.KeyCompanyName, "Acme Co")
	a.Execute(context.Background(), "second task", "extra")

	if len(model.prompts) != 2 {
		t.Fatalf("model called %d times, want 2", len(model.prompts))
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(model.prompts[0]), &first); err != nil {
		t.Fatalf("prompt is not json: %v", err)
	}
	if err := json.Unmarshal([]byte(model.prompts[1]), &second); err != nil {
		t.Fatalf("prompt is not json: %v", err)
	}

	if first["previous_context"] != "None" {
		t.Fatalf("empty store should render as None, got %#v", first["previous_context"])
	}
	prev, ok := second["previous_context"].(map[string]any)
	if !ok || prev[statex.KeyCompanyName] != "Acme Co" {
		t.Fatalf("previous_context = %#v", second["previous_context"])
	}
	if second["role"] != "Company Researcher" || second["task"] != "second task" || second["additional_context"] != "extra" {
		t.Fatalf("unexpected payload: %#v", second)
	}
}

func TestExecuteIsDeterministicForSameInput(t *testing.T) {
	t.Parallel()

	run := func() (string, string) {
		store := statex.NewContextStore()
		store.Store(statex.KeyCompanyName, "Acme Co")
		store.Store(statex.KeyMarketInfo, "growing")
		model := &fakeModel{reply: "same"}
		out, _ := New(researcherSpec(), model, store).Execute(context.Background(), "task", "ctx")
		return out, model.prompts[0]
	}

	out1, prompt1 := run()
	out2, prompt2 := run()
	if out1 != out2 || prompt1 != prompt2 {
		t.Fatal("identical inputs should produce identical prompts and outputs")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "", max: 5, want: ""},
		{in: "abc", max: 5, want: "abc"},
		{in: "abcdef", max: 3, want: "abc"},
		{in: "héllo", max: 2, want: "hé"},
		{in: "abc", max: 0, want: ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

type fakeRegistry map[contractx.AgentRole]contractx.ModelInvoker

func (r fakeRegistry) ModelFor(role contractx.AgentRole) contractx.ModelInvoker {
	return r[role]
}

func TestNewTeamBindsEveryRole(t *testing.T) {
	t.Parallel()

	roster := contractx.Roster{}
	models := fakeRegistry{}
	for _, role := range contractx.Roles {
		roster[role] = contractx.AgentSpec{Role: role, Name: string(role), Goal: "goal"}
		models[role] = &fakeModel{reply: string(role)}
	}

	store := statex.NewContextStore()
	team, err := NewTeam(roster, models, store)
	if err != nil {
		t.Fatalf("NewTeam() error = %v", err)
	}
	if len(team) != len(contractx.Roles) {
		t.Fatalf("team size = %d", len(team))
	}

	out, _ := team[contractx.RoleRiskAssessor].Execute(context.Background(), "assess", "")
	if out != string(contractx.RoleRiskAssessor) {
		t.Fatalf("risk assessor bound to wrong model, got %q", out)
	}

	delete(roster, contractx.RoleFactChecker)
	if _, err := NewTeam(roster, models, store); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewTeam() with incomplete roster error = %v", err)
	}
}

func TestExecuteWithoutModelFails(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	_, rec := New(researcherSpec(), nil, store).Execute(context.Background(), "task", "")
	if !rec.Failed() || !strings.Contains(rec.Errors[0], contractx.ErrModelInvoke.Error()) {
		t.Fatalf("record errors = %#v", rec.Errors)
	}
}

type panickingModel struct{}

func (panickingModel) Invoke(context.Context, string) (string, error) {
	panic("nil response body")
}

func TestExecuteRecoversModelPanic(t *testing.T) {
	t.Parallel()

	store := statex.NewContextStore()
	out, rec := New(researcherSpec(), panickingModel{}, store).Execute(context.Background(), "task", "")

	if !strings.HasPrefix(out, "Error: ") || !strings.Contains(out, "nil response body") {
		t.Fatalf("Execute() output = %q", out)
	}
	if !rec.Failed() || !strings.Contains(rec.Errors[0], contractx.ErrModelInvoke.Error()) {
		t.Fatalf("record errors = %#v", rec.Errors)
	}
	if len(store.Records()) != 1 {
		t.Fatalf("store has %d records, want 1", len(store.Records()))
	}
}
