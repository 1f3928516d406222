package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
)

const (
	maxTaskRunes    = 100
	maxContextRunes = 200
	maxOutputRunes  = 500

	failedOutput = "Error occurred"
)

var _ contractx.Agent = (*Analyst)(nil)

// Analyst runs one role of the research team against a run's ContextStore.
type Analyst struct {
	spec  contractx.AgentSpec
	model contractx.ModelInvoker
	store *statex.ContextStore
	now   func() time.Time
}

type Option func(*Analyst)

// WithClock replaces time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(a *Analyst) {
		if now != nil {
			a.now = now
		}
	}
}

func New(spec contractx.AgentSpec, model contractx.ModelInvoker, store *statex.ContextStore, opts ...Option) *Analyst {
	a := &Analyst{
		spec:  spec,
		model: model,
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyst) Spec() contractx.AgentSpec {
	return a.spec
}

// Execute never returns an error. A failed model call is reported through
// the record and an "Error: ..." string for the caller.
func (a *Analyst) Execute(ctx context.Context, task string, extraContext string) (string, contractx.ExecutionRecord) {
	started := a.now()
	logger := log.With().
		Str("role", string(a.spec.Role)).
		Str("agent", a.spec.Name).
		Logger()

	logger.Info().Str("task", truncate(task, 50)).Msg("starting task")

	output, err := a.run(ctx, task, extraContext)
	elapsed := a.now().Sub(started).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	rec := contractx.ExecutionRecord{
		Timestamp:     started.UTC(),
		Role:          a.spec.Role,
		Agent:         a.spec.Name,
		Task:          truncate(task, maxTaskRunes),
		InputContext:  truncate(extraContext, maxContextRunes),
		ExecutionTime: elapsed,
		Errors:        []string{},
	}

	if err != nil {
		rec.Output = failedOutput
		rec.Errors = []string{err.Error()}
		a.append(rec)
		logger.Error().Err(err).Float64("execution_time", elapsed).Msg("task failed")
		return "Error: " + err.Error(), rec.Clone()
	}

	rec.Output = truncate(output, maxOutputRunes)
	a.append(rec)
	logger.Info().Float64("execution_time", elapsed).Msg("task completed")
	return output, rec.Clone()
}

func (a *Analyst) run(ctx context.Context, task string, extraContext string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: model panicked: %v", contractx.ErrModelInvoke, r)
		}
	}()

	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("%w: task description is empty", contractx.ErrValidation)
	}
	if a.model == nil {
		return "", fmt.Errorf("%w: no model bound for role=%s", contractx.ErrModelInvoke, a.spec.Role)
	}

	prompt, err := a.buildPrompt(task, extraContext)
	if err != nil {
		return "", err
	}
	return a.model.Invoke(ctx, prompt)
}

func (a *Analyst) buildPrompt(task string, extraContext string) (string, error) {
	var previous any = "None"
	if a.store != nil {
		if snap := a.store.Snapshot(); len(snap) > 0 {
			previous = snap
		}
	}

	payload := map[string]any{
		"role":               a.spec.Name,
		"goal":               a.spec.Goal,
		"backstory":          a.spec.Backstory,
		"task":               task,
		"previous_context":   previous,
		"additional_context": extraContext,
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal prompt payload: %v", contractx.ErrValidation, err)
	}
	return string(raw), nil
}

func (a *Analyst) append(rec contractx.ExecutionRecord) {
	if a.store == nil {
		return
	}
	a.store.AppendRecord(rec)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := 0
	for i := range s {
		if runes == max {
			return s[:i]
		}
		runes++
	}
	return s
}
