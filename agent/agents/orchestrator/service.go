package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	analystx "github.com/tanpawarit/fintech-research-agents/agent/agents/analyst"
	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	nodex "github.com/tanpawarit/fintech-research-agents/agent/nodes"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
)

var ErrInvalidCompany = nodex.ErrInvalidCompany

type Config struct {
	// Workers bounds the research fan-out pool.
	Workers int `envconfig:"WORKERS" split_words:"true" default:"2"`
}

type Orchestrator struct {
	models contractx.ModelRegistry
	roster contractx.Roster

	graphRunner compose.Runnable[nodex.GraphInput, *contractx.WorkflowResult]

	workers int
	now     func() time.Time
}

func New(models contractx.ModelRegistry, roster contractx.Roster, cfg Config) (*Orchestrator, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	o := &Orchestrator{
		models:  models,
		roster:  roster,
		workers: workers,
		now:     time.Now,
	}

	graphRunner, err := o.compileResearchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

type callerCtxKey struct{}

// RunWorkflow researches one company end to end. Agent failures degrade the
// result instead of failing the run; only an empty company name is rejected.
// Cancelling ctx reaches the model calls only, the graph itself always runs
// to the aggregate node.
func (o *Orchestrator) RunWorkflow(ctx context.Context, company string) (*contractx.WorkflowResult, error) {
	graphCtx := context.WithValue(context.WithoutCancel(ctx), callerCtxKey{}, ctx)
	return o.graphRunner.Invoke(graphCtx, nodex.GraphInput{
		Company: company,
	})
}

// modelContext returns the caller's context carried by the detached graph context.
func modelContext(ctx context.Context) context.Context {
	if caller, ok := ctx.Value(callerCtxKey{}).(context.Context); ok {
		return caller
	}
	return ctx
}

func (o *Orchestrator) newTeam(store *statex.ContextStore) (map[contractx.AgentRole]contractx.Agent, error) {
	return analystx.NewTeam(o.roster, o.models, store, analystx.WithClock(o.clock))
}

func (o *Orchestrator) clock() time.Time {
	return o.now()
}
