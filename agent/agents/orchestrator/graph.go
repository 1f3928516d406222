package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	nodex "github.com/tanpawarit/fintech-research-agents/agent/nodes"
)

func (o *Orchestrator) compileResearchGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, *contractx.WorkflowResult], error) {
	graph := compose.NewGraph[nodex.GraphInput, *contractx.WorkflowResult]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.clock)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("prepare_run",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PrepareRun(in, o.newTeam)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node prepare_run: %w", err)
	}

	if err := graph.AddLambdaNode("research",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Research(modelContext(ctx), in, o.workers)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node research: %w", err)
	}

	if err := graph.AddLambdaNode("calculate_metrics",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CalculateMetrics(modelContext(ctx), in, o.clock)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node calculate_metrics: %w", err)
	}

	if err := graph.AddLambdaNode("assess_risk",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AssessRisk(modelContext(ctx), in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node assess_risk: %w", err)
	}

	if err := graph.AddLambdaNode("compile_report",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CompileReport(modelContext(ctx), in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node compile_report: %w", err)
	}

	if err := graph.AddLambdaNode("validate_report",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ValidateReport(modelContext(ctx), in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_report: %w", err)
	}

	if err := graph.AddLambdaNode("aggregate_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*contractx.WorkflowResult, error) {
			return nodex.Aggregate(in, o.clock)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node aggregate_result: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "prepare_run"},
		{"prepare_run", "research"},
		{"research", "calculate_metrics"},
		{"calculate_metrics", "assess_risk"},
		{"assess_risk", "compile_report"},
		{"compile_report", "validate_report"},
		{"validate_report", "aggregate_result"},
		{"aggregate_result", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.research_company"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
