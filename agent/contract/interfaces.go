package contract

import "context"

// ModelInvoker is the narrow boundary to the language model provider.
// Implementations wrap every failure with ErrModelInvoke.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

type ModelRegistry interface {
	ModelFor(role AgentRole) ModelInvoker
}

// Agent runs one role against the shared run context. Execute never fails;
// failures are reported through the returned record.
type Agent interface {
	Spec() AgentSpec
	Execute(ctx context.Context, task string, extraContext string) (string, ExecutionRecord)
}

type ResultStore interface {
	Save(ctx context.Context, res *WorkflowResult) error
	Load(ctx context.Context, runID string) (*WorkflowResult, error)
	Delete(ctx context.Context, runID string) error
}
