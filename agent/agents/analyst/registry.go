package analyst

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	llmx "github.com/tanpawarit/fintech-research-agents/agent/llm"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
	openrouterx "github.com/tanpawarit/fintech-research-agents/pkg/openrouter"
)

type registryImpl struct {
	models map[contractx.AgentRole]contractx.ModelInvoker
}

func (r *registryImpl) ModelFor(role contractx.AgentRole) contractx.ModelInvoker {
	return r.models[role]
}

// NewModelRegistry builds one model invoker per role, honoring the per-role
// model and temperature overrides of cfg.
func NewModelRegistry(ctx context.Context, cfg llmx.Config, systemPrompt string) (contractx.ModelRegistry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	models := make(map[contractx.AgentRole]contractx.ModelInvoker, len(contractx.Roles))
	for _, role := range contractx.Roles {
		orCfg := cfg.OpenRouterFor(role)

		var (
			inv contractx.ModelInvoker
			err error
		)
		switch cfg.SelectedBackend() {
		case llmx.BackendOpenAI:
			inv, err = newCompletionModel(orCfg, systemPrompt)
		default:
			inv, err = newChatModel(ctx, orCfg, role, systemPrompt)
		}
		if err != nil {
			return nil, fmt.Errorf("create model for role=%s: %w", role, err)
		}
		models[role] = inv
	}

	return &registryImpl{models: models}, nil
}

func newChatModel(
	ctx context.Context,
	cfg openrouterx.Config,
	role contractx.AgentRole,
	systemPrompt string,
) (contractx.ModelInvoker, error) {
	chatModel, err := cfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create chat model: %v", contractx.ErrModelInvoke, err)
	}
	return llmx.NewChatModelInvoker(ctx, chatModel, systemPrompt, "analyst."+string(role))
}

func newCompletionModel(cfg openrouterx.Config, systemPrompt string) (contractx.ModelInvoker, error) {
	client := openrouterx.NewClient(cfg)
	if client == nil {
		return nil, fmt.Errorf("%w: openai client needs an api key", contractx.ErrValidation)
	}
	return openrouterx.NewCompletionInvoker(client, cfg, systemPrompt)
}

// NewTeam binds every role of roster to its model and to the run's store.
func NewTeam(
	roster contractx.Roster,
	models contractx.ModelRegistry,
	store *statex.ContextStore,
	opts ...Option,
) (map[contractx.AgentRole]contractx.Agent, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	if models == nil {
		return nil, fmt.Errorf("%w: model registry is nil", contractx.ErrValidation)
	}

	team := make(map[contractx.AgentRole]contractx.Agent, len(contractx.Roles))
	for _, role := range contractx.Roles {
		team[role] = New(roster[role], models.ModelFor(role), store, opts...)
	}
	return team, nil
}
