package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
	toolx "github.com/tanpawarit/fintech-research-agents/agent/tool"
)

var ErrInvalidCompany = contractx.ErrInvalidCompany

type GraphInput struct {
	Company string
}

// GraphState carries one run through the pipeline. Stage outputs are kept
// as typed fields next to the shared ContextStore.
type GraphState struct {
	RunID     string
	Company   string
	StartedAt time.Time
	Stage     contractx.Stage

	Store *statex.ContextStore
	Team  map[contractx.AgentRole]contractx.Agent

	CompanyInfo      string
	MarketInfo       string
	FinancialMetrics string
	Parsed           toolx.FinancialData
	Health           string
	RiskAssessment   string
	Report           string
	Validation       string

	ParallelExecutions int
	ToolsUsed          []string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	company := strings.TrimSpace(in.Company)
	if company == "" {
		return nil, ErrInvalidCompany
	}

	return &GraphState{
		Company:   company,
		StartedAt: nowFn().UTC(),
		Stage:     contractx.StageInit,
	}, nil
}

func requireState(in *GraphState) error {
	if in == nil {
		return fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Store == nil {
		return fmt.Errorf("%w: context store is not prepared", contractx.ErrValidation)
	}
	return nil
}

func agentFor(in *GraphState, role contractx.AgentRole) (contractx.Agent, error) {
	a, ok := in.Team[role]
	if !ok || a == nil {
		return nil, fmt.Errorf("%w: no agent for role=%s", contractx.ErrValidation, role)
	}
	return a, nil
}

func (s *GraphState) useTool(name string) {
	for _, t := range s.ToolsUsed {
		if t == name {
			return
		}
	}
	s.ToolsUsed = append(s.ToolsUsed, name)
}
