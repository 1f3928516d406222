package orchestratornode

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
)

// TeamFactory binds the six role agents to a run's store.
type TeamFactory func(store *statex.ContextStore) (map[contractx.AgentRole]contractx.Agent, error)

func PrepareRun(in *GraphState, newTeam TeamFactory) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if newTeam == nil {
		return nil, fmt.Errorf("%w: team factory is nil", contractx.ErrValidation)
	}

	store := statex.NewContextStore()
	team, err := newTeam(store)
	if err != nil {
		return nil, err
	}

	in.RunID = uuid.NewString()
	in.Store = store
	in.Team = team

	store.Store(statex.KeyCompanyName, in.Company)
	store.Store(statex.KeyWorkflowStart, in.StartedAt.Format(time.RFC3339Nano))

	log.Info().
		Str("run_id", in.RunID).
		Str("company", in.Company).
		Msg("starting research workflow")
	return in, nil
}

func enterStage(in *GraphState, stage contractx.Stage) {
	log.Info().
		Str("run_id", in.RunID).
		Str("from", string(in.Stage)).
		Str("to", string(stage)).
		Msg("workflow stage")
	in.Stage = stage
}
