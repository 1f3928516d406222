package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
)

const defaultResearchWorkers = 2

func companyResearchTask(company string) string {
	return fmt.Sprintf("Research company background, products, business model for %s", company)
}

func marketAnalysisTask(company string) string {
	return fmt.Sprintf("Analyze market trends, competitors, and industry position for %s", company)
}

// Research runs company research and market analysis concurrently and
// waits for both before storing their outputs.
func Research(ctx context.Context, in *GraphState, workers int) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	researcher, err := agentFor(in, contractx.RoleCompanyResearcher)
	if err != nil {
		return nil, err
	}
	analyst, err := agentFor(in, contractx.RoleMarketAnalyst)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = defaultResearchWorkers
	}

	enterStage(in, contractx.StageResearching)
	initial := "Company: " + in.Company

	var companyInfo, marketInfo string
	jobs := []struct {
		agent contractx.Agent
		task  string
		out   *string
	}{
		{agent: researcher, task: companyResearchTask(in.Company), out: &companyInfo},
		{agent: analyst, task: marketAnalysisTask(in.Company), out: &marketInfo},
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, job := range jobs {
		job := job
		p.Go(func() {
			*job.out, _ = job.agent.Execute(ctx, job.task, initial)
		})
	}
	p.Wait()

	in.CompanyInfo = companyInfo
	in.MarketInfo = marketInfo
	in.ParallelExecutions += len(jobs)
	in.Store.Store(statex.KeyCompanyInfo, companyInfo)
	in.Store.Store(statex.KeyMarketInfo, marketInfo)

	log.Info().Str("run_id", in.RunID).Int("parallel", len(jobs)).Msg("parallel research completed")
	return in, nil
}
