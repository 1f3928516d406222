package orchestratornode

import (
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	toolx "github.com/tanpawarit/fintech-research-agents/agent/tool"
)

// Aggregate builds the WorkflowResult from the final store and the full
// execution log.
func Aggregate(in *GraphState, nowFn func() time.Time) (*contractx.WorkflowResult, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	records := in.Store.Records()
	logs := make([]contractx.ExecutionSummary, 0, len(records))
	succeeded := make(map[contractx.AgentRole]bool, len(records))
	var total float64
	degraded := false
	for _, rec := range records {
		logs = append(logs, rec.Summary())
		total += rec.ExecutionTime
		if rec.Failed() {
			degraded = true
			continue
		}
		succeeded[rec.Role] = true
	}

	sections := make([]contractx.Section, 0, len(contractx.Roles))
	for _, role := range contractx.Roles {
		if succeeded[role] {
			sections = append(sections, contractx.SectionFor(role))
		}
	}

	check := toolx.CheckReport(in.Report)
	in.useTool(toolx.ToolReportSchemaCheck)
	enterStage(in, contractx.StageDone)

	res := &contractx.WorkflowResult{
		RunID:         in.RunID,
		CompanyName:   in.Company,
		Timestamp:     nowFn().UTC(),
		Report:        in.Report,
		Validation:    in.Validation,
		ExecutionLogs: logs,
		Summary: contractx.ContextSummary{
			SectionsCompleted:  sections,
			ToolsUsed:          append([]string{}, in.ToolsUsed...),
			ParallelExecutions: in.ParallelExecutions,
			TotalExecutionTime: total,
			FinancialHealth:    in.Health,
			Degraded:           degraded,
		},
		ReportCheck: check,
	}

	log.Info().
		Str("run_id", in.RunID).
		Int("records", len(logs)).
		Int("context_keys", in.Store.Len()).
		Float64("total_execution_time", total).
		Bool("degraded", degraded).
		Str("report_format", string(check.Format)).
		Msg("research workflow completed")
	return res, nil
}
