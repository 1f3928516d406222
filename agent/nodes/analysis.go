package orchestratornode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	statex "github.com/tanpawarit/fintech-research-agents/agent/state"
	toolx "github.com/tanpawarit/fintech-research-agents/agent/tool"
)

func financialMetricsTask(company string) string {
	return fmt.Sprintf("Calculate financial metrics for %s", company)
}

func riskAssessmentTask(company string) string {
	return fmt.Sprintf("Assess investment risks for %s", company)
}

func compileReportTask(company string) string {
	return fmt.Sprintf("Compile comprehensive investment report for %s in JSON format with sections: "+
		"executive_summary, company_overview, market_analysis, financial_analysis, risk_assessment, recommendation", company)
}

func validateReportTask(company string) string {
	return fmt.Sprintf("Validate and fact-check the report for %s", company)
}

func researchContext(in *GraphState) string {
	return in.CompanyInfo + "\n\n" + in.MarketInfo
}

// CalculateMetrics runs the financial calculator and the deterministic parser
// over its output.
func CalculateMetrics(ctx context.Context, in *GraphState, nowFn func() time.Time) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	calculator, err := agentFor(in, contractx.RoleFinancialCalculator)
	if err != nil {
		return nil, err
	}

	enterStage(in, contractx.StageCalculating)
	in.FinancialMetrics, _ = calculator.Execute(ctx, financialMetricsTask(in.Company), researchContext(in))
	in.Store.Store(statex.KeyFinancialMetrics, in.FinancialMetrics)

	in.Parsed = toolx.ParseFinancialData(in.Company, in.FinancialMetrics, nowFn())
	in.useTool(toolx.ToolFinancialParser)
	in.Store.Store(statex.KeyParsedData, in.Parsed)

	in.Health = toolx.FinancialHealth(in.Parsed.Metrics)
	in.useTool(toolx.ToolHealthCalculator)
	in.Store.Store(statex.KeyFinancialHealth, in.Health)

	log.Debug().Str("run_id", in.RunID).Str("financial_health", in.Health).Msg("parsed financial data")
	return in, nil
}

func AssessRisk(ctx context.Context, in *GraphState) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	assessor, err := agentFor(in, contractx.RoleRiskAssessor)
	if err != nil {
		return nil, err
	}

	enterStage(in, contractx.StageAssessingRisk)
	in.RiskAssessment, _ = assessor.Execute(ctx, riskAssessmentTask(in.Company), researchContext(in))
	in.Store.Store(statex.KeyRiskAssessment, in.RiskAssessment)
	return in, nil
}

// CompileReport hands the whole accumulated context to the report compiler.
func CompileReport(ctx context.Context, in *GraphState) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	compiler, err := agentFor(in, contractx.RoleReportCompiler)
	if err != nil {
		return nil, err
	}

	enterStage(in, contractx.StageCompiling)
	fullContext, err := json.MarshalIndent(in.Store.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal full context: %v", contractx.ErrValidation, err)
	}
	in.Report, _ = compiler.Execute(ctx, compileReportTask(in.Company), string(fullContext))
	in.Store.Store(statex.KeyReport, in.Report)
	return in, nil
}

func ValidateReport(ctx context.Context, in *GraphState) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	checker, err := agentFor(in, contractx.RoleFactChecker)
	if err != nil {
		return nil, err
	}

	enterStage(in, contractx.StageValidating)
	in.Validation, _ = checker.Execute(ctx, validateReportTask(in.Company), in.Report)
	in.Store.Store(statex.KeyValidation, in.Validation)
	return in, nil
}
