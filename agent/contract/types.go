package contract

import (
	"fmt"
	"strings"
	"time"
)

type AgentRole string

const (
	RoleCompanyResearcher   AgentRole = "company_researcher"
	RoleMarketAnalyst       AgentRole = "market_analyst"
	RoleFinancialCalculator AgentRole = "financial_calculator"
	RoleRiskAssessor        AgentRole = "risk_assessor"
	RoleReportCompiler      AgentRole = "report_compiler"
	RoleFactChecker         AgentRole = "fact_checker"
)

// Roles lists every role in pipeline order.
var Roles = []AgentRole{
	RoleCompanyResearcher,
	RoleMarketAnalyst,
	RoleFinancialCalculator,
	RoleRiskAssessor,
	RoleReportCompiler,
	RoleFactChecker,
}

type Stage string

const (
	StageInit          Stage = "init"
	StageResearching   Stage = "researching"
	StageCalculating   Stage = "calculating"
	StageAssessingRisk Stage = "assessing_risk"
	StageCompiling     Stage = "compiling"
	StageValidating    Stage = "validating"
	StageDone          Stage = "done"
)

// Section names one completed contribution in the final summary.
type Section string

const (
	SectionCompanyResearch      Section = "company_research"
	SectionMarketAnalysis       Section = "market_analysis"
	SectionFinancialCalculation Section = "financial_calculation"
	SectionRiskAssessment       Section = "risk_assessment"
	SectionReportCompilation    Section = "report_compilation"
	SectionValidation           Section = "validation"
)

// SectionFor maps a role to the section it produces.
func SectionFor(role AgentRole) Section {
	switch role {
	case RoleCompanyResearcher:
		return SectionCompanyResearch
	case RoleMarketAnalyst:
		return SectionMarketAnalysis
	case RoleFinancialCalculator:
		return SectionFinancialCalculation
	case RoleRiskAssessor:
		return SectionRiskAssessment
	case RoleReportCompiler:
		return SectionReportCompilation
	case RoleFactChecker:
		return SectionValidation
	default:
		return Section(role)
	}
}

type AgentSpec struct {
	Role      AgentRole `json:"role" yaml:"role"`
	Name      string    `json:"name" yaml:"name"`
	Goal      string    `json:"goal" yaml:"goal"`
	Backstory string    `json:"backstory" yaml:"backstory"`
}

func (s AgentSpec) Validate() error {
	if strings.TrimSpace(string(s.Role)) == "" {
		return fmt.Errorf("%w: agent role is required", ErrValidation)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: agent name is required for role=%s", ErrValidation, s.Role)
	}
	if strings.TrimSpace(s.Goal) == "" {
		return fmt.Errorf("%w: agent goal is required for role=%s", ErrValidation, s.Role)
	}
	return nil
}

// Roster holds one AgentSpec per role.
type Roster map[AgentRole]AgentSpec

func (r Roster) Validate() error {
	for _, role := range Roles {
		spec, ok := r[role]
		if !ok {
			return fmt.Errorf("%w: roster is missing role=%s", ErrValidation, role)
		}
		if spec.Role != role {
			return fmt.Errorf("%w: roster entry %s declares role=%s", ErrValidation, role, spec.Role)
		}
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExecutionRecord is the audit entry for one agent invocation.
type ExecutionRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Role          AgentRole `json:"role"`
	Agent         string    `json:"agent"`
	Task          string    `json:"task"`
	InputContext  string    `json:"input_context"`
	Output        string    `json:"output"`
	ExecutionTime float64   `json:"execution_time"`
	Errors        []string  `json:"errors"`
}

func (r ExecutionRecord) Failed() bool {
	return len(r.Errors) > 0
}

// Clone returns a copy that shares no slices with r.
func (r ExecutionRecord) Clone() ExecutionRecord {
	out := r
	out.Errors = append([]string{}, r.Errors...)
	return out
}

func (r ExecutionRecord) Summary() ExecutionSummary {
	return ExecutionSummary{
		Timestamp:     r.Timestamp,
		Role:          r.Role,
		Agent:         r.Agent,
		Task:          r.Task,
		ExecutionTime: r.ExecutionTime,
		Errors:        append([]string{}, r.Errors...),
	}
}

type ExecutionSummary struct {
	Timestamp     time.Time `json:"timestamp"`
	Role          AgentRole `json:"role"`
	Agent         string    `json:"agent"`
	Task          string    `json:"task"`
	ExecutionTime float64   `json:"execution_time"`
	Errors        []string  `json:"errors"`
}

type ContextSummary struct {
	SectionsCompleted  []Section `json:"sections_completed"`
	ToolsUsed          []string  `json:"tools_used"`
	ParallelExecutions int       `json:"parallel_executions"`
	TotalExecutionTime float64   `json:"total_execution_time"`
	FinancialHealth    string    `json:"financial_health,omitempty"`
	Degraded           bool      `json:"degraded"`
}

type ReportFormat string

const (
	ReportFormatJSON     ReportFormat = "json"
	ReportFormatMarkdown ReportFormat = "markdown"
	ReportFormatText     ReportFormat = "text"
	ReportFormatEmpty    ReportFormat = "empty"
)

// ReportCheck is the deterministic structure check of the compiled report.
type ReportCheck struct {
	Format          ReportFormat `json:"format"`
	Complete        bool         `json:"complete"`
	MissingSections []string     `json:"missing_sections,omitempty"`
	Errors          []string     `json:"errors,omitempty"`
}

type WorkflowResult struct {
	RunID         string             `json:"run_id"`
	CompanyName   string             `json:"company_name"`
	Timestamp     time.Time          `json:"timestamp"`
	Report        string             `json:"report"`
	Validation    string             `json:"validation"`
	ExecutionLogs []ExecutionSummary `json:"execution_logs"`
	Summary       ContextSummary     `json:"context_summary"`
	ReportCheck   ReportCheck        `json:"report_check"`
}
