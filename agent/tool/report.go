package tool

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

// ReportDocument is the JSON shape the report compiler is asked to produce.
// Section bodies may be text or nested objects.
type ReportDocument struct {
	ExecutiveSummary  any `json:"executive_summary"`
	CompanyOverview   any `json:"company_overview"`
	MarketAnalysis    any `json:"market_analysis"`
	FinancialAnalysis any `json:"financial_analysis"`
	RiskAssessment    any `json:"risk_assessment"`
	Recommendation    any `json:"recommendation"`
}

// ReportSections lists the JSON keys in report order.
var ReportSections = []string{
	"executive_summary",
	"company_overview",
	"market_analysis",
	"financial_analysis",
	"risk_assessment",
	"recommendation",
}

var sectionHeadings = map[string]string{
	"executive_summary":  "executive summary",
	"company_overview":   "company overview",
	"market_analysis":    "market analysis",
	"financial_analysis": "financial analysis",
	"risk_assessment":    "risk assessment",
	"recommendation":     "recommendation",
}

var (
	fencePattern   = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	headingPattern = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)

	schemaOnce     sync.Once
	reportSchema   *gojsonschema.Schema
	reportSchemaEr error
)

// ReportSchema returns the compiled JSON schema of ReportDocument.
func ReportSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		reportSchema, reportSchemaEr = compileReportSchema()
	})
	return reportSchema, reportSchemaEr
}

func compileReportSchema() (*gojsonschema.Schema, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(&ReportDocument{}))
	if err != nil {
		return nil, fmt.Errorf("marshal report schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal report schema: %w", err)
	}
	delete(doc, "$schema")
	delete(doc, "$id")

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.AutoDetect = false
	schema, err := loader.Compile(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile report schema: %w", err)
	}
	return schema, nil
}

// CheckReport inspects the compiled report. JSON reports are validated
// against ReportSchema, Markdown reports are checked for section headings.
func CheckReport(report string) contractx.ReportCheck {
	report = strings.TrimSpace(report)
	if report == "" {
		return contractx.ReportCheck{
			Format:          contractx.ReportFormatEmpty,
			MissingSections: append([]string{}, ReportSections...),
		}
	}

	if body, ok := extractJSONObject(report); ok {
		return checkJSONReport(body)
	}

	headings := headingPattern.FindAllStringSubmatch(report, -1)
	if len(headings) == 0 {
		return contractx.ReportCheck{
			Format:          contractx.ReportFormatText,
			MissingSections: append([]string{}, ReportSections...),
		}
	}
	return checkMarkdownReport(headings)
}

func checkJSONReport(body string) contractx.ReportCheck {
	check := contractx.ReportCheck{Format: contractx.ReportFormatJSON}

	schema, err := ReportSchema()
	if err != nil {
		check.Errors = []string{err.Error()}
		return check
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		check.Errors = []string{err.Error()}
		return check
	}
	for _, e := range result.Errors() {
		check.Errors = append(check.Errors, e.String())
	}
	sort.Strings(check.Errors)

	var doc map[string]any
	_ = json.Unmarshal([]byte(body), &doc)
	for _, section := range ReportSections {
		if isBlank(doc[section]) {
			check.MissingSections = append(check.MissingSections, section)
		}
	}

	check.Complete = result.Valid() && len(check.MissingSections) == 0
	return check
}

func checkMarkdownReport(headings [][]string) contractx.ReportCheck {
	found := make(map[string]bool, len(ReportSections))
	for _, h := range headings {
		title := strings.ToLower(h[1])
		for section, heading := range sectionHeadings {
			if strings.Contains(title, heading) {
				found[section] = true
			}
		}
	}

	check := contractx.ReportCheck{Format: contractx.ReportFormatMarkdown}
	for _, section := range ReportSections {
		if !found[section] {
			check.MissingSections = append(check.MissingSections, section)
		}
	}
	check.Complete = len(check.MissingSections) == 0
	return check
}

// extractJSONObject returns the first JSON object in s, looking inside code
// fences first.
func extractJSONObject(s string) (string, bool) {
	candidates := make([]string, 0, 2)
	if m := fencePattern.FindStringSubmatch(s); len(m) == 2 {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, s)

	for _, c := range candidates {
		start := strings.Index(c, "{")
		end := strings.LastIndex(c, "}")
		if start < 0 || end <= start {
			continue
		}
		body := c[start : end+1]
		var obj map[string]any
		if err := json.Unmarshal([]byte(body), &obj); err == nil {
			return body, true
		}
	}
	return "", false
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
