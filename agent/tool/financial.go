package tool

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ToolFinancialParser   = "financial_parser"
	ToolHealthCalculator  = "health_calculator"
	ToolReportSchemaCheck = "report_schema_check"
)

const (
	HealthExcellent    = "Excellent"
	HealthGood         = "Good"
	HealthFair         = "Fair"
	HealthInsufficient = "Insufficient data"
)

// labelGap allows an optional parenthetical, a separator and linking words
// between a label and its value. Anything else means the value is missing.
const (
	labelGap  = `(?:\s*\([^)\n]{0,20}\))?\s*(?:[:=~]\s*)?(?:(?:of|is|at|was|about|around|approximately|approx\.?)\s+)*`
	numberCap = `(-?\d+(?:\.\d+)?)`
)

var (
	peRatioPattern       = regexp.MustCompile(`(?i)(?:\bp\s*/\s*e\b|price[\s-]+to[\s-]+earnings)(?:\s*ratio)?` + labelGap + numberCap)
	revenueGrowthPattern = regexp.MustCompile(`(?i)revenue\s+growth` + labelGap + numberCap)
	profitMarginPattern  = regexp.MustCompile(`(?i)(?:net\s+|operating\s+)?profit\s+margin` + labelGap + numberCap)
	marketCapPattern     = regexp.MustCompile(`(?i)market\s+cap(?:italization)?` + labelGap + `(\$?\s*\d+(?:[.,]\d+)*\s*(?:trillion|billion|million|[tbm]\b)?)`)
)

type FinancialMetrics struct {
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
	ProfitMargin  *float64 `json:"profit_margin,omitempty"`
	MarketCap     string   `json:"market_cap,omitempty"`
}

// FinancialData is the structured view of the financial calculator's text.
type FinancialData struct {
	CompanyName string           `json:"company_name"`
	Metrics     FinancialMetrics `json:"financial_metrics"`
	ParsedAt    time.Time        `json:"parsed_at"`
}

// ParseFinancialData extracts the headline metrics from free text. Metrics
// that cannot be found are left unset.
func ParseFinancialData(company string, text string, parsedAt time.Time) FinancialData {
	company = strings.TrimSpace(company)
	if company == "" {
		company = "Unknown"
	}

	return FinancialData{
		CompanyName: company,
		Metrics: FinancialMetrics{
			PERatio:       matchFloat(peRatioPattern, text),
			RevenueGrowth: matchFloat(revenueGrowthPattern, text),
			ProfitMargin:  matchFloat(profitMarginPattern, text),
			MarketCap:     matchString(marketCapPattern, text),
		},
		ParsedAt: parsedAt.UTC(),
	}
}

// FinancialHealth grades the metrics from P/E ratio and revenue growth.
func FinancialHealth(m FinancialMetrics) string {
	if m.PERatio == nil || m.RevenueGrowth == nil {
		return HealthInsufficient
	}
	pe, growth := *m.PERatio, *m.RevenueGrowth
	switch {
	case pe < 20 && growth > 10:
		return HealthExcellent
	case pe < 30 && growth > 5:
		return HealthGood
	default:
		return HealthFair
	}
}

func matchFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func matchString(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.Join(strings.Fields(m[1]), " ")
}
