package tool

import (
	"testing"
	"time"
)

func TestParseFinancialData(t *testing.T) {
	t.Parallel()

	text := `Key metrics for Acme Co:
- P/E ratio: 18.4x
- Revenue Growth (YoY): 12.3%
- Net profit margin of 8.5%
- Market capitalization: $2.9 trillion`

	parsedAt := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	data := ParseFinancialData("Acme Co", text, parsedAt)

	if data.CompanyName != "Acme Co" {
		t.Fatalf("CompanyName = %q", data.CompanyName)
	}
	if !data.ParsedAt.Equal(parsedAt) {
		t.Fatalf("ParsedAt = %v", data.ParsedAt)
	}
	m := data.Metrics
	if m.PERatio == nil || *m.PERatio != 18.4 {
		t.Fatalf("PERatio = %v", m.PERatio)
	}
	if m.RevenueGrowth == nil || *m.RevenueGrowth != 12.3 {
		t.Fatalf("RevenueGrowth = %v", m.RevenueGrowth)
	}
	if m.ProfitMargin == nil || *m.ProfitMargin != 8.5 {
		t.Fatalf("ProfitMargin = %v", m.ProfitMargin)
	}
	if m.MarketCap != "$2.9 trillion" {
		t.Fatalf("MarketCap = %q", m.MarketCap)
	}
	if got := FinancialHealth(m); got != HealthExcellent {
		t.Fatalf("FinancialHealth() = %q, want Excellent", got)
	}
}

func TestParseFinancialDataMissingValues(t *testing.T) {
	t.Parallel()

	data := ParseFinancialData("  ", "Error: connection refused", time.Now())
	if data.CompanyName != "Unknown" {
		t.Fatalf("CompanyName = %q, want Unknown", data.CompanyName)
	}
	if data.Metrics.PERatio != nil || data.Metrics.RevenueGrowth != nil || data.Metrics.ProfitMargin != nil {
		t.Fatalf("expected no metrics, got %#v", data.Metrics)
	}
	if data.Metrics.MarketCap != "" {
		t.Fatalf("MarketCap = %q", data.Metrics.MarketCap)
	}
	if got := FinancialHealth(data.Metrics); got != HealthInsufficient {
		t.Fatalf("FinancialHealth() = %q", got)
	}
}

func TestParseFinancialDataNegativeGrowth(t *testing.T) {
	t.Parallel()

	data := ParseFinancialData("Acme Co", "Price-to-earnings ratio 35.2, revenue growth -3.5% year over year", time.Now())
	if data.Metrics.PERatio == nil || *data.Metrics.PERatio != 35.2 {
		t.Fatalf("PERatio = %v", data.Metrics.PERatio)
	}
	if data.Metrics.RevenueGrowth == nil || *data.Metrics.RevenueGrowth != -3.5 {
		t.Fatalf("RevenueGrowth = %v", data.Metrics.RevenueGrowth)
	}
}

func TestFinancialHealthThresholds(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name   string
		pe     *float64
		growth *float64
		want   string
	}{
		{name: "excellent", pe: f(15), growth: f(11), want: HealthExcellent},
		{name: "pe boundary is good", pe: f(20), growth: f(11), want: HealthGood},
		{name: "growth boundary is good", pe: f(15), growth: f(10), want: HealthGood},
		{name: "good", pe: f(29.9), growth: f(5.1), want: HealthGood},
		{name: "fair on pe", pe: f(30), growth: f(20), want: HealthFair},
		{name: "fair on growth", pe: f(10), growth: f(5), want: HealthFair},
		{name: "missing pe", growth: f(20), want: HealthInsufficient},
		{name: "missing growth", pe: f(10), want: HealthInsufficient},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FinancialHealth(FinancialMetrics{PERatio: tt.pe, RevenueGrowth: tt.growth})
			if got != tt.want {
				t.Fatalf("FinancialHealth() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFinancialDataDoesNotBorrowNeighbouringValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		wantPE     *float64
		wantGrowth *float64
		wantHealth string
	}{
		{
			name:       "not available pe",
			text:       "P/E ratio: N/A; revenue growth 12%",
			wantGrowth: ptr(12),
			wantHealth: HealthInsufficient,
		},
		{
			name:       "pe without value before growth",
			text:       "P/E ratio not disclosed, revenue growth: 15%",
			wantGrowth: ptr(15),
			wantHealth: HealthInsufficient,
		},
		{
			name:       "not available growth",
			text:       "P/E ratio of 14\nRevenue growth: N/A\nProfit margin 30%",
			wantPE:     ptr(14),
			wantHealth: HealthInsufficient,
		},
		{
			name:       "linking words",
			text:       "The P/E ratio is approximately 22.5 and revenue growth was about 7%",
			wantPE:     ptr(22.5),
			wantGrowth: ptr(7),
			wantHealth: HealthGood,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := ParseFinancialData("Acme", tt.text, time.Now()).Metrics
			if !sameFloat(m.PERatio, tt.wantPE) {
				t.Fatalf("PERatio = %v, want %v", deref(m.PERatio), deref(tt.wantPE))
			}
			if !sameFloat(m.RevenueGrowth, tt.wantGrowth) {
				t.Fatalf("RevenueGrowth = %v, want %v", deref(m.RevenueGrowth), deref(tt.wantGrowth))
			}
			if got := FinancialHealth(m); got != tt.wantHealth {
				t.Fatalf("FinancialHealth() = %q, want %q", got, tt.wantHealth)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
