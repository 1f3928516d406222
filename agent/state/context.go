package state

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

// Well-known keys written by the pipeline.
const (
	KeyCompanyName      = "company_name"
	KeyWorkflowStart    = "workflow_start"
	KeyCompanyInfo      = "company_info"
	KeyMarketInfo       = "market_info"
	KeyFinancialMetrics = "financial_metrics"
	KeyParsedData       = "parsed_data"
	KeyFinancialHealth  = "financial_health"
	KeyRiskAssessment   = "risk_assessment"
	KeyReport           = "report"
	KeyValidation       = "validation"
)

// ContextStore is the per-run working memory shared by every agent of one
// workflow. It only grows: values are upserted and records appended.
type ContextStore struct {
	mu      sync.RWMutex
	values  map[string]any
	records []contractx.ExecutionRecord
}

func NewContextStore() *ContextStore {
	return &ContextStore{
		values: make(map[string]any, 16),
	}
}

func (s *ContextStore) Store(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	log.Debug().Str("key", key).Msg("stored context")
}

func (s *ContextStore) Retrieve(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// RetrieveString returns the value under key when it is a string, "" otherwise.
func (s *ContextStore) RetrieveString(key string) string {
	v, ok := s.Retrieve(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// Snapshot returns a shallow copy of every key/value pair.
func (s *ContextStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *ContextStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (s *ContextStore) AppendRecord(rec contractx.ExecutionRecord) {
	rec = rec.Clone()
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// Records returns the execution log in append order.
func (s *ContextStore) Records() []contractx.ExecutionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contractx.ExecutionRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
