package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
	openrouterx "github.com/tanpawarit/fintech-research-agents/pkg/openrouter"
)

type Backend string

const (
	BackendEino   Backend = "eino"
	BackendOpenAI Backend = "openai"
)

type Config struct {
	Backend            Backend       `envconfig:"BACKEND" split_words:"true" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// Per-role overrides, e.g. LLM_ROLE_MODELS=report_compiler:openai/gpt-4.1,fact_checker:openai/gpt-4.1-mini
	RoleModels       map[string]string  `envconfig:"ROLE_MODELS" split_words:"true"`
	RoleTemperatures map[string]float32 `envconfig:"ROLE_TEMPERATURES" split_words:"true"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch c.SelectedBackend() {
	case BackendEino, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unsupported llm backend=%q", contractx.ErrValidation, c.Backend)
	}
	known := make(map[string]struct{}, len(contractx.Roles))
	for _, role := range contractx.Roles {
		known[string(role)] = struct{}{}
	}
	for role := range c.RoleModels {
		if _, ok := known[strings.TrimSpace(role)]; !ok {
			return fmt.Errorf("%w: model override for role=%q", contractx.ErrUnknownRole, role)
		}
	}
	for role, temp := range c.RoleTemperatures {
		if _, ok := known[strings.TrimSpace(role)]; !ok {
			return fmt.Errorf("%w: temperature override for role=%q", contractx.ErrUnknownRole, role)
		}
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%w: temperature for role=%s must be within [0, 2]", contractx.ErrValidation, role)
		}
	}
	return nil
}

// SelectedBackend returns the normalized backend, defaulting to eino.
func (c Config) SelectedBackend() Backend {
	b := Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if b == "" {
		return BackendEino
	}
	return b
}

func (c Config) OpenRouterFor(role contractx.AgentRole) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	if v := strings.TrimSpace(lookupRole(c.RoleModels, role)); v != "" {
		modelName = v
	}
	if v, ok := lookupRoleTemp(c.RoleTemperatures, role); ok {
		temp = v
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

func lookupRole(m map[string]string, role contractx.AgentRole) string {
	for k, v := range m {
		if strings.TrimSpace(k) == string(role) {
			return v
		}
	}
	return ""
}

func lookupRoleTemp(m map[string]float32, role contractx.AgentRole) (float32, bool) {
	for k, v := range m {
		if strings.TrimSpace(k) == string(role) {
			return v, true
		}
	}
	return 0, false
}
