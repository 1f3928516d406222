package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/agents.yaml
	agentsRaw []byte
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System string
	Roster contractx.Roster
}

type rosterFile struct {
	Agents []contractx.AgentSpec `yaml:"agents"`
}

// LoadPromptSet returns the embedded system prompt and agent roster.
func LoadPromptSet() (PromptSet, error) {
	roster, err := ParseRoster(agentsRaw)
	if err != nil {
		return PromptSet{}, fmt.Errorf("embedded roster: %w", err)
	}
	system := strings.TrimSpace(systemRaw)
	if system == "" {
		return PromptSet{}, fmt.Errorf("%w: system prompt", contractx.ErrPromptMissing)
	}
	return PromptSet{
		System: system,
		Roster: roster,
	}, nil
}

// LoadRosterFile reads a roster override from disk.
func LoadRosterFile(path string) (contractx.Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	return ParseRoster(raw)
}

func ParseRoster(raw []byte) (contractx.Roster, error) {
	var file rosterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: decode roster: %v", contractx.ErrValidation, err)
	}

	roster := make(contractx.Roster, len(file.Agents))
	for _, spec := range file.Agents {
		spec.Role = contractx.AgentRole(strings.TrimSpace(string(spec.Role)))
		spec.Name = strings.TrimSpace(spec.Name)
		spec.Goal = strings.TrimSpace(spec.Goal)
		spec.Backstory = strings.TrimSpace(spec.Backstory)
		if _, dup := roster[spec.Role]; dup {
			return nil, fmt.Errorf("%w: duplicate roster role=%s", contractx.ErrValidation, spec.Role)
		}
		roster[spec.Role] = spec
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return roster, nil
}
