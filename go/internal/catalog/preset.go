package catalog

import (
	"fmt"
	"os"

	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Preset is a prepared room: catalog, mode, starting coins and optionally
// the rules to run it under.
type Preset struct {
	Code         string                    `yaml:"code"`
	Mode         models.RoomMode           `yaml:"mode"`
	InitialCoins int                       `yaml:"initial_coins"`
	Templates    []models.SentenceTemplate `yaml:"templates"`
	// Lines is an alternative to Templates in "text / concept" form.
	Lines string `yaml:"lines"`
	// Policy holds only the fields the file overrides; see ApplyPolicy.
	Policy yaml.Node `yaml:"policy"`
}

// LoadPreset reads a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if preset.Mode == "" {
		preset.Mode = models.RoomModeConceptMatch
	}
	if !preset.Mode.Valid() {
		return nil, fmt.Errorf("preset mode %q: %w", preset.Mode, auction.ErrInvalidMode)
	}
	if _, err := preset.ApplyPolicy(auction.DefaultPolicy()); err != nil {
		return nil, err
	}
	return &preset, nil
}

// ApplyPolicy overlays the preset's policy fields on base.
func (p *Preset) ApplyPolicy(base auction.Policy) (auction.Policy, error) {
	if p.Policy.Kind == 0 {
		return base, nil
	}
	policy := base
	if err := p.Policy.Decode(&policy); err != nil {
		return base, fmt.Errorf("failed to parse preset policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return base, fmt.Errorf("preset policy: %w", err)
	}
	return policy, nil
}

// AllTemplates returns the explicit templates followed by the parsed lines.
func (p *Preset) AllTemplates() []models.SentenceTemplate {
	return append(Normalize(p.Templates, p.Mode), ParseLines(p.Lines, p.Mode)...)
}
