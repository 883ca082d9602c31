// Package config loads the toxicity rules settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in a campaign directory.
const FileName = "settings.yaml"

// DefaultConsumableFilter accepts potions only.
const DefaultConsumableFilter = `item.type == "consumable" && item.consumable_type == "potion"`

// Settings are the GM-facing rules options.
type Settings struct {
	ToxicityLevels    map[int]int          `yaml:"toxicity_levels"`
	ResetOnLongRest   *bool                `yaml:"reset_on_long_rest"`
	RollTable         string               `yaml:"roll_table"`
	ConsumableFilter  string               `yaml:"consumable_filter"`
	NonCharacterLimit int                  `yaml:"non_character_limit"`
	SeverityTiers     engine.SeverityTable `yaml:"severity_tiers,omitempty"`
}

// Default returns the stock settings.
func Default() *Settings {
	reset := true
	levels := make(map[int]int, len(engine.DefaultThresholdLevels))
	for k, v := range engine.DefaultThresholdLevels {
		levels[k] = v
	}
	return &Settings{
		ToxicityLevels:    levels,
		ResetOnLongRest:   &reset,
		RollTable:         "Toxicity Effects",
		ConsumableFilter:  DefaultConsumableFilter,
		NonCharacterLimit: 3,
	}
}

// Load reads a settings file. Keys left out keep their defaults; a missing
// file yields the defaults.
func Load(path string) (*Settings, error) {
	s := Default()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings %s: %w", path, err)
	}
	defer f.Close()

	var raw Settings
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode settings %s: %w", path, err)
	}
	s.merge(raw)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) merge(o Settings) {
	if o.ToxicityLevels != nil {
		s.ToxicityLevels = o.ToxicityLevels
	}
	if o.ResetOnLongRest != nil {
		s.ResetOnLongRest = o.ResetOnLongRest
	}
	if o.RollTable != "" {
		s.RollTable = o.RollTable
	}
	if strings.TrimSpace(o.ConsumableFilter) != "" {
		s.ConsumableFilter = o.ConsumableFilter
	}
	if o.NonCharacterLimit != 0 {
		s.NonCharacterLimit = o.NonCharacterLimit
	}
	if o.SeverityTiers != nil {
		s.SeverityTiers = o.SeverityTiers
	}
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	if _, err := engine.NewThresholdTable(s.ToxicityLevels); err != nil {
		return err
	}
	if s.NonCharacterLimit <= 0 {
		return fmt.Errorf("non_character_limit must be positive, got %d: %w", s.NonCharacterLimit, engine.ErrConfiguration)
	}
	if s.SeverityTiers != nil {
		if err := s.SeverityTiers.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EngineConfig converts the settings into the handler's configuration.
func (s *Settings) EngineConfig() (engine.Config, error) {
	thresholds, err := engine.NewThresholdTable(s.ToxicityLevels)
	if err != nil {
		return engine.Config{}, err
	}
	severity := s.SeverityTiers
	if severity == nil {
		severity = engine.DefaultSeverityTable()
	}
	reset := s.ResetOnLongRest == nil || *s.ResetOnLongRest
	return engine.Config{
		Thresholds:      thresholds,
		Severity:        severity,
		ResetOnLongRest: reset,
	}, nil
}

// Save writes the settings as YAML, creating or truncating path.
func (s *Settings) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create settings %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return enc.Close()
}
