package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	WorldWidth  int `yaml:"world_width"`
	WorldHeight int `yaml:"world_height"`
	ViewRadius  int `yaml:"view_radius"`

	MaxHP      int `yaml:"max_hp"`
	MaxStamina int `yaml:"max_stamina"`

	RegenIntervalMs  int `yaml:"regen_interval_ms"`
	SearchCooldownMs int `yaml:"search_cooldown_ms"`

	NameMaxLen  int    `yaml:"name_max_len"`
	ChatMaxLen  int    `yaml:"chat_max_len"`
	DefaultName string `yaml:"default_name"`

	StarterItems map[string]int `yaml:"starter_items"`
	NoteText     string         `yaml:"note_text"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults returns the tuning used when no tuning.yaml is present.
func Defaults() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	if t.WorldWidth <= 0 {
		t.WorldWidth = 24
	}
	if t.WorldHeight <= 0 {
		t.WorldHeight = 24
	}
	if t.ViewRadius <= 0 {
		t.ViewRadius = 1
	}
	if t.MaxHP <= 0 {
		t.MaxHP = 100
	}
	if t.MaxStamina <= 0 {
		t.MaxStamina = 10
	}
	if t.RegenIntervalMs <= 0 {
		t.RegenIntervalMs = 5000
	}
	if t.SearchCooldownMs <= 0 {
		t.SearchCooldownMs = 20000
	}
	if t.NameMaxLen <= 0 {
		t.NameMaxLen = 16
	}
	if t.ChatMaxLen <= 0 {
		t.ChatMaxLen = 120
	}
	if t.DefaultName == "" {
		t.DefaultName = "Traveler"
	}
	if t.StarterItems == nil {
		t.StarterItems = map[string]int{"Note": 1}
	}
	if t.NoteText == "" {
		t.NoteText = "Basic recipes:\n" +
			"- Rope: Fiber x3\n" +
			"- Stone Axe: Wood x2, Stone x2, Rope x1\n" +
			"- Stone Pick: Wood x2, Stone x3, Rope x1\n" +
			"\n" +
			"Tip: Search different biomes for different materials."
	}
}
