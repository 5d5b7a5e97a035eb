package world

import (
	"time"

	"korkmmo/internal/sim/tuning"
)

type Config struct {
	Width  int
	Height int

	ViewRadius int

	MaxHP      int
	MaxStamina int

	RegenInterval  time.Duration
	SearchCooldown time.Duration

	NameMaxLen  int
	ChatMaxLen  int
	DefaultName string

	// Starter inventory granted on join. If nil, defaults apply; if non-nil
	// but empty, new players start with nothing.
	StarterItems map[string]int
	NoteText     string

	// Seed drives biome assignment and loot rolls.
	Seed int64
}

// FromTuning maps the loaded tuning file onto a world config.
func FromTuning(t tuning.Tuning, seed int64) Config {
	return Config{
		Width:          t.WorldWidth,
		Height:         t.WorldHeight,
		ViewRadius:     t.ViewRadius,
		MaxHP:          t.MaxHP,
		MaxStamina:     t.MaxStamina,
		RegenInterval:  time.Duration(t.RegenIntervalMs) * time.Millisecond,
		SearchCooldown: time.Duration(t.SearchCooldownMs) * time.Millisecond,
		NameMaxLen:     t.NameMaxLen,
		ChatMaxLen:     t.ChatMaxLen,
		DefaultName:    t.DefaultName,
		StarterItems:   t.StarterItems,
		NoteText:       t.NoteText,
		Seed:           seed,
	}
}

func (c *Config) applyDefaults() {
	if c.Width == 0 {
		c.Width = 24
	}
	if c.Height == 0 {
		c.Height = 24
	}
	if c.ViewRadius <= 0 {
		c.ViewRadius = 1
	}
	if c.MaxHP <= 0 {
		c.MaxHP = 100
	}
	if c.MaxStamina <= 0 {
		c.MaxStamina = 10
	}
	if c.RegenInterval <= 0 {
		c.RegenInterval = 5 * time.Second
	}
	if c.SearchCooldown <= 0 {
		c.SearchCooldown = 20 * time.Second
	}
	if c.NameMaxLen <= 0 {
		c.NameMaxLen = 16
	}
	if c.ChatMaxLen <= 0 {
		c.ChatMaxLen = 120
	}
	if c.DefaultName == "" {
		c.DefaultName = "Traveler"
	}
	if c.StarterItems == nil {
		c.StarterItems = map[string]int{"Note": 1}
	}
}
