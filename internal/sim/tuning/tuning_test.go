package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	raw := `
world_width: 12
world_height: 8
search_cooldown_ms: 500
starter_items:
  Note: 1
  Fiber: 2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	tn, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tn.ApplyDefaults()

	if tn.WorldWidth != 12 || tn.WorldHeight != 8 {
		t.Fatalf("world dims: %dx%d", tn.WorldWidth, tn.WorldHeight)
	}
	if tn.SearchCooldownMs != 500 {
		t.Fatalf("search cooldown: %d", tn.SearchCooldownMs)
	}
	if tn.StarterItems["Fiber"] != 2 {
		t.Fatalf("starter items: %v", tn.StarterItems)
	}
	// Untouched fields fall back to defaults.
	if tn.ViewRadius != 1 || tn.MaxStamina != 10 || tn.DefaultName != "Traveler" {
		t.Fatalf("defaults not applied: %+v", tn)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDefaults_Complete(t *testing.T) {
	tn := Defaults()
	if tn.WorldWidth != 24 || tn.WorldHeight != 24 {
		t.Fatalf("world dims: %dx%d", tn.WorldWidth, tn.WorldHeight)
	}
	if tn.RegenIntervalMs != 5000 || tn.SearchCooldownMs != 20000 {
		t.Fatalf("intervals: %+v", tn)
	}
	if tn.StarterItems["Note"] != 1 {
		t.Fatalf("starter items: %v", tn.StarterItems)
	}
	if tn.NoteText == "" {
		t.Fatalf("note text empty")
	}
}
