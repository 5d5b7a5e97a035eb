package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RealConfigs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rope, ok := c.Recipes.ByName["Rope"]
	if !ok {
		t.Fatalf("missing Rope recipe")
	}
	if rope.Requires["Fiber"] != 3 || rope.Gives["Rope"] != 1 {
		t.Fatalf("Rope recipe: %+v", rope)
	}
	if len(c.Recipes.List) != len(c.Recipes.ByName) {
		t.Fatalf("recipe list/map mismatch: %d vs %d", len(c.Recipes.List), len(c.Recipes.ByName))
	}
	if c.Recipes.Digest == "" || c.Loot.Digest == "" {
		t.Fatalf("empty digest")
	}

	for _, biome := range []string{"plains", "forest", "desert", "mountain"} {
		if len(c.Loot.ByBiome[biome]) == 0 {
			t.Fatalf("missing loot table for %s", biome)
		}
	}
	// Table order is priority and must survive loading.
	mountain := c.Loot.ByBiome["mountain"]
	if mountain[0].Name != "Stone" || mountain[1].Name != "Ore" {
		t.Fatalf("mountain table order: %+v", mountain)
	}
}

func TestLoad_RejectsBadTables(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("recipes.json", `[{"name":"Rope","requires":{"Fiber":3},"gives":{"Rope":1}}]`)
	write("loot_tables.json", `{"plains":[{"name":"Fiber","chance":1.5,"min":1,"max":3}]}`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected chance range error")
	}

	write("loot_tables.json", `{"plains":[{"name":"Fiber","chance":0.5,"min":3,"max":1}]}`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected qty range error")
	}

	write("loot_tables.json", `{"plains":[{"name":"Fiber","chance":0.5,"min":1,"max":3}]}`)
	write("recipes.json", `[{"name":"","requires":{"Fiber":3},"gives":{"Rope":1}}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected empty recipe name error")
	}

	write("recipes.json", `[{"name":"Rope","requires":{},"gives":{"Rope":1}}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected empty requires error")
	}
}
