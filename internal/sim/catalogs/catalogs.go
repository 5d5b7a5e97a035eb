package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Catalogs holds the static content tables consumed by the simulation.
// Both are loaded once at startup and treated as immutable.
type Catalogs struct {
	Recipes RecipeCatalog
	Loot    LootCatalog
}

type RecipeCatalog struct {
	// List preserves file order for display; ByName is the lookup used by
	// craft intents (exact match).
	List   []Recipe
	ByName map[string]Recipe
	Digest string
}

type Recipe struct {
	Name     string         `json:"name"`
	Requires map[string]int `json:"requires"`
	Gives    map[string]int `json:"gives"`
}

type LootCatalog struct {
	// ByBiome maps a biome name to its ordered loot table. Table order is
	// priority: the first entry whose chance-draw succeeds wins the search.
	ByBiome map[string][]LootEntry
	Digest  string
}

type LootEntry struct {
	Name   string  `json:"name"`
	Chance float64 `json:"chance"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	if err := loadLoot(filepath.Join(configDir, "loot_tables.json"), &c.Loot); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []Recipe
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.List = defs
	out.ByName = map[string]Recipe{}
	for _, r := range defs {
		if r.Name == "" {
			return fmt.Errorf("recipes.json: empty name")
		}
		if len(r.Requires) == 0 {
			return fmt.Errorf("recipes.json: %s: empty requires", r.Name)
		}
		if len(r.Gives) == 0 {
			return fmt.Errorf("recipes.json: %s: empty gives", r.Name)
		}
		for item, qty := range r.Requires {
			if qty <= 0 {
				return fmt.Errorf("recipes.json: %s: requires %s x%d", r.Name, item, qty)
			}
		}
		for item, qty := range r.Gives {
			if qty <= 0 {
				return fmt.Errorf("recipes.json: %s: gives %s x%d", r.Name, item, qty)
			}
		}
		if _, dup := out.ByName[r.Name]; dup {
			return fmt.Errorf("recipes.json: duplicate name %s", r.Name)
		}
		out.ByName[r.Name] = r
	}
	return nil
}

func loadLoot(path string, out *LootCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := json.Unmarshal(raw, &out.ByBiome); err != nil {
		return fmt.Errorf("loot_tables.json: %w", err)
	}
	for biome, table := range out.ByBiome {
		for i, e := range table {
			if e.Name == "" {
				return fmt.Errorf("loot_tables.json: %s[%d]: empty name", biome, i)
			}
			if e.Chance < 0 || e.Chance > 1 {
				return fmt.Errorf("loot_tables.json: %s[%d]: chance %v out of [0,1]", biome, i, e.Chance)
			}
			if e.Min < 1 || e.Max < e.Min {
				return fmt.Errorf("loot_tables.json: %s[%d]: bad qty range [%d,%d]", biome, i, e.Min, e.Max)
			}
		}
	}
	return nil
}
