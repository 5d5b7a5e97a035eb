package world

import (
	"time"

	"korkmmo/internal/protocol"
	"korkmmo/internal/sim/catalogs"
)

// Action resolvers. Each validates fully before writing anything, so a
// rejected intent leaves the player and the grid exactly as they were.
// Rejections are values, not errors: reason carries the player-facing text.

type moveOutcome struct {
	ok     bool
	reason string
	biome  Biome // biome of the tile entered
}

func movePlayer(g *Grid, p *Player, dir string, now time.Time) moveOutcome {
	nx, ny := p.X, p.Y
	switch dir {
	case "north":
		ny++
	case "south":
		ny--
	case "east":
		nx++
	case "west":
		nx--
	default:
		return moveOutcome{reason: protocol.ReasonBadDirection}
	}

	if !g.InBounds(nx, ny) {
		return moveOutcome{reason: protocol.ReasonOutOfBounds}
	}
	if p.Stamina <= 0 {
		return moveOutcome{reason: protocol.ReasonNoStamina}
	}

	p.X, p.Y = nx, ny
	p.Stamina = max(0, p.Stamina-1)
	p.LastActionAt = now
	return moveOutcome{ok: true, biome: g.TileAt(nx, ny).Biome}
}

type searchOutcome struct {
	ok     bool
	reason string
	biome  Biome
	loot   *protocol.LootDrop // nil when the search found nothing
}

func searchTile(g *Grid, p *Player, loot *catalogs.LootCatalog, rng randSource, cooldown time.Duration, now time.Time) searchOutcome {
	t := g.TileAt(p.X, p.Y)

	if p.Stamina <= 0 {
		return searchOutcome{reason: protocol.ReasonNoStamina}
	}
	if now.UnixMilli()-t.LastSearchedAtMs < cooldown.Milliseconds() {
		return searchOutcome{reason: protocol.ReasonTileSearched}
	}

	p.Stamina = max(0, p.Stamina-1)
	p.LastActionAt = now
	t.LastSearchedAtMs = now.UnixMilli()

	drop := rollLoot(rng, loot.ByBiome[string(t.Biome)])
	if drop != nil {
		p.addItem(drop.Name, drop.Qty)
	}
	return searchOutcome{ok: true, biome: t.Biome, loot: drop}
}

type craftOutcome struct {
	ok     bool
	reason string
	recipe catalogs.Recipe
}

func craftRecipe(p *Player, recipes *catalogs.RecipeCatalog, name string) craftOutcome {
	recipe, found := recipes.ByName[name]
	if !found {
		return craftOutcome{reason: protocol.ReasonRecipeNotFound}
	}
	if !hasIngredients(p.Inventory, recipe.Requires) {
		return craftOutcome{reason: protocol.ReasonNotEnoughItems}
	}

	consumeIngredients(p.Inventory, recipe.Requires)
	for item, qty := range recipe.Gives {
		p.addItem(item, qty)
	}
	return craftOutcome{ok: true, recipe: recipe}
}

func hasIngredients(inv map[string]int, requires map[string]int) bool {
	for item, qty := range requires {
		if inv[item] < qty {
			return false
		}
	}
	return true
}

func consumeIngredients(inv map[string]int, requires map[string]int) {
	for item, qty := range requires {
		inv[item] -= qty
		if inv[item] <= 0 {
			delete(inv, item)
		}
	}
}
