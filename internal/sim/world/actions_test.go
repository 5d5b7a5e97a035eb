package world

import (
	"testing"
	"time"

	"korkmmo/internal/protocol"
)

// scriptedRand pops pre-seeded values; it exhausts to 0.99 floats (always
// fail a chance draw) and 0 ints.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.99
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func testPlayer(x, y, stamina int) *Player {
	return &Player{
		ID: "p1", Name: "tester",
		X: x, Y: y,
		HP: 100, MaxHP: 100,
		Stamina: stamina, MaxStamina: 10,
		Inventory: map[string]int{},
	}
}

func TestMove_Directions(t *testing.T) {
	g := testGrid(t, 5, 5)
	now := time.Now()
	cases := []struct {
		dir    string
		dx, dy int
	}{
		{"north", 0, 1},
		{"south", 0, -1},
		{"east", 1, 0},
		{"west", -1, 0},
	}
	for _, c := range cases {
		p := testPlayer(2, 2, 10)
		out := movePlayer(g, p, c.dir, now)
		if !out.ok {
			t.Fatalf("%s: rejected: %s", c.dir, out.reason)
		}
		if p.X != 2+c.dx || p.Y != 2+c.dy {
			t.Fatalf("%s: moved to (%d,%d)", c.dir, p.X, p.Y)
		}
		if p.Stamina != 9 {
			t.Fatalf("%s: stamina %d, want 9", c.dir, p.Stamina)
		}
		if out.biome != g.TileAt(p.X, p.Y).Biome {
			t.Fatalf("%s: biome mismatch", c.dir)
		}
		if !p.LastActionAt.Equal(now) {
			t.Fatalf("%s: lastActionAt not stamped", c.dir)
		}
	}
}

func TestMove_OutOfBoundsLeavesStateUntouched(t *testing.T) {
	g := testGrid(t, 5, 5)
	p := testPlayer(0, 0, 7)
	before := *p

	out := movePlayer(g, p, "south", time.Now())
	if out.ok || out.reason != protocol.ReasonOutOfBounds {
		t.Fatalf("outcome: %+v", out)
	}
	if p.X != before.X || p.Y != before.Y || p.Stamina != before.Stamina {
		t.Fatalf("rejected move mutated player: %+v", p)
	}
}

func TestMove_NoStamina(t *testing.T) {
	g := testGrid(t, 5, 5)
	p := testPlayer(2, 2, 0)

	out := movePlayer(g, p, "north", time.Now())
	if out.ok || out.reason != protocol.ReasonNoStamina {
		t.Fatalf("outcome: %+v", out)
	}
	if p.X != 2 || p.Y != 2 {
		t.Fatalf("rejected move mutated position")
	}
}

func TestMove_BoundsCheckedBeforeStamina(t *testing.T) {
	g := testGrid(t, 5, 5)
	p := testPlayer(0, 0, 0)

	out := movePlayer(g, p, "west", time.Now())
	if out.reason != protocol.ReasonOutOfBounds {
		t.Fatalf("want out-of-bounds before stamina, got %q", out.reason)
	}
}

func TestMove_BadDirection(t *testing.T) {
	g := testGrid(t, 5, 5)
	p := testPlayer(2, 2, 10)

	out := movePlayer(g, p, "up", time.Now())
	if out.ok || out.reason != protocol.ReasonBadDirection {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestSearch_Cooldown(t *testing.T) {
	g := testGrid(t, 5, 5)
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)
	rng := &scriptedRand{} // every draw fails; loot is irrelevant here
	cooldown := 20 * time.Second
	t0 := time.Unix(1000, 0)

	out := searchTile(g, p, &cats.Loot, rng, cooldown, t0)
	if !out.ok {
		t.Fatalf("first search rejected: %s", out.reason)
	}
	if p.Stamina != 9 {
		t.Fatalf("stamina after first search: %d", p.Stamina)
	}

	out = searchTile(g, p, &cats.Loot, rng, cooldown, t0.Add(5*time.Second))
	if out.ok || out.reason != protocol.ReasonTileSearched {
		t.Fatalf("second search within cooldown: %+v", out)
	}
	if p.Stamina != 9 {
		t.Fatalf("rejected search changed stamina: %d", p.Stamina)
	}

	out = searchTile(g, p, &cats.Loot, rng, cooldown, t0.Add(cooldown))
	if !out.ok {
		t.Fatalf("search after cooldown rejected: %s", out.reason)
	}
}

func TestSearch_NoStamina(t *testing.T) {
	g := testGrid(t, 5, 5)
	cats := testCatalogs()
	p := testPlayer(2, 2, 0)

	out := searchTile(g, p, &cats.Loot, &scriptedRand{}, time.Second, time.Now())
	if out.ok || out.reason != protocol.ReasonNoStamina {
		t.Fatalf("outcome: %+v", out)
	}
	if g.TileAt(2, 2).LastSearchedAtMs != 0 {
		t.Fatalf("rejected search stamped the tile")
	}
}

func TestSearch_NothingFound(t *testing.T) {
	g := testGrid(t, 5, 5)
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)
	now := time.Now()

	out := searchTile(g, p, &cats.Loot, &scriptedRand{}, time.Second, now)
	if !out.ok {
		t.Fatalf("rejected: %s", out.reason)
	}
	if out.loot != nil {
		t.Fatalf("expected no loot, got %+v", out.loot)
	}
	if len(p.Inventory) != 0 {
		t.Fatalf("inventory grew on empty search: %v", p.Inventory)
	}
	// The search still consumed stamina and stamped the tile.
	if p.Stamina != 9 || g.TileAt(2, 2).LastSearchedAtMs != now.UnixMilli() {
		t.Fatalf("empty search did not commit: stamina=%d", p.Stamina)
	}
}

func TestSearch_GrantsFirstSuccessfulEntry(t *testing.T) {
	g := testGrid(t, 5, 5)
	// Force a known biome under the player.
	g.TileAt(2, 2).Biome = BiomePlains
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)

	// First draw fails (0.9 >= 0.45), second succeeds (0.1 < 0.35):
	// the second table entry (Stone) wins. Intn(2) scripted to 1 -> qty 2.
	rng := &scriptedRand{floats: []float64{0.9, 0.1}, ints: []int{1}}
	out := searchTile(g, p, &cats.Loot, rng, time.Second, time.Now())
	if !out.ok || out.loot == nil {
		t.Fatalf("outcome: %+v", out)
	}
	if out.loot.Name != "Stone" || out.loot.Qty != 2 {
		t.Fatalf("loot: %+v", out.loot)
	}
	if p.Inventory["Stone"] != 2 {
		t.Fatalf("inventory: %v", p.Inventory)
	}
}

func TestRollLoot_FirstSuccessShortCircuits(t *testing.T) {
	table := testCatalogs().Loot.ByBiome["plains"]

	// First draw succeeds: only one float consumed, first entry granted.
	rng := &scriptedRand{floats: []float64{0.1, 0.0}, ints: []int{2}}
	drop := rollLoot(rng, table)
	if drop == nil || drop.Name != "Fiber" {
		t.Fatalf("drop: %+v", drop)
	}
	if len(rng.floats) != 1 {
		t.Fatalf("later entries were drawn after a success")
	}
	if drop.Qty < 1 || drop.Qty > 3 {
		t.Fatalf("qty %d outside [1,3]", drop.Qty)
	}
}

func TestRollLoot_AllFail(t *testing.T) {
	table := testCatalogs().Loot.ByBiome["mountain"]
	if drop := rollLoot(&scriptedRand{}, table); drop != nil {
		t.Fatalf("expected nil drop, got %+v", drop)
	}
}

func TestRollLoot_QtyBoundsInclusive(t *testing.T) {
	table := []struct{ intn, want int }{{0, 1}, {3, 4}}
	entry := testCatalogs().Loot.ByBiome["mountain"][:1] // Stone, min 1 max 4
	for _, c := range table {
		rng := &scriptedRand{floats: []float64{0.0}, ints: []int{c.intn}}
		drop := rollLoot(rng, entry)
		if drop == nil || drop.Qty != c.want {
			t.Fatalf("intn=%d: drop %+v, want qty %d", c.intn, drop, c.want)
		}
	}
}

func TestCraft_RoundTrip(t *testing.T) {
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)
	p.Inventory["Fiber"] = 3

	out := craftRecipe(p, &cats.Recipes, "Rope")
	if !out.ok {
		t.Fatalf("rejected: %s", out.reason)
	}
	if p.Inventory["Rope"] != 1 {
		t.Fatalf("inventory: %v", p.Inventory)
	}
	if _, present := p.Inventory["Fiber"]; present {
		t.Fatalf("exhausted ingredient persisted: %v", p.Inventory)
	}
	if p.Stamina != 10 {
		t.Fatalf("craft consumed stamina: %d", p.Stamina)
	}
}

func TestCraft_Insufficient(t *testing.T) {
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)
	p.Inventory["Fiber"] = 2

	out := craftRecipe(p, &cats.Recipes, "Rope")
	if out.ok || out.reason != protocol.ReasonNotEnoughItems {
		t.Fatalf("outcome: %+v", out)
	}
	if p.Inventory["Fiber"] != 2 || len(p.Inventory) != 1 {
		t.Fatalf("rejected craft mutated inventory: %v", p.Inventory)
	}
}

func TestCraft_RecipeNotFound(t *testing.T) {
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)

	out := craftRecipe(p, &cats.Recipes, "rope") // lookup is exact-match
	if out.ok || out.reason != protocol.ReasonRecipeNotFound {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestCraft_PartialIngredientsKept(t *testing.T) {
	cats := testCatalogs()
	p := testPlayer(2, 2, 10)
	p.Inventory["Wood"] = 5
	p.Inventory["Stone"] = 2
	p.Inventory["Rope"] = 1

	out := craftRecipe(p, &cats.Recipes, "Stone Axe")
	if !out.ok {
		t.Fatalf("rejected: %s", out.reason)
	}
	if p.Inventory["Wood"] != 3 {
		t.Fatalf("leftover wood: %v", p.Inventory)
	}
	if _, present := p.Inventory["Stone"]; present {
		t.Fatalf("exhausted stone persisted: %v", p.Inventory)
	}
	if _, present := p.Inventory["Rope"]; present {
		t.Fatalf("exhausted rope persisted: %v", p.Inventory)
	}
	if p.Inventory["Stone Axe"] != 1 {
		t.Fatalf("missing crafted item: %v", p.Inventory)
	}
}

func TestRegistry_DeleteMissingIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Delete("absent")
	r.Set(&Player{ID: "b"})
	r.Set(&Player{ID: "a"})
	if r.Len() != 2 {
		t.Fatalf("len: %d", r.Len())
	}
	vals := r.Values()
	if vals[0].ID != "a" || vals[1].ID != "b" {
		t.Fatalf("values not sorted: %v", vals)
	}
	r.Delete("a")
	r.Delete("a")
	if r.Len() != 1 || r.Get("a") != nil {
		t.Fatalf("delete failed")
	}
}
