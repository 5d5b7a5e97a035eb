package world

import (
	"korkmmo/internal/protocol"
	"korkmmo/internal/sim/catalogs"
)

// randSource is the slice of *rand.Rand the simulation depends on; tests
// substitute scripted sources.
type randSource interface {
	Float64() float64
	Intn(n int) int
}

// rollLoot walks the table in order and grants the first entry whose
// independent chance-draw succeeds. At most one item per roll; table order is
// priority, so entries are never reordered and probabilities never summed.
// Returns nil when every draw fails.
func rollLoot(rng randSource, table []catalogs.LootEntry) *protocol.LootDrop {
	for _, e := range table {
		if rng.Float64() < e.Chance {
			qty := e.Min + rng.Intn(e.Max-e.Min+1)
			return &protocol.LootDrop{Name: e.Name, Qty: qty}
		}
	}
	return nil
}
