package world

// Debug helpers for tests and tooling. They touch loop-owned state directly,
// so they must only be used before Run starts or interleaved with the Apply*
// methods on a single goroutine.

// DebugGrid exposes the tile grid.
func (w *World) DebugGrid() *Grid { return w.grid }

// DebugPlayer returns the live player entity for id, or nil.
func (w *World) DebugPlayer(id string) *Player { return w.players.Get(id) }

// DebugSetStamina clamps v into [0, maxStamina] and applies it.
func (w *World) DebugSetStamina(id string, v int) {
	p := w.players.Get(id)
	if p == nil {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > p.MaxStamina {
		v = p.MaxStamina
	}
	p.Stamina = v
}

// DebugAddItem grants qty of item to the player's inventory.
func (w *World) DebugAddItem(id, item string, qty int) {
	p := w.players.Get(id)
	if p == nil {
		return
	}
	p.addItem(item, qty)
}

// DebugSetPos teleports the player; the position must be in bounds.
func (w *World) DebugSetPos(id string, x, y int) {
	p := w.players.Get(id)
	if p == nil || !w.grid.InBounds(x, y) {
		return
	}
	p.X, p.Y = x, y
}
