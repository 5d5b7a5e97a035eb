package world

import (
	"sort"
	"time"

	"korkmmo/internal/protocol"
)

// Player is the server-side entity behind one connection. All mutation
// happens on the world loop goroutine, one intent at a time.
type Player struct {
	ID   string
	Name string

	X, Y int

	HP         int
	MaxHP      int
	Stamina    int
	MaxStamina int

	// Inventory maps item name to a positive count. Entries that reach zero
	// are removed, never stored.
	Inventory map[string]int

	NoteText string

	LastActionAt time.Time
}

func (p *Player) addItem(name string, qty int) {
	p.Inventory[name] += qty
}

func (p *Player) inventoryCopy() map[string]int {
	out := make(map[string]int, len(p.Inventory))
	for k, v := range p.Inventory {
		out[k] = v
	}
	return out
}

func (p *Player) public() protocol.PlayerState {
	return protocol.PlayerState{
		ID:         p.ID,
		Name:       p.Name,
		X:          p.X,
		Y:          p.Y,
		HP:         p.HP,
		MaxHP:      p.MaxHP,
		Stamina:    p.Stamina,
		MaxStamina: p.MaxStamina,
	}
}

// Registry owns the live set of players, keyed by connection identity.
type Registry struct {
	byID map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Player{}}
}

func (r *Registry) Get(id string) *Player { return r.byID[id] }

// Set registers p, replacing any previous player under the same id.
func (r *Registry) Set(p *Player) { r.byID[p.ID] = p }

// Delete removes the player under id. Deleting a missing id is a no-op.
func (r *Registry) Delete(id string) { delete(r.byID, id) }

func (r *Registry) Len() int { return len(r.byID) }

// Values returns a snapshot of the current players, sorted by id for
// deterministic iteration.
func (r *Registry) Values() []*Player {
	out := make([]*Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
