// Package worldtest drives a World through its Apply* entry points without
// running the loop goroutine, capturing every frame a client would receive.
package worldtest

import (
	"encoding/json"
	"testing"
	"time"

	"korkmmo/internal/protocol"
	"korkmmo/internal/sim/catalogs"
	"korkmmo/internal/sim/world"
)

// Harness owns a world plus per-client outboxes. All calls happen on the test
// goroutine, so the single-writer invariant of the world loop holds.
type Harness struct {
	t     *testing.T
	World *world.World

	now   time.Time
	boxes map[string]chan []byte
	joins map[string]world.JoinResponse
}

func New(t *testing.T, cfg world.Config) *Harness {
	t.Helper()
	w, err := world.New(cfg, testCatalogs())
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	h := &Harness{
		t:     t,
		World: w,
		now:   time.Unix(1_700_000_000, 0),
		boxes: map[string]chan []byte{},
		joins: map[string]world.JoinResponse{},
	}
	w.SetClock(func() time.Time { return h.now })
	return h
}

// Advance moves the fake clock forward.
func (h *Harness) Advance(d time.Duration) { h.now = h.now.Add(d) }

// Join connects a client and returns the id the world assigned.
func (h *Harness) Join(name string) string {
	h.t.Helper()
	out := make(chan []byte, 64)
	resp := make(chan world.JoinResponse, 1)
	h.World.ApplyJoin(world.JoinRequest{Name: name, Out: out, Resp: resp})
	jr := <-resp
	h.boxes[jr.ID] = out
	h.joins[jr.ID] = jr
	return jr.ID
}

func (h *Harness) Leave(id string) { h.World.ApplyLeave(id) }

func (h *Harness) Send(id string, intent protocol.Intent) {
	h.World.ApplyIntent(world.IntentEnvelope{PlayerID: id, Intent: intent})
}

// JoinResponse returns the private payloads captured at join time.
func (h *Harness) JoinResponse(id string) world.JoinResponse {
	h.t.Helper()
	jr, ok := h.joins[id]
	if !ok {
		h.t.Fatalf("no join response recorded for %s", id)
	}
	return jr
}

// Drain returns every frame queued for id since the last call, decoded to its
// base type alongside the raw bytes.
func (h *Harness) Drain(id string) []Frame {
	h.t.Helper()
	box, ok := h.boxes[id]
	if !ok {
		h.t.Fatalf("unknown client %s", id)
	}
	var frames []Frame
	for {
		select {
		case b := <-box:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				h.t.Fatalf("undecodable frame %q: %v", b, err)
			}
			frames = append(frames, Frame{Type: base.Type, Raw: b})
		default:
			return frames
		}
	}
}

// LastOfType drains id's box and returns the newest frame of the given type,
// or fails the test if none arrived.
func (h *Harness) LastOfType(id, typ string) Frame {
	h.t.Helper()
	var found *Frame
	for _, f := range h.Drain(id) {
		if f.Type == typ {
			f := f
			found = &f
		}
	}
	if found == nil {
		h.t.Fatalf("no %q frame for %s", typ, id)
	}
	return *found
}

type Frame struct {
	Type string
	Raw  []byte
}

// Decode unmarshals the frame into v.
func (f Frame) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(f.Raw, v); err != nil {
		t.Fatalf("decode %s frame: %v", f.Type, err)
	}
}

func testCatalogs() *catalogs.Catalogs {
	rope := catalogs.Recipe{
		Name:     "Rope",
		Requires: map[string]int{"Fiber": 3},
		Gives:    map[string]int{"Rope": 1},
	}
	return &catalogs.Catalogs{
		Recipes: catalogs.RecipeCatalog{
			List:   []catalogs.Recipe{rope},
			ByName: map[string]catalogs.Recipe{"Rope": rope},
		},
		Loot: catalogs.LootCatalog{
			ByBiome: map[string][]catalogs.LootEntry{
				"plains":   {{Name: "Fiber", Chance: 0.45, Min: 1, Max: 3}},
				"forest":   {{Name: "Wood", Chance: 0.55, Min: 1, Max: 3}},
				"desert":   {{Name: "Stone", Chance: 0.55, Min: 1, Max: 3}},
				"mountain": {{Name: "Stone", Chance: 0.6, Min: 1, Max: 4}},
			},
		},
	}
}
