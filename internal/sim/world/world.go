package world

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"korkmmo/internal/protocol"
	"korkmmo/internal/sim/catalogs"
)

type JoinRequest struct {
	// ID is the connection identity minted by the transport. If empty, the
	// world assigns one.
	ID   string
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

// JoinResponse carries the private join payloads back to the transport, which
// writes them on the connection before any broadcast traffic.
type JoinResponse struct {
	ID     string
	Self   protocol.SelfMsg
	Vision protocol.VisionMsg
}

type IntentEnvelope struct {
	PlayerID string
	Intent   protocol.Intent
}

// World is the single-threaded authoritative simulation. All state must be
// accessed only from the world loop goroutine: Run serializes every join,
// leave, intent and regen tick, so an action's validate-then-commit sequence
// never interleaves with another.
type World struct {
	cfg  Config
	cats *catalogs.Catalogs

	grid    *Grid
	players *Registry
	clients map[string]*clientState

	rng   *rand.Rand
	clock func() time.Time

	inbox chan IntentEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextPlayerNum atomic.Uint64

	// Gauges readable from other goroutines (metrics endpoint).
	playerCount atomic.Int64
	clientCount atomic.Int64
	intentCount atomic.Uint64

	// Optional intent journal (may be nil).
	journal IntentLogger
}

type clientState struct {
	Out chan []byte
}

func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	cfg.applyDefaults()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid world dimensions %dx%d", cfg.Width, cfg.Height)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	w := &World{
		cfg:     cfg,
		cats:    cats,
		grid:    newGrid(cfg.Width, cfg.Height, rng),
		players: NewRegistry(),
		clients: map[string]*clientState{},
		rng:     rng,
		clock:   time.Now,
		inbox:   make(chan IntentEnvelope, 256),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan string, 64),
		stop:    make(chan struct{}),
	}
	return w, nil
}

func (w *World) SetIntentLogger(l IntentLogger) { w.journal = l }

// SetClock replaces the wall clock. Test use only; call before Run.
func (w *World) SetClock(clock func() time.Time) { w.clock = clock }

func (w *World) Inbox() chan<- IntentEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) Config() Config { return w.cfg }

func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.RegenInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.ApplyJoin(req)
		case id := <-w.leave:
			w.ApplyLeave(id)
		case env := <-w.inbox:
			w.ApplyIntent(env)
		case <-ticker.C:
			w.ApplyRegen()
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// ApplyJoin registers a player and answers with the private self and vision
// payloads, then broadcasts the updated state. Run calls this from the loop;
// tests may call it directly in place of Run.
func (w *World) ApplyJoin(req JoinRequest) {
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("P%d", w.nextPlayerNum.Add(1))
	}
	now := w.clock()

	starter := make(map[string]int, len(w.cfg.StarterItems))
	for item, qty := range w.cfg.StarterItems {
		starter[item] = qty
	}

	p := &Player{
		ID:           id,
		Name:         sanitizeName(req.Name, w.cfg.NameMaxLen, w.cfg.DefaultName),
		X:            w.cfg.Width / 2,
		Y:            w.cfg.Height / 2,
		HP:           w.cfg.MaxHP,
		MaxHP:        w.cfg.MaxHP,
		Stamina:      w.cfg.MaxStamina,
		MaxStamina:   w.cfg.MaxStamina,
		Inventory:    starter,
		NoteText:     w.cfg.NoteText,
		LastActionAt: now,
	}
	w.players.Set(p)
	w.playerCount.Store(int64(w.players.Len()))

	if req.Out != nil {
		w.clients[id] = &clientState{Out: req.Out}
		w.clientCount.Store(int64(len(w.clients)))
	}

	if req.Resp != nil {
		// The response crosses goroutines; copy the inventory so later loop
		// iterations cannot race the transport's marshal.
		req.Resp <- JoinResponse{
			ID: id,
			Self: protocol.SelfMsg{
				Type:      protocol.TypeSelf,
				ID:        p.ID,
				Name:      p.Name,
				Inventory: p.inventoryCopy(),
				NoteText:  p.NoteText,
			},
			Vision: w.visionFor(p),
		}
	}

	w.logIntent(id, "join", true, "", p.Name)
	w.broadcastState()
}

// ApplyLeave deregisters a player. Unknown ids are a no-op.
func (w *World) ApplyLeave(id string) {
	p := w.players.Get(id)
	_, hadClient := w.clients[id]
	if p == nil && !hadClient {
		return
	}

	delete(w.clients, id)
	w.players.Delete(id)
	w.playerCount.Store(int64(w.players.Len()))
	w.clientCount.Store(int64(len(w.clients)))

	w.logIntent(id, "leave", true, "", "")
	w.broadcastState()
}

// ApplyIntent resolves one client intent to completion. Intents from ids with
// no registered player are silently dropped.
func (w *World) ApplyIntent(env IntentEnvelope) {
	p := w.players.Get(env.PlayerID)
	if p == nil {
		return
	}
	w.intentCount.Add(1)

	now := w.clock()
	switch m := env.Intent.(type) {
	case protocol.MoveMsg:
		w.applyMove(p, m.Dir, now)
	case protocol.SearchMsg:
		w.applySearch(p, now)
	case protocol.CraftMsg:
		w.applyCraft(p, m.RecipeName)
	case protocol.ChatMsg:
		w.applyChat(p, m.Text)
	}
}

func (w *World) applyMove(p *Player, dir string, now time.Time) {
	out := movePlayer(w.grid, p, dir, now)
	w.logIntent(p.ID, "move", out.ok, out.reason, dir)
	if !out.ok {
		w.sendError(p.ID, out.reason)
		return
	}

	w.sendTo(p.ID, protocol.ChatBroadcastMsg{
		Type: protocol.TypeChatBroadcast,
		From: "World",
		Text: fmt.Sprintf("You entered %s.", out.biome),
	})
	w.sendVision(p)
	w.broadcastState()
}

func (w *World) applySearch(p *Player, now time.Time) {
	out := searchTile(w.grid, p, &w.cats.Loot, w.rng, w.cfg.SearchCooldown, now)
	detail := ""
	if out.loot != nil {
		detail = out.loot.Name
	}
	w.logIntent(p.ID, "search", out.ok, out.reason, detail)
	if !out.ok {
		w.sendError(p.ID, out.reason)
		return
	}

	w.sendTo(p.ID, protocol.LootMsg{
		Type:      protocol.TypeLoot,
		Loot:      out.loot,
		Inventory: p.Inventory,
	})
	w.sendVision(p)
	w.broadcastState()
}

func (w *World) applyCraft(p *Player, recipeName string) {
	out := craftRecipe(p, &w.cats.Recipes, recipeName)
	w.logIntent(p.ID, "craft", out.ok, out.reason, recipeName)
	if !out.ok {
		w.sendError(p.ID, out.reason)
		return
	}

	w.sendTo(p.ID, protocol.LootMsg{
		Type:      protocol.TypeLoot,
		Loot:      &protocol.LootDrop{Name: out.recipe.Name, Qty: 1},
		Inventory: p.Inventory,
	})
	w.sendTo(p.ID, protocol.ChatBroadcastMsg{
		Type: protocol.TypeChatBroadcast,
		From: "World",
		Text: fmt.Sprintf("Crafted %s.", out.recipe.Name),
	})
	w.broadcastState()
}

func (w *World) applyChat(p *Player, text string) {
	msg := truncateRunes(strings.TrimSpace(text), w.cfg.ChatMaxLen)
	if msg == "" {
		return
	}
	w.logIntent(p.ID, "chat", true, "", "")
	w.broadcast(protocol.ChatBroadcastMsg{
		Type: protocol.TypeChatBroadcast,
		From: p.Name,
		Text: msg,
	})
}

// ApplyRegen is the periodic tick: +1 stamina per player up to max. State is
// rebroadcast only when at least one player changed.
func (w *World) ApplyRegen() {
	changed := false
	for _, p := range w.players.Values() {
		if p.Stamina < p.MaxStamina {
			p.Stamina++
			changed = true
		}
	}
	if changed {
		w.broadcastState()
	}
}

func (w *World) visionFor(p *Player) protocol.VisionMsg {
	cells := w.grid.Vision(p.X, p.Y, w.cfg.ViewRadius)
	tiles := make([][]*string, len(cells))
	for i, row := range cells {
		tiles[i] = make([]*string, len(row))
		for j, b := range row {
			if b == nil {
				continue
			}
			s := string(*b)
			tiles[i][j] = &s
		}
	}
	return protocol.VisionMsg{
		Type:   protocol.TypeVision,
		X:      p.X,
		Y:      p.Y,
		Radius: w.cfg.ViewRadius,
		Tiles:  tiles,
	}
}

func (w *World) sendVision(p *Player) {
	w.sendTo(p.ID, w.visionFor(p))
}

func (w *World) sendError(id, reason string) {
	w.sendTo(id, protocol.ErrorMsg{Type: protocol.TypeError, Message: reason})
}

// buildState is the public projection broadcast to everyone: never inventory,
// never vision.
func (w *World) buildState() protocol.StateMsg {
	players := w.players.Values()
	out := make([]protocol.PlayerState, 0, len(players))
	for _, p := range players {
		out = append(out, p.public())
	}
	return protocol.StateMsg{
		Type:    protocol.TypeState,
		World:   protocol.WorldInfo{Width: w.cfg.Width, Height: w.cfg.Height},
		Players: out,
	}
}

func (w *World) broadcastState() {
	w.broadcast(w.buildState())
}

func (w *World) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for _, cl := range w.clients {
		sendLatest(cl.Out, b)
	}
}

func (w *World) sendTo(id string, v any) {
	cl := w.clients[id]
	if cl == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}

// sendLatest drops the oldest queued message when a client's channel is full
// rather than stalling the loop.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func sanitizeName(name string, maxLen int, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return truncateRunes(name, maxLen)
}

func truncateRunes(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
