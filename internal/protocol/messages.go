package protocol

// Client -> server messages. Every intent carries its type tag inline so the
// transport can route on BaseMessage before unmarshaling the full variant.

// hello: join the world under a display name.
type HelloMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// move: step one tile in a cardinal direction.
type MoveMsg struct {
	Type string `json:"type"`
	Dir  string `json:"dir"`
}

// search: search the tile the player is standing on.
type SearchMsg struct {
	Type string `json:"type"`
}

// craft: attempt a recipe by exact name.
type CraftMsg struct {
	Type       string `json:"type"`
	RecipeName string `json:"recipeName"`
}

// chat: say something to everyone.
type ChatMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Intent is the closed set of post-join client messages.
type Intent interface{ isIntent() }

func (MoveMsg) isIntent()   {}
func (SearchMsg) isIntent() {}
func (CraftMsg) isIntent()  {}
func (ChatMsg) isIntent()   {}

// Server -> client messages.

// self: private snapshot sent once on join.
type SelfMsg struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Inventory map[string]int `json:"inventory"`
	NoteText  string         `json:"noteText"`
}

// state: broadcast public projection of the whole world.
type StateMsg struct {
	Type    string        `json:"type"`
	World   WorldInfo     `json:"world"`
	Players []PlayerState `json:"players"`
}

type WorldInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PlayerState is the public projection of one player. It never carries
// inventory or vision data.
type PlayerState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"maxHp"`
	Stamina    int    `json:"stamina"`
	MaxStamina int    `json:"maxStamina"`
}

// vision: private fog-of-war window centered on the player.
// Tiles rows run north to south, columns west to east; out-of-bounds cells
// are null.
type VisionMsg struct {
	Type   string      `json:"type"`
	X      int         `json:"x"`
	Y      int         `json:"y"`
	Radius int         `json:"radius"`
	Tiles  [][]*string `json:"tiles"`
}

// loot: private result of a search or craft, with the updated inventory.
// Loot is null when a search found nothing.
type LootMsg struct {
	Type      string         `json:"type"`
	Loot      *LootDrop      `json:"loot"`
	Inventory map[string]int `json:"inventory"`
}

type LootDrop struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// chat:broadcast: a chat line, including world-flavored notices from "World".
type ChatBroadcastMsg struct {
	Type string `json:"type"`
	From string `json:"from"`
	Text string `json:"text"`
}

// error: private human-readable rejection of an intent.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
