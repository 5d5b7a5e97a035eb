package protocol

import "encoding/json"

// Message types. Client -> server types double as intent names.
const (
	TypeHello  = "hello"
	TypeMove   = "move"
	TypeSearch = "search"
	TypeCraft  = "craft"
	TypeChat   = "chat"

	TypeSelf          = "self"
	TypeState         = "state"
	TypeVision        = "vision"
	TypeLoot          = "loot"
	TypeChatBroadcast = "chat:broadcast"
	TypeError         = "error"
)

// Directions accepted by a move intent, in wire order.
var Dirs = []string{"north", "south", "east", "west"}

func ValidDir(dir string) bool {
	for _, d := range Dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
