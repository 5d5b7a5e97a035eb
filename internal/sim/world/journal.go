package world

import "time"

// IntentLogger receives one record per handled join/leave/intent. Implemented
// in internal/persistence; may be nil. Implementations must not block the
// world loop.
type IntentLogger interface {
	WriteIntent(rec IntentRecord) error
}

type IntentRecord struct {
	At       time.Time `json:"at"`
	PlayerID string    `json:"player_id"`
	Kind     string    `json:"kind"` // "join","leave","move","search","craft","chat"
	OK       bool      `json:"ok"`
	Reason   string    `json:"reason,omitempty"`
	Detail   string    `json:"detail,omitempty"` // direction, recipe or loot item
}

func (w *World) logIntent(playerID, kind string, ok bool, reason, detail string) {
	if w.journal == nil {
		return
	}
	_ = w.journal.WriteIntent(IntentRecord{
		At:       w.clock(),
		PlayerID: playerID,
		Kind:     kind,
		OK:       ok,
		Reason:   reason,
		Detail:   detail,
	})
}
