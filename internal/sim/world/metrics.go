package world

// WorldMetrics is a point-in-time gauge snapshot, safe to read from any
// goroutine.
type WorldMetrics struct {
	Players     int         `json:"players"`
	Clients     int         `json:"clients"`
	Intents     uint64      `json:"intents"`
	QueueDepths QueueDepths `json:"queue_depths"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) Metrics() WorldMetrics {
	return WorldMetrics{
		Players: int(w.playerCount.Load()),
		Clients: int(w.clientCount.Load()),
		Intents: w.intentCount.Load(),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
	}
}
