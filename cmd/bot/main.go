// Command bot is a scripted smoke-test client: it joins, wanders, searches
// tiles, crafts when it can, and chats what it finds.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"korkmmo/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "player name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, Name: *name}); err != nil {
		logger.Fatalf("send hello: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{conn: conn, log: logger, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	go b.act(stop)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeSelf:
			var self protocol.SelfMsg
			if err := json.Unmarshal(msg, &self); err != nil {
				continue
			}
			logger.Printf("joined id=%s name=%s inventory=%v", self.ID, self.Name, self.Inventory)

		case protocol.TypeLoot:
			var loot protocol.LootMsg
			if err := json.Unmarshal(msg, &loot); err != nil {
				continue
			}
			if loot.Loot != nil {
				logger.Printf("got %dx %s, inventory=%v", loot.Loot.Qty, loot.Loot.Name, loot.Inventory)
				b.setFiber(loot.Inventory["Fiber"])
			}

		case protocol.TypeError:
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				continue
			}
			logger.Printf("rejected: %s", em.Message)
		}
	}
}

type bot struct {
	conn *websocket.Conn
	log  *log.Logger
	rng  *rand.Rand

	// Written by the read loop, read by act.
	fiber atomic.Int64
}

func (b *bot) setFiber(n int) { b.fiber.Store(int64(n)) }

// act sends one intent per second: mostly wander, search the new tile, and
// craft rope whenever enough fiber has piled up.
func (b *bot) act(stop <-chan os.Signal) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-stop:
			_ = b.conn.Close()
			return
		case <-ticker.C:
		}

		if b.fiber.Load() >= 3 {
			_ = b.conn.WriteJSON(protocol.CraftMsg{Type: protocol.TypeCraft, RecipeName: "Rope"})
			_ = b.conn.WriteJSON(protocol.ChatMsg{Type: protocol.TypeChat, Text: "made some rope"})
			b.fiber.Store(0)
			continue
		}

		switch i % 3 {
		case 0, 1:
			dir := protocol.Dirs[b.rng.Intn(len(protocol.Dirs))]
			_ = b.conn.WriteJSON(protocol.MoveMsg{Type: protocol.TypeMove, Dir: dir})
		case 2:
			_ = b.conn.WriteJSON(protocol.SearchMsg{Type: protocol.TypeSearch})
		}

		if i > 0 && i%60 == 0 {
			_ = b.conn.WriteJSON(protocol.ChatMsg{
				Type: protocol.TypeChat,
				Text: fmt.Sprintf("still wandering, %d fiber so far", b.fiber.Load()),
			})
		}
	}
}
