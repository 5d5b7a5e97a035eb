package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"korkmmo/internal/protocol"
	"korkmmo/internal/sim/world"
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	readTimeout      = 60 * time.Second
	outQueueSize     = 32
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}
		s.log.Printf("client %s connected from %s", playerID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine: drains the world's outbox for this client.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		s.readLoop(conn, playerID)

		s.world.Leave() <- playerID
		s.log.Printf("client %s disconnected", playerID)
	}
}

// readLoop decodes frames and forwards well-formed intents to the world.
// Malformed frames and unknown types are dropped; only a bad move direction
// earns an error frame, since the world never sees the intent.
func (s *Server) readLoop(conn *websocket.Conn, playerID string) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}

		var intent protocol.Intent
		switch base.Type {
		case protocol.TypeMove:
			var m protocol.MoveMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			if !protocol.ValidDir(m.Dir) {
				s.writeJSON(conn, protocol.ErrorMsg{
					Type:    protocol.TypeError,
					Message: protocol.ReasonBadDirection,
				})
				continue
			}
			intent = m
		case protocol.TypeSearch:
			var m protocol.SearchMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			intent = m
		case protocol.TypeCraft:
			var m protocol.CraftMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			intent = m
		case protocol.TypeChat:
			var m protocol.ChatMsg
			if err := json.Unmarshal(msg, &m); err != nil {
				continue
			}
			intent = m
		default:
			continue
		}

		s.world.Inbox() <- world.IntentEnvelope{PlayerID: playerID, Intent: intent}
	}
}

// handshake waits for the hello frame, joins the world, and writes the
// private self and vision payloads before any broadcast can reach the
// connection.
func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected hello"),
			time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}

	out = make(chan []byte, outQueueSize)
	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{
		ID:   uuid.NewString(),
		Name: hello.Name,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh

	if err := s.writeJSON(conn, resp.Self); err != nil {
		s.world.Leave() <- resp.ID
		return "", nil
	}
	if err := s.writeJSON(conn, resp.Vision); err != nil {
		s.world.Leave() <- resp.ID
		return "", nil
	}
	return resp.ID, out
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
