// Package ws exposes the relay over websocket connections: admission on
// upgrade, then a named-event JSON protocol on the established channel.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"project-relay/contract"
	"project-relay/domain"
	relayerrors "project-relay/errors"
	"project-relay/relay"
)

// Event names of the runtime contract. EventReserved exists for protocol
// compatibility and carries no payload semantics.
const (
	EventProjectMessage = "project-message"
	EventReserved       = "event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// envelope frames every message on the wire: a named event plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// inboundMessage is the payload of an inbound project-message event.
type inboundMessage struct {
	Message string `json:"message"`
}

// Gateway upgrades HTTP requests into relay sessions.
type Gateway struct {
	log        *slog.Logger
	gatekeeper *relay.Gatekeeper
	registry   contract.IRegistry
	relay      *relay.Relay
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewGateway(log *slog.Logger, gatekeeper *relay.Gatekeeper,
	registry contract.IRegistry, r *relay.Relay, bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		gatekeeper: gatekeeper,
		registry:   registry,
		relay:      r,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP admits the handshake and, on success, runs the connection until
// it closes. Admission failures surface as a connection-level error before
// any events are exchanged; rejected clients are invisible to the room.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hs := relay.Handshake{
		AuthToken:           r.URL.Query().Get("auth"),
		AuthorizationHeader: r.Header.Get("Authorization"),
		ProjectID:           r.URL.Query().Get("projectId"),
	}

	sess, err := g.gatekeeper.Admit(r.Context(), hs)
	if err != nil {
		status, message := admissionStatus(err)
		g.log.Warn("admission refused", "reason", err, "remote_addr", r.RemoteAddr)
		http.Error(w, message, status)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", "error", err)
		return
	}

	// The request context is cancelled right after the upgrade; the
	// connection gets its own lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	snk := newSink(g.bufferSize)
	g.registry.Subscribe(sess.ID, sess.Room, snk)
	g.log.Info("user connected", "session", sess.ID, "user", sess.User.ID, "room", sess.Room)

	go g.writePump(ctx, conn, snk)
	g.readPump(conn, sess)

	g.registry.Unsubscribe(sess.ID, sess.Room)
	cancel()
	_ = conn.Close()
	g.log.Info("user disconnected", "session", sess.ID, "room", sess.Room)
}

// admissionStatus maps the admission taxonomy onto the transport contract.
// Missing and invalid credentials collapse into the same external message.
func admissionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, relayerrors.ErrInvalidProjectID):
		return http.StatusBadRequest, "Invalid projectId"
	case errors.Is(err, relayerrors.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found"
	default:
		return http.StatusUnauthorized, "Authentication error"
	}
}

// readPump consumes inbound envelopes until the connection drops. Each
// project-message is handled on its own goroutine so a pending completion
// never blocks this session's reads or the room.
func (g *Gateway) readPump(conn *websocket.Conn, sess domain.Session) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Warn("read failed", "session", sess.ID, "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.log.Debug("dropping malformed frame", "session", sess.ID, "error", err)
			continue
		}

		switch env.Event {
		case EventProjectMessage:
			var in inboundMessage
			if err := json.Unmarshal(env.Data, &in); err != nil {
				g.log.Debug("dropping malformed payload", "session", sess.ID, "error", err)
				continue
			}
			// Detached from the connection lifetime: a dispatch still in
			// flight when this session disconnects completes and delivers
			// to the remaining members.
			go g.relay.HandleMessage(context.Background(), sess, in.Message)
		case EventReserved:
			// Reserved no-op event.
		default:
			g.log.Debug("unknown event", "session", sess.ID, "event", env.Event)
		}
	}
}

// writePump owns all writes on the connection: outbound frames and pings.
func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, snk *sink) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case frame := <-snk.frames:
			payload, err := json.Marshal(frame)
			if err != nil {
				g.log.Error("frame marshal failed", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(envelope{Event: EventProjectMessage, Data: payload}); err != nil {
				g.log.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
