package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"project-relay/auth"
	"project-relay/directory"
	"project-relay/domain"
	"project-relay/moderation"
	"project-relay/relay"
	"project-relay/ws"
)

// Envelope mirrors the wire contract from the client side.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type OutboundMessage struct {
	Message string `json:"message"`
}

// scriptedCompleter stands in for the AI backend so scenarios stay
// deterministic. Each step installs the behaviour it expects.
type scriptedCompleter struct {
	mu sync.Mutex
	fn func(prompt string) (string, error)
}

func (c *scriptedCompleter) Script(fn func(prompt string) (string, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn = fn
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	fn := c.fn
	c.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("no completion scripted for prompt %q", prompt)
	}
	return fn(prompt)
}

type BaseWsSuite struct {
	suite.Suite
	Config    Config
	ProjectID string
	Chat      *scriptedCompleter
	Code      *scriptedCompleter

	wsBase string
	server *httptest.Server
}

// SetupSuite loads the environment configuration and, unless RELAY_ADDR
// points at a running relay, assembles a full in-process stack: BadgerDB
// directory, moderation, registry, relay core and websocket gateway.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.RelayAddr != "" {
		s.wsBase = "ws://" + s.Config.RelayAddr + "/ws"
		s.ProjectID = s.Config.ProjectID
		s.Require().NotEmpty(s.ProjectID, "E2E_PROJECT_ID is required with RELAY_ADDR")
		return
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = db.Close() })

	store := directory.NewBadgerStore(db)
	project, err := store.EnsureProject(context.Background(), "e2e-room")
	s.Require().NoError(err)
	s.ProjectID = project.ID

	moderator, err := moderation.NewModerator([]string{"blast"}, '*')
	s.Require().NoError(err)

	s.Chat = &scriptedCompleter{}
	s.Code = &scriptedCompleter{}

	registry := relay.NewRegistry()
	core := relay.NewRelay(log, registry, s.Chat, s.Code, moderator,
		10*time.Second, 5*time.Second)
	gatekeeper := relay.NewGatekeeper(auth.NewVerifier(s.Config.JWTSecret), store)

	s.server = httptest.NewServer(ws.NewGateway(log, gatekeeper, registry, core, 64))
	s.T().Cleanup(s.server.Close)
	s.wsBase = "ws" + strings.TrimPrefix(s.server.URL, "http")
}

// Header prints a colorized step banner in the logs, matching the
// readability conventions of the rest of the suites.
func (s *BaseWsSuite) Header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Join opens an authenticated connection into the suite's room for the given
// member identity.
func (s *BaseWsSuite) Join(name string, user domain.Identity) *websocket.Conn {
	s.Header(name)

	token, err := auth.GenerateToken(s.Config.JWTSecret, user.ID, user.Email, time.Hour)
	s.Require().NoError(err)

	conn, resp, err := websocket.DefaultDialer.Dial(
		s.wsBase+"?projectId="+s.ProjectID+"&auth="+token, nil)
	s.Require().NoError(err, "Failed to join room %s", s.ProjectID)
	if resp != nil {
		_ = resp.Body.Close()
	}
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send publishes one project-message from the connection.
func (s *BaseWsSuite) Send(conn *websocket.Conn, message string) {
	data, err := json.Marshal(OutboundMessage{Message: message})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(Envelope{Event: ws.EventProjectMessage, Data: data}))
	if s.Config.DebugJSON {
		s.T().Logf("SENT:\n%s", data)
	}
}

// Receive blocks for the next frame on the connection.
func (s *BaseWsSuite) Receive(conn *websocket.Conn) domain.Frame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var env Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	s.Require().Equal(ws.EventProjectMessage, env.Event)
	if s.Config.DebugJSON {
		s.T().Logf("RECEIVED:\n%s", env.Data)
	}

	var frame domain.Frame
	s.Require().NoError(json.Unmarshal(env.Data, &frame))
	return frame
}

// ExpectSilence asserts that no frame arrives on the connection within a
// short window.
func (s *BaseWsSuite) ExpectSilence(conn *websocket.Conn) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	var env Envelope
	err := conn.ReadJSON(&env)
	s.Require().Error(err, "Expected silence, received %+v", env)
}
