package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"project-relay/domain"
	"project-relay/mocks"
	"project-relay/moderation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// chanSink records delivered frames for assertions.
type chanSink struct {
	frames chan domain.Frame
}

func newChanSink() *chanSink {
	return &chanSink{frames: make(chan domain.Frame, 8)}
}

func (s *chanSink) Consume(_ context.Context, frame domain.Frame) error {
	s.frames <- frame
	return nil
}

func (s *chanSink) next(t *testing.T) domain.Frame {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered in time")
		return domain.Frame{}
	}
}

func (s *chanSink) assertEmpty(t *testing.T) {
	t.Helper()
	select {
	case f := <-s.frames:
		t.Fatalf("unexpected frame delivered: %+v", f)
	default:
	}
}

type fixture struct {
	relay    *Relay
	registry *Registry
	chat     *mocks.MockCompleter
	code     *mocks.MockCompleter
}

func newFixture(t *testing.T, moderator *moderation.Moderator) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockCompleter(ctrl)
	code := mocks.NewMockCompleter(ctrl)
	registry := NewRegistry()
	r := NewRelay(testLogger(), registry, chat, code, moderator, time.Second, time.Second)
	return fixture{relay: r, registry: registry, chat: chat, code: code}
}

func session(id string, room domain.RoomID) domain.Session {
	return domain.Session{
		ID:   id,
		User: domain.Identity{ID: "user-" + id, Email: id + "@example.com"},
		Room: room,
	}
}

// Scenario: a plain message reaches everyone in the room except its sender,
// who already has a local copy.
func TestRelay_PlainMessageExcludesSender(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1, s2 := session("s1", "p1"), session("s2", "p1")
	sink1, sink2 := newChanSink(), newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, sink1)
	f.registry.Subscribe(s2.ID, s2.Room, sink2)

	f.relay.HandleMessage(context.Background(), s1, "hello")

	frame := sink2.next(t)
	req.Equal("hello", frame.Message)
	req.Equal(s1.User, frame.Sender)
	sink1.assertEmpty(t)
}

// A message broadcast in one room is never observed in another.
func TestRelay_RoomIsolation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1 := session("s1", "r1")
	other := newChanSink()
	f.registry.Subscribe(s1.ID, "r1", newChanSink())
	f.registry.Subscribe("s9", "r2", other)

	f.relay.HandleMessage(context.Background(), s1, "secret")

	other.assertEmpty(t)
	req.Len(f.registry.SinksForRoom("r2", ""), 1)
}

// Scenario: an AI-derived frame reaches the whole room including the
// requester, because only the relay holds the result.
func TestRelay_CodeDispatchIncludesSender(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1, s2 := session("s1", "p1"), session("s2", "p1")
	sink1, sink2 := newChanSink(), newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, sink1)
	f.registry.Subscribe(s2.ID, s2.Room, sink2)

	f.code.EXPECT().Complete(gomock.Any(), "make a counter").Return(`{"text":"done"}`, nil)

	f.relay.HandleMessage(context.Background(), s1, "@ai_code make a counter")

	for _, sink := range []*chanSink{sink1, sink2} {
		frame := sink.next(t)
		req.Equal(`{"text":"done"}`, frame.Message)
		req.Equal(domain.AISender, frame.Sender)
	}
}

func TestRelay_ChatDispatchUsesDefaultPrompt(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1 := session("s1", "p1")
	sink1 := newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, sink1)

	f.chat.EXPECT().Complete(gomock.Any(), domain.DefaultChatPrompt).Return("hi there", nil)

	f.relay.HandleMessage(context.Background(), s1, "@ai   ")

	frame := sink1.next(t)
	req.Equal("hi there", frame.Message)
	req.Equal(domain.AISender, frame.Sender)
}

// A failing completion produces exactly one error frame from the AI sender;
// nothing is dropped and no connection state is touched.
func TestRelay_DispatchFailureContainment(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1, s2 := session("s1", "p1"), session("s2", "p1")
	sink1, sink2 := newChanSink(), newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, sink1)
	f.registry.Subscribe(s2.ID, s2.Room, sink2)

	f.chat.EXPECT().Complete(gomock.Any(), "x").Return("", fmt.Errorf("AI chat generation failed: boom"))

	f.relay.HandleMessage(context.Background(), s1, "@ai x")

	for _, sink := range []*chanSink{sink1, sink2} {
		frame := sink.next(t)
		req.Equal(domain.AISender, frame.Sender)
		req.Contains(frame.Message, "Sorry, I encountered an error")
		sink.assertEmpty(t)
	}
	req.Len(f.registry.SinksForRoom("p1", ""), 2, "membership must survive a dispatch failure")
}

// Even a panic while handling a message stays inside the room: the members
// see an error frame and the handler returns normally.
func TestRelay_PanicRecovery(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1 := session("s1", "p1")
	sink1 := newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, sink1)

	f.code.EXPECT().Complete(gomock.Any(), "boom").DoAndReturn(
		func(context.Context, string) (string, error) {
			panic("completion exploded")
		})

	req.NotPanics(func() {
		f.relay.HandleMessage(context.Background(), s1, "@ai_code boom")
	})

	frame := sink1.next(t)
	req.Equal(domain.AISender, frame.Sender)
	req.Contains(frame.Message, "Sorry, I encountered an error")
}

func TestRelay_ModeratorCensorsPlainBodies(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)
	f := newFixture(t, moderator)

	s1, s2 := session("s1", "p1"), session("s2", "p1")
	sink2 := newChanSink()
	f.registry.Subscribe(s1.ID, s1.Room, newChanSink())
	f.registry.Subscribe(s2.ID, s2.Room, sink2)

	f.relay.HandleMessage(context.Background(), s1, "the badger returns")

	req.Equal("the ****** returns", sink2.next(t).Message)
}

// Concurrent dispatches complete independently; the test only asserts that
// every result arrives, not in which order, because broadcast order relative
// to issuance order is an explicit non-guarantee.
func TestRelay_ConcurrentDispatchesAllArrive(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	s1 := session("s1", "p1")
	sink1 := &chanSink{frames: make(chan domain.Frame, 16)}
	f.registry.Subscribe(s1.ID, s1.Room, sink1)

	f.chat.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, prompt string) (string, error) {
			return "echo " + prompt, nil
		}).Times(5)

	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func(i int) {
			f.relay.HandleMessage(context.Background(), s1, fmt.Sprintf("@ai q%d", i))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("dispatch did not finish in time")
		}
	}

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		seen[sink1.next(t).Message] = true
	}
	req.Len(seen, 5)
}
