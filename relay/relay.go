// Package relay contains the room-membership and message-dispatch core:
// admission, the room registry, and the classify/dispatch/broadcast path.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"

	"project-relay/contract"
	"project-relay/domain"
	"project-relay/moderation"
)

// Relay routes inbound messages: plain bodies go back out to the rest of the
// room, marker-tagged bodies go to a completion capability and the result is
// broadcast to the whole room under the synthetic AI identity.
//
// Each inbound message is handled on its own goroutine, so a pending
// completion suspends only that message, never the room. Completions issued
// concurrently finish in whatever order the service answers: their broadcast
// order is NOT guaranteed to match issuance order, nor to stay ordered
// relative to interleaved plain messages.
type Relay struct {
	log         *slog.Logger
	registry    contract.IRegistry
	chat        contract.Completer
	code        contract.Completer
	moderator   *moderation.Moderator
	aiTimeout   time.Duration
	sinkTimeout time.Duration
}

// NewRelay wires the dispatch core. moderator may be nil to relay plain
// bodies verbatim. aiTimeout bounds each completion call; zero disables the
// bound.
func NewRelay(log *slog.Logger, registry contract.IRegistry,
	chat, code contract.Completer, moderator *moderation.Moderator,
	aiTimeout, sinkTimeout time.Duration) *Relay {
	return &Relay{
		log:         log,
		registry:    registry,
		chat:        chat,
		code:        code,
		moderator:   moderator,
		aiTimeout:   aiTimeout,
		sinkTimeout: sinkTimeout,
	}
}

// HandleMessage classifies one inbound body and drives it to a terminal
// state: plain delivery, AI delivery, or error delivery. Nothing after
// admission is allowed to crash the room: any failure, including a panic
// while handling the message, is reported into the room as an error frame
// from the AI sender and the connection stays up.
func (r *Relay) HandleMessage(ctx context.Context, sess domain.Session, body string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("message handling panicked",
				"room", sess.Room,
				"author", sess.User.ID,
				"panic", rec)
			r.deliverFailure(sess.Room, fmt.Errorf("%v", rec))
		}
	}()

	msg := domain.NewMessage(body, sess.User)
	switch d := domain.Classify(msg.Body).(type) {
	case domain.CodeAI:
		r.dispatch(ctx, sess, msg, r.code, d.Prompt)
	case domain.ChatAI:
		r.dispatch(ctx, sess, msg, r.chat, d.Prompt)
	case domain.Plain:
		r.relayPlain(sess, msg)
	}
}

// relayPlain delivers a message body to every room member except the
// originator; the originator already has its own local copy.
func (r *Relay) relayPlain(sess domain.Session, msg domain.Message) {
	body := msg.Body
	if r.moderator != nil {
		censored, words := r.moderator.Censor(body)
		if len(words) > 0 {
			info := whatlanggo.Detect(body)
			r.log.Warn("censored relayed message",
				"message", msg.ID,
				"room", sess.Room,
				"author", sess.User.ID,
				"words", len(words),
				"lang", info.Lang.Iso6391())
			body = censored
		}
	}

	r.Broadcast(sess.Room, domain.Frame{Message: body, Sender: msg.Sender}, sess.ID)
}

// dispatch runs a single completion attempt, no retries. Success and failure
// both reach the whole room, including the requester, because only the relay
// holds the result.
func (r *Relay) dispatch(ctx context.Context, sess domain.Session, msg domain.Message, completer contract.Completer, prompt string) {
	if r.aiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.aiTimeout)
		defer cancel()
	}

	result, err := completer.Complete(ctx, prompt)
	if err != nil {
		r.log.Error("completion failed",
			"message", msg.ID,
			"room", sess.Room,
			"author", sess.User.ID,
			"error", err)
		r.deliverFailure(sess.Room, err)
		return
	}

	r.Broadcast(sess.Room, domain.Frame{Message: result, Sender: domain.AISender}, "")
}

// deliverFailure reports a post-admission failure to the entire room as a
// chat-style error message from the AI sender, not a silent drop and not a
// connection close.
func (r *Relay) deliverFailure(roomID domain.RoomID, cause error) {
	r.Broadcast(roomID, domain.Frame{
		Message: fmt.Sprintf("Sorry, I encountered an error: %v", cause),
		Sender:  domain.AISender,
	}, "")
}

// Broadcast delivers a frame to the room's current members. Delivery uses a
// fresh per-sink deadline detached from the caller, so a frame produced by a
// completion that outlived its requester still reaches the remaining members.
func (r *Relay) Broadcast(roomID domain.RoomID, frame domain.Frame, excludeSessionID string) {
	for _, sink := range r.registry.SinksForRoom(roomID, excludeSessionID) {
		ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
		if err := sink.Consume(ctx, frame); err != nil {
			r.log.Error("frame delivery failed", "room", roomID, "error", err)
		}
		cancel()
	}
}
