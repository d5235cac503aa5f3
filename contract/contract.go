//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"project-relay/domain"
)

// EventSink delivers outbound frames to one connected session.
// The transport owns the sink; the relay only pushes into it.
type EventSink interface {
	Consume(ctx context.Context, frame domain.Frame) error
}

// IRegistry tracks room membership. Operations on the same room are
// linearized; operations on distinct rooms proceed independently.
type IRegistry interface {
	Subscribe(sessionID string, roomID domain.RoomID, sink EventSink)
	Unsubscribe(sessionID string, roomID domain.RoomID)
	// SinksForRoom returns a snapshot of the room's sinks. A non-empty
	// excludeSessionID leaves that member out of the snapshot.
	SinksForRoom(roomID domain.RoomID, excludeSessionID string) []EventSink
}

// IDirectory resolves a project identifier to a project record.
// It returns errors.ErrProjectNotFound when the id is unknown.
type IDirectory interface {
	FindProject(ctx context.Context, id string) (domain.Project, error)
}

// Completer is one opaque completion capability. The relay treats the
// returned payload as text to broadcast verbatim; it never parses it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
