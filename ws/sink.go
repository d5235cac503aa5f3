package ws

import (
	"context"

	"project-relay/domain"
)

// sink bridges relay broadcasts into one connection's write pump.
type sink struct {
	frames chan domain.Frame
}

func newSink(bufferSize int) *sink {
	return &sink{frames: make(chan domain.Frame, bufferSize)}
}

// Consume is called by the broadcast path. It redirects the frame through
// the channel owned by this connection; the write pump takes it from there.
// A full channel means a consumer that stopped draining: delivery waits up
// to the caller's deadline for the pump to catch up, then fails for this
// connection only instead of stalling the room indefinitely.
func (s *sink) Consume(ctx context.Context, frame domain.Frame) error {
	select {
	case s.frames <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
