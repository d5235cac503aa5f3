package domain

import "time"

// RoomID identifies a room. Rooms map one-to-one onto project ids.
type RoomID string

// Project is the directory record a connection is bound to at admission.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Session is one authenticated, room-bound connection. The room binding is
// set at admission and never changes for the session's lifetime.
type Session struct {
	ID   string
	User Identity
	Room RoomID
}
