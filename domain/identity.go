// Package domain contains core concepts of the relay.
// This file defines sender identities and the outbound frame shape.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the authenticated sender of a message.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AISender is the synthetic identity stamped on every frame produced by a
// completion capability instead of a human session.
var AISender = Identity{ID: "ai", Email: "AI"}

// Frame is the outbound payload delivered to room members.
type Frame struct {
	Message string   `json:"message"`
	Sender  Identity `json:"sender"`
}
