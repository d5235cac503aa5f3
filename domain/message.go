// Package domain contains core concepts of the relay.
// This file defines Message events and related rules.
// Messages are immutable and consumed exactly once by the classifier.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable inbound chat event.
type Message struct {
	ID        uuid.UUID // unique identifier
	Body      string
	Sender    Identity
	CreatedAt time.Time
}

// NewMessage stamps an inbound body with its sender and creation time.
func NewMessage(body string, sender Identity) Message {
	return Message{
		ID:        uuid.New(),
		Body:      body,
		Sender:    sender,
		CreatedAt: time.Now().UTC(),
	}
}
