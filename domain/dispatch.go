package domain

import "strings"

// Markers selecting AI routing. Matching is a plain substring test, not
// word-boundary aware: a body merely containing the marker anywhere triggers
// AI routing. That is the designed semantics, not an accident.
const (
	ChatMarker = "@ai"
	CodeMarker = "@ai_code"
)

// DefaultChatPrompt replaces an empty chat prompt after marker stripping.
const DefaultChatPrompt = "Greet the team briefly and ask how you can help."

// Dispatch is the closed set of classification outcomes for an inbound body.
type Dispatch interface {
	isDispatch()
}

// Plain is a body relayed verbatim to the rest of the room.
type Plain struct {
	Body string
}

// ChatAI routes the prompt to the chat completion capability.
type ChatAI struct {
	Prompt string
}

// CodeAI routes the prompt to the code completion capability.
type CodeAI struct {
	Prompt string
}

func (Plain) isDispatch()  {}
func (ChatAI) isDispatch() {}
func (CodeAI) isDispatch() {}

// Classify decides how an inbound body is routed. The code marker wins over
// the chat marker when both are present, first-match order. The prompt is the
// body with the first marker occurrence removed and trimmed; an empty code
// prompt passes through as-is so the completion side decides what to do with
// it, while an empty chat prompt falls back to DefaultChatPrompt.
func Classify(body string) Dispatch {
	if strings.Contains(body, CodeMarker) {
		prompt := strings.TrimSpace(strings.Replace(body, CodeMarker, "", 1))
		return CodeAI{Prompt: prompt}
	}
	if strings.Contains(body, ChatMarker) {
		prompt := strings.TrimSpace(strings.Replace(body, ChatMarker, "", 1))
		if prompt == "" {
			prompt = DefaultChatPrompt
		}
		return ChatAI{Prompt: prompt}
	}
	return Plain{Body: body}
}
