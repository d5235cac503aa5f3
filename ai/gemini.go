// Package ai adapts the Gemini API to the relay's two completion
// capabilities. The relay treats both results as opaque text; the payload
// shape is negotiated with the model through the system instructions below.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"project-relay/contract"
)

const defaultModel = "gemini-1.5-flash"

// chatSystemInstruction keeps the chat capability to pure text: it must
// never include generated file content, only a {"text": ...} payload.
const chatSystemInstruction = `You are a helpful AI assistant in a developer chat room. Answer questions and help users with development topics.

CRITICAL RULES - NEVER VIOLATE THESE:
- NEVER create files or code structures
- NEVER include "fileTree" in your response
- ONLY return {"text": "your response here"} format
- Respond as pure text like a normal person would
- Be helpful, concise, and friendly`

// codeSystemInstruction restricts the code capability to a single logical
// file per call, returned as a {"text": ..., "fileTree": ...} payload.
const codeSystemInstruction = `You are an expert developer. When asked to create code, create ONLY A SINGLE FILE as requested.

CRITICAL RULES:
- Create ONLY ONE file per request
- Do NOT create multiple files (no package.json, no additional files)
- Focus on the specific file the user asks for
- Always return JSON format with "text" and "fileTree" fields`

// Gemini owns the API client and hands out the two capabilities.
type Gemini struct {
	client *genai.Client
	model  string
}

// Option configures a [Gemini].
type Option func(*Gemini)

// WithModel sets the model ID. Default is gemini-1.5-flash.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// NewGemini creates the API client with the given key and options.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	g := &Gemini{client: gc, model: defaultModel}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Chat returns the conversation capability, text payloads only.
func (g *Gemini) Chat() contract.Completer {
	return capability{
		client: g.client,
		model:  g.model,
		kind:   "chat",
		config: buildConfig(chatSystemInstruction, 0.7),
	}
}

// Code returns the single-file code generation capability.
func (g *Gemini) Code() contract.Completer {
	return capability{
		client: g.client,
		model:  g.model,
		kind:   "code",
		config: buildConfig(codeSystemInstruction, 0.4),
	}
}

func buildConfig(systemInstruction string, temperature float32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}
}

// capability is one completion call path. A single attempt per call; the
// caller decides what a failure means.
type capability struct {
	client *genai.Client
	model  string
	kind   string
	config *genai.GenerateContentConfig
}

func (c capability) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("AI %s generation failed: %w", c.kind, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("AI %s generation failed: empty response", c.kind)
	}
	return text, nil
}
