package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a single request/response generation backend. One call per
// revision; no retries are attempted here.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
