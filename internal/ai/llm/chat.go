package llm

import (
	"context"
	"sync"
)

// Chat is a stateful conversation over a Client. History accumulates across
// Send calls so the model sees the full exchange each turn.
type Chat struct {
	client *Client
	system string

	mu      sync.Mutex
	history []Message
}

// NewChat opens a conversation with the given system instruction.
func (c *Client) NewChat(system string) *Chat {
	return &Chat{
		client: c,
		system: system,
	}
}

// Send appends the user message, requests a completion over the full history,
// and records the reply. On error the user message is rolled back so a retry
// does not duplicate it.
func (ch *Chat) Send(ctx context.Context, message string) (string, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.history = append(ch.history, Message{Role: "user", Content: message})

	reply, err := ch.client.complete(ctx, ch.system, ch.history, false, false)
	if err != nil {
		ch.history = ch.history[:len(ch.history)-1]
		return "", err
	}

	ch.history = append(ch.history, Message{Role: "assistant", Content: reply})
	return reply, nil
}

// History returns a copy of the conversation so far.
func (ch *Chat) History() []Message {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	out := make([]Message, len(ch.history))
	copy(out, ch.history)
	return out
}

// Len reports the number of messages exchanged.
func (ch *Chat) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.history)
}
