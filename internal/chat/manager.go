// Package chat hosts the free-form analytical assistant, a multi-turn LLM
// conversation separate from the signal pipeline.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"omnicore-dashboard/internal/ai/llm"
)

// Greeting opens every new assistant session.
const Greeting = "Hello! I am OMNI-CORE's analytical assistant. How can I help you with your market analysis today?"

// FallbackReply is shown when the assistant call fails.
const FallbackReply = "Sorry, I'm having trouble connecting right now. Please try again later."

// SystemInstruction frames the assistant conversation.
const SystemInstruction = "You are OMNI-CORE's analytical assistant, a market analysis expert embedded in a trading signal dashboard. Answer questions about markets, assets, indicators, and trading concepts concisely and concretely. You do not place trades and you do not promise outcomes. If asked for a trade signal, direct the user to the signal generator instead."

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("chat session not found")

// conversation is the multi-turn surface a session talks to.
type conversation interface {
	Send(ctx context.Context, message string) (string, error)
	Len() int
}

// Session is one user's assistant conversation.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	mu         sync.Mutex
	conv       conversation
	lastActive time.Time
}

// Manager owns assistant sessions and expires idle ones.
type Manager struct {
	newConversation func() conversation
	idleTimeout     time.Duration
	logger          zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager backed by the LLM client.
func NewManager(client *llm.Client, idleTimeout time.Duration, logger zerolog.Logger) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &Manager{
		newConversation: func() conversation { return client.NewChat(SystemInstruction) },
		idleTimeout:     idleTimeout,
		logger:          logger.With().Str("component", "chat").Logger(),
		sessions:        make(map[string]*Session),
	}
}

// Open starts a new session for a user and returns it with the greeting.
func (m *Manager) Open(userID string) (*Session, string) {
	session := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  time.Now(),
		conv:       m.newConversation(),
		lastActive: time.Now(),
	}

	m.mu.Lock()
	m.prune()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Debug().Str("user_id", userID).Str("session_id", session.ID).Msg("chat session opened")
	return session, Greeting
}

// Send forwards a user message on an existing session. Only the owning user
// may address a session.
func (m *Manager) Send(ctx context.Context, userID, sessionID, message string) (string, error) {
	m.mu.Lock()
	m.prune()
	session, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok || session.UserID != userID {
		return "", ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.lastActive = time.Now()

	reply, err := session.conv.Send(ctx, message)
	if err != nil {
		m.logger.Warn().Str("session_id", sessionID).Err(err).Msg("assistant call failed")
		return "", err
	}
	return reply, nil
}

// Close removes a session.
func (m *Manager) Close(userID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok && session.UserID == userID {
		delete(m.sessions, sessionID)
	}
}

// ActiveSessions reports the live session count.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	return len(m.sessions)
}

// prune removes idle sessions. Caller holds m.mu.
func (m *Manager) prune() {
	cutoff := time.Now().Add(-m.idleTimeout)
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := session.lastActive.Before(cutoff)
		session.mu.Unlock()
		if idle {
			delete(m.sessions, id)
		}
	}
}
