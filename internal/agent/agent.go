// Package agent implements the conversational fallback: plain chat with a
// bounded window of recent history replayed as model context.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jeiary/jeiary/internal/ollama"
	"github.com/jeiary/jeiary/internal/storage"
)

// historyLimit bounds how many stored turns are replayed per reply.
const historyLimit = 20

const systemPersona = "You are Jeiary, a friendly and capable AI assistant that helps the user manage their day. Answer naturally and concisely."

// ConversationStore persists and reads back conversation turns.
type ConversationStore interface {
	AppendChatMessage(userID, role, content string) error
	RecentChatMessages(userID string, limit int) ([]storage.ChatMessage, error)
}

// Chatter is the plain-completion surface of the Ollama client.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// Agent produces conversational replies with persistent history.
type Agent struct {
	client Chatter
	store  ConversationStore
	model  string
	logger *slog.Logger
}

// New creates an Agent using the given client, store, and model name.
func New(client Chatter, store ConversationStore, model string) *Agent {
	return &Agent{client: client, store: store, model: model, logger: slog.Default()}
}

// Reply answers message for userID using the recent history window as
// context. On success exactly two turns are persisted, the user turn first.
// A failed model call persists nothing and surfaces the error to the caller.
func (a *Agent) Reply(ctx context.Context, userID, message string) (string, error) {
	messages := []ollama.Message{{Role: "system", Content: systemPersona}}
	messages = append(messages, a.history(userID)...)
	messages = append(messages, ollama.Message{Role: "user", Content: message})

	reply, err := a.client.Chat(ctx, a.model, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if err := a.store.AppendChatMessage(userID, storage.RoleUser, message); err != nil {
		a.logger.Warn("failed to persist user turn", "user_id", userID, "error", err)
	}
	if err := a.store.AppendChatMessage(userID, storage.RoleAssistant, reply); err != nil {
		a.logger.Warn("failed to persist assistant turn", "user_id", userID, "error", err)
	}
	return reply, nil
}

// history returns the recent window in chronological order. The store reads
// newest-first; an unreadable history degrades to an empty window rather
// than failing the reply.
func (a *Agent) history(userID string) []ollama.Message {
	recent, err := a.store.RecentChatMessages(userID, historyLimit)
	if err != nil {
		a.logger.Warn("failed to load chat history", "user_id", userID, "error", err)
		return nil
	}

	messages := make([]ollama.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		messages = append(messages, ollama.Message{Role: recent[i].Role, Content: recent[i].Content})
	}
	return messages
}
