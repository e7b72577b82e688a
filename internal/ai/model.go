// Package ai is the boundary to the hosted language model. The Gateway is
// stateless: conversation history is owned by the caller and passed into each
// request, and every high-level operation resolves to text, substituting a
// fixed fallback message when the model fails.
package ai

import (
	"context"
	"errors"

	"github.com/hyperjump/aether/internal/models"
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role models.Role
	Text string
}

// Request is a single model call.
type Request struct {
	Model   string
	System  string
	History []Turn
	Prompt  string
}

// Model produces text for a request. An empty string with a nil error means
// the model answered without text.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrUnavailable is returned by the model used when no client could be built.
var ErrUnavailable = errors.New("language model unavailable")

type unavailableModel struct{ cause error }

// Unavailable returns a Model whose every call fails with cause, or with
// ErrUnavailable when cause is nil. It lets the application run without
// credentials; each AI panel then shows its fallback text.
func Unavailable(cause error) Model {
	if cause == nil {
		cause = ErrUnavailable
	}
	return unavailableModel{cause: cause}
}

func (m unavailableModel) Generate(ctx context.Context, req Request) (string, error) {
	return "", m.cause
}

// TurnsFrom converts a stored conversation into the turns replayed to the
// model. The welcome greeting and messages of failed exchanges are skipped.
func TurnsFrom(messages []models.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, m := range messages {
		if m.ID == models.WelcomeMessageID || m.Failed {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}
