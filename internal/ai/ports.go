package ai

import (
	"context"

	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

// Dialogue returns the next assistant message for an ordered dialogue.
type Dialogue interface {
	Reply(ctx context.Context, turns []tutor.Turn) (string, error)
}

// Completer is the plain text-completion surface used for translations.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}
