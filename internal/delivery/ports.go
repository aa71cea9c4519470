package delivery

import (
	"context"

	"github.com/Vovarama1992/lingua_tutor/internal/pipeline"
	"github.com/Vovarama1992/lingua_tutor/internal/translation"
	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type SessionStore interface {
	Lookup(key string) (*tutor.Session, bool)
	Delete(key string) bool
	Len() int
}

type Translator interface {
	Translate(ctx context.Context, message, language string) (string, error)
	List(ctx context.Context, language string, limit int) ([]translation.Message, error)
}
