package translation

import "context"

// Message is one stored translation.
type Message struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Репозиторий Postgres
type Repo interface {
	Create(ctx context.Context, text, language string) (int64, error)
	List(ctx context.Context, language string, limit int) ([]Message, error)
}

type Notifier interface {
	Notify(ctx context.Context, source string, err error, details string) error
}
