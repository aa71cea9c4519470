package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id SERIAL PRIMARY KEY,
		text TEXT NOT NULL,
		language VARCHAR(2) NOT NULL
	)
`

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

// EnsureSchema creates the messages table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create messages table: %w", describe(err))
	}
	return nil
}

func (r *repo) Create(ctx context.Context, text, language string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (text, language)
		VALUES ($1, $2)
		RETURNING id
	`, text, language).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", describe(err))
	}
	return id, nil
}

func (r *repo) List(ctx context.Context, language string, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, language
		FROM messages
		WHERE ($1 = '' OR language = $1)
		ORDER BY id DESC
		LIMIT $2
	`, language, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", describe(err))
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Text, &m.Language); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// describe adds the SQLSTATE to postgres errors so the logs show e.g.
// 22001 for a language tag longer than the column.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}
