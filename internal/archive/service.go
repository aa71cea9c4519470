package archive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	client Client
	now    func() time.Time
}

func NewService(client Client) *Service {
	return &Service{client: client, now: time.Now}
}

// ObjectKey — путь в бакете: <session>/<date>/<uuid><ext>
func (s *Service) ObjectKey(sessionID, filename string) string {
	date := s.now().Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s%s", sessionID, date, uuid.NewString(), filepath.Ext(filepath.Base(filename)))
}

// SaveRecording uploads the raw recording of one exchange.
func (s *Service) SaveRecording(ctx context.Context, sessionID string, data []byte, filename, contentType string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionID required")
	}
	key := s.ObjectKey(sessionID, filename)
	return s.client.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}
