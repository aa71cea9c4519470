package pipeline

import (
	"context"

	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

type Sessions interface {
	Get(key string) *tutor.Session
}

type Transcoder interface {
	Convert(ctx context.Context, inputPath, format string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, filePath, language string) (string, error)
}

type Dialogue interface {
	Reply(ctx context.Context, turns []tutor.Turn) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

type Archiver interface {
	SaveRecording(ctx context.Context, sessionID string, data []byte, filename, contentType string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, source string, err error, details string) error
}

// Request is one uploaded voice message.
type Request struct {
	SessionID string
	Audio     []byte
	MIMEType  string
	Filename  string
	Level     string
}

type Result struct {
	RecognizedText string
	AssistantText  string
	Audio          []byte
	AudioBase64    string
}
