package speech

import "context"

type STTClient interface {
	Transcribe(ctx context.Context, filePath, language string) (string, error) // голос → текст
}

type TTSClient interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) // текст → голос
}

// Transcoder converts a recording into another container and returns the
// path of the produced file.
type Transcoder interface {
	Convert(ctx context.Context, inputPath, format string) (string, error)
}
