package speech

import (
	"context"
	"strings"
)

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt STTClient
	tts TTSClient
}

func NewService(stt STTClient, tts TTSClient) *Service {
	return &Service{
		stt: stt,
		tts: tts,
	}
}

func (s *Service) Transcribe(ctx context.Context, filePath, language string) (string, error) {
	text, err := s.stt.Transcribe(ctx, filePath, language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Service) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	return s.tts.Synthesize(ctx, text, voice, speed)
}
