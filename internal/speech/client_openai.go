package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient covers both directions: Whisper and the TTS endpoint.
type OpenAIClient struct {
	client   *openai.Client
	sttModel string
	ttsModel openai.SpeechModel
}

func NewOpenAIClient(client *openai.Client, sttModel, ttsModel string) *OpenAIClient {
	if sttModel == "" {
		sttModel = openai.Whisper1
	}
	if ttsModel == "" {
		ttsModel = string(openai.TTSModel1)
	}
	return &OpenAIClient{
		client:   client,
		sttModel: sttModel,
		ttsModel: openai.SpeechModel(ttsModel),
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, filePath, language string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.sttModel,
		FilePath: filePath,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return resp.Text, nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		Speed:          speed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai tts: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	return audio, nil
}
