package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const elevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"

type ElevenLabsClient struct {
	apiKey       string
	defaultVoice string
	baseURL      string
	httpCli      *http.Client
}

func NewElevenLabsClient(apiKey, defaultVoice string) *ElevenLabsClient {
	if defaultVoice == "" {
		defaultVoice = "EXAVITQu4vr4xnSDxMaL" // Rachel (дефолт)
	}
	return &ElevenLabsClient{
		apiKey:       apiKey,
		defaultVoice: defaultVoice,
		baseURL:      elevenLabsURL,
		httpCli:      http.DefaultClient,
	}
}

type elevenLabsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Speed float64 `json:"speed,omitempty"`
	} `json:"voice_settings"`
}

// TEXT → SPEECH
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if voice == "" {
		voice = c.defaultVoice
	}

	payload := elevenLabsRequest{Text: text, ModelID: "eleven_multilingual_v2"}
	payload.VoiceSettings.Speed = speed
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.baseURL, voice), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("elevenlabs status code: %d: %s", resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}
