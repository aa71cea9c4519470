package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

const perplexityURL = "https://api.perplexity.ai/chat/completions"

type PerplexityClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewPerplexityClient(apiKey, model string) *PerplexityClient {
	if model == "" {
		model = "sonar"
	}
	return &PerplexityClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: perplexityURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityRequest struct {
	Model    string              `json:"model"`
	Messages []perplexityMessage `json:"messages"`
}

type perplexityResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *PerplexityClient) Reply(ctx context.Context, turns []tutor.Turn) (string, error) {
	reqBody := perplexityRequest{Model: c.model}
	for _, t := range turns {
		reqBody.Messages = append(reqBody.Messages, perplexityMessage{Role: string(t.Role), Content: t.Content})
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("perplexity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("perplexity status code: %d: %s", resp.StatusCode, body)
	}

	var out perplexityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode perplexity: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return out.Choices[0].Message.Content, nil
}
