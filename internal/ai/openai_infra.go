package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/lingua_tutor/internal/tutor"
)

var ErrEmptyReply = errors.New("model returned no choices")

type OpenAIClient struct {
	client          *openai.Client
	chatModel       string
	completionModel string
	temperature     float32
}

func NewOpenAIClient(client *openai.Client, chatModel, completionModel string, temperature float32) *OpenAIClient {
	return &OpenAIClient{
		client:          client,
		chatModel:       chatModel,
		completionModel: completionModel,
		temperature:     temperature,
	}
}

func (c *OpenAIClient) Reply(ctx context.Context, turns []tutor.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.completionModel,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}
