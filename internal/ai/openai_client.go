package ai

import (
	"context"
	"errors"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	timeout        time.Duration
}

func NewOpenAIClient(apiKey, chatModel, embeddingModel string, timeout time.Duration) *OpenAIClient {
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIClient{
		client:         openai.NewClient(apiKey),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}
}

// Complete — один вызов модели. Таймаут жёсткий: зависший стейдж
// обрабатывается как его ошибка, а не как бесконечное ожидание.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		log.Println("[ai] OpenAI error:", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		log.Println("[ai] empty choices")
		return "", errors.New("ai: empty choices")
	}

	raw := resp.Choices[0].Message.Content
	log.Printf("[ai] raw response: %s", short(raw))
	return raw, nil
}

// Embed — эмбеддинг запроса для поиска по базе знаний.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		log.Println("[ai] embedding error:", err)
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("ai: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
