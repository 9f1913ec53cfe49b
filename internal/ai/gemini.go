package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator вызывает generateContent у Gemini API
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator создаёт клиента с API-ключом. Пустой baseURL - адрес Gemini API по умолчанию.
func NewGeminiGenerator(ctx context.Context, apiKey, model, baseURL string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate отправляет промпт и вложения одной пользовательской репликой
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, blobs ...Blob) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, b := range blobs {
		parts = append(parts, genai.NewPartFromBytes(b.Data, b.MimeType))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from model")
	}
	if resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content in response (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return resp.Text(), nil
}
