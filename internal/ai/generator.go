package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured возвращается, когда ключ модели не задан
var ErrNotConfigured = errors.New("ai client not configured")

// Blob - бинарная часть запроса (например, изображение для vision-модели)
type Blob struct {
	MimeType string
	Data     []byte
}

// Generator - удалённая генеративная модель: промпт (и вложения) на входе, текст на выходе
type Generator interface {
	Generate(ctx context.Context, prompt string, blobs ...Blob) (string, error)
}
