package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, blobs ...Blob) (string, error) {
	args := m.Called(prompt, blobs)
	return args.String(0), args.Error(1)
}
