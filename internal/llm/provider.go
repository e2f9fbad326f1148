package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured se devuelve cuando no hay API key del proveedor.
var ErrNotConfigured = errors.New("llm provider not configured")

// LLMClient define la interfaz para generar respuestas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type disabledClient struct{}

// NewDisabledClient devuelve un cliente que siempre falla con ErrNotConfigured.
func NewDisabledClient() LLMClient {
	return disabledClient{}
}

func (disabledClient) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
