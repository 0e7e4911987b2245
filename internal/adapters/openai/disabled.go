package openai

import (
	"context"
	"errors"

	"lumen/internal/ports"
)

type disabled struct{}

func (disabled) Complete(ctx context.Context, system, user string, structured bool) (string, error) {
	return "", errors.New("text generation disabled: no API key configured")
}

// Disabled returns a gateway whose calls always fail. Deployments without an
// API key run entirely on the deterministic fallbacks.
func Disabled() ports.TextGateway { return disabled{} }
