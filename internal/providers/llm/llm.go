package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned before any network call when the provider has
// no credentials configured.
var ErrMissingAPIKey = errors.New("llm: missing API key")

// Generator returns the full text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Provider interface {
	Generator
	Close() error
}

// StatusError reports a non-2xx answer from the generation endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("llm: status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm: status %d: %s", e.StatusCode, e.Body)
}
