package services

import (
	"errors"

	"github.com/yoockh/careermentor/internal/llmjson"
	"github.com/yoockh/careermentor/internal/providers/llm"
)

const (
	failureConfiguration = "configuration"
	failureTransport     = "transport"
	failureParse         = "parse"
)

// failureKind classifies a generation failure for logging. Anything that is
// neither a configuration nor a parse problem came from the network call.
func failureKind(err error) string {
	var pe *llmjson.ParseError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey), errors.Is(err, errNoProvider):
		return failureConfiguration
	case errors.As(err, &pe):
		return failureParse
	default:
		return failureTransport
	}
}

var errNoProvider = errors.New("no text generation provider configured")
