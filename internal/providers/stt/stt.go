package stt

import (
	"context"
	"errors"
)

var ErrUnsupportedFormat = errors.New("stt: unsupported audio format")

// Provider turns a recorded answer into text.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, language string) (text string, confidence float64, err error)
	Close() error
}
