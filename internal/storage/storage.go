package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Uploader stores an object and returns its stored path (gs://bucket/key).
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// AnswerAudioObject is the object key of a spoken answer.
func AnswerAudioObject(userID, sessionID string, questionIndex int, id, ext string) string {
	return fmt.Sprintf("answers/%s/%s/%02d-%s%s", userID, sessionID, questionIndex, id, ext)
}
