// Package imagestore keeps uploaded pest images and returns references to them.
package imagestore

import (
	"context"
	"encoding/base64"
)

// InlinePreviewLen is how many base64 characters an inline reference keeps.
const InlinePreviewLen = 100

// Inline stores nothing and returns a truncated data URI preview.
type Inline struct{}

func (Inline) Save(_ context.Context, _ string, image []byte, mimeType string) (string, error) {
	enc := base64.StdEncoding.EncodeToString(image)
	if len(enc) > InlinePreviewLen {
		enc = enc[:InlinePreviewLen] + "..."
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + enc, nil
}
