// Package storage keeps recipe images in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// keyPrefix is the folder every recipe image is written under.
const keyPrefix = "recipes/"

// ErrUnsupportedType is returned for uploads that are not an allowed image type.
var ErrUnsupportedType = errors.New("unsupported image type")

// AllowImage lists the accepted image content types.
var AllowImage = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Upload is an image to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore persists recipe images and resolves their public URLs.
type ImageStore interface {
	Put(ctx context.Context, upload Upload) (key string, err error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func allowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range AllowImage {
		if mediaType == t {
			return true
		}
	}
	return false
}

// Sniff checks the declared content type and the leading bytes of the body
// against AllowImage. The returned upload carries the detected type and a body
// that still yields every byte of the original.
func Sniff(upload Upload) (Upload, error) {
	if !allowed(upload.ContentType) || upload.Body == nil {
		return upload, ErrUnsupportedType
	}
	var head bytes.Buffer
	detected, err := mimetype.DetectReader(io.TeeReader(upload.Body, &head))
	if err != nil {
		return upload, fmt.Errorf("detect content type: %w", err)
	}
	if !allowed(detected.String()) {
		return upload, ErrUnsupportedType
	}
	upload.ContentType = detected.String()
	upload.Body = io.MultiReader(&head, upload.Body)
	return upload, nil
}

// newObjectKey builds a unique key, keeping the original extension when it
// is a plain one and falling back to the content type otherwise.
func newObjectKey(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || len(ext) > 6 {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = ""
		}
	}
	return keyPrefix + uuid.New().String() + ext
}
