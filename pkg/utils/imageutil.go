package utils

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var validImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// DetectImageType sniffs the content type of data and reports whether it is
// one of the accepted image types.
func DetectImageType(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	return contentType, IsValidImageType(contentType)
}

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, validType := range validImageTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// GenerateStorageKey builds a unique object key for an uploaded product image.
func GenerateStorageKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" {
		name = "image"
	}
	timestamp := time.Now().Unix()
	id := uuid.New().String()[:8]

	return fmt.Sprintf("products/%s_%d_%s%s", name, timestamp, id, ext)
}

// EmbeddedReference encodes data as a data: URI.
func EmbeddedReference(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
