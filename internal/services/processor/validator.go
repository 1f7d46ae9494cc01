package processor

import (
	"bytes"
	"errors"
	"image"
)

var (
	ErrEmptyImage      = errors.New("empty image")
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidImage    = errors.New("invalid image format")
)

func decodeConfig(data []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(data))
}
