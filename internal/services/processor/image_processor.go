package processor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/whoyoshome/mini-productos/pkg/utils"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes an uploaded image that passed validation.
type ImageInfo struct {
	Format      string
	ContentType string
	Width       int
	Height      int
	Size        int64
}

// ImageProcessor checks uploaded product images. Bytes are passed through
// untouched; nothing is resized or re-encoded.
type ImageProcessor struct {
	maxFileSize int64
}

func NewImageProcessor(maxFileSize int64) *ImageProcessor {
	return &ImageProcessor{maxFileSize: maxFileSize}
}

// ReadImage reads at most the configured limit from r and validates it.
func (p *ImageProcessor) ReadImage(r io.Reader) ([]byte, *ImageInfo, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxFileSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}

	info, err := p.ValidateImage(data)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

// ValidateImage checks size, content type and that data decodes.
func (p *ImageProcessor) ValidateImage(data []byte) (*ImageInfo, error) {
	size := int64(len(data))
	if size == 0 {
		return nil, ErrEmptyImage
	}
	if size > p.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, p.maxFileSize)
	}

	contentType, ok := utils.DetectImageType(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, format, err := decodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return &ImageInfo{
		Format:      format,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        size,
	}, nil
}
