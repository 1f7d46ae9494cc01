package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/internal/services/placeholder"
	"github.com/whoyoshome/mini-productos/internal/services/processor"
	"github.com/whoyoshome/mini-productos/internal/services/proxy"
	"github.com/whoyoshome/mini-productos/pkg/utils"
	"go.uber.org/zap"
)

const uploadFieldKey = "file"

// ImageFetcher retrieves upstream images for the proxy.
type ImageFetcher interface {
	Fetch(ctx context.Context, target string) (*proxy.Image, error)
}

// Uploader stores uploaded image bytes and returns a public URL.
type Uploader interface {
	UploadsEnabled() bool
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

type ImageHandler struct {
	fetcher   ImageFetcher
	processor *processor.ImageProcessor
	uploader  Uploader
	logger    *zap.Logger
}

// NewImageHandler builds the image proxy and upload endpoints. uploader may
// be nil, in which case uploads come back as embedded references.
func NewImageHandler(
	fetcher ImageFetcher,
	processor *processor.ImageProcessor,
	uploader Uploader,
	logger *zap.Logger,
) *ImageHandler {
	return &ImageHandler{
		fetcher:   fetcher,
		processor: processor,
		uploader:  uploader,
		logger:    logger,
	}
}

// ProxyImage serves GET /api/image?u=<url>&label=<text>. Any upstream failure
// is answered with a 200 placeholder image so the client never sees a broken
// image; only a missing u is a client error.
func (h *ImageHandler) ProxyImage(c *gin.Context) {
	target := c.Query("u")
	if target == "" {
		c.String(http.StatusBadRequest, "Missing ?u")
		return
	}
	label := c.Query("label")
	if label == "" {
		label = utils.DefaultLabel
	}

	img, err := h.fetcher.Fetch(c.Request.Context(), target)
	if err != nil {
		h.logger.Warn("Proxy fetch failed, serving placeholder",
			zap.String("url", target),
			zap.Error(err))
		h.respondPlaceholder(c, label)
		return
	}
	defer img.Body.Close()

	c.DataFromReader(http.StatusOK, -1, img.ContentType, img.Body, map[string]string{
		"Cache-Control":         img.CacheControl,
		proxy.HeaderProxyOK:     "1",
		proxy.HeaderProxySource: img.Source,
	})
}

func (h *ImageHandler) respondPlaceholder(c *gin.Context, label string) {
	c.Header("Cache-Control", proxy.CacheControlNone)
	c.Header(proxy.HeaderProxyOK, "0")
	c.Data(http.StatusOK, placeholder.ContentType, placeholder.SVG(label))
}

// Upload serves POST /api/uploads. The file is validated and stored as-is.
func (h *ImageHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile(uploadFieldKey)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "Invalid image: "+processor.ErrTooLarge.Error())
			return
		}
		respondError(c, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, info, err := h.processor.ReadImage(file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, processor.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(c, status, "Invalid image: "+err.Error())
		return
	}

	resp := models.UploadResponse{
		ContentType: info.ContentType,
		Size:        info.Size,
	}

	if h.uploader != nil && h.uploader.UploadsEnabled() {
		url, err := h.uploader.Upload(c.Request.Context(), data, header.Filename, info.ContentType)
		if err != nil {
			h.logger.Error("Failed to upload to Storage", zap.Error(err))
			_ = c.Error(err)
			respondError(c, http.StatusBadGateway, "Failed to store image")
			return
		}
		resp.URL = url
		resp.Stored = true
	} else {
		resp.URL = utils.EmbeddedReference(data, info.ContentType)
	}

	h.logger.Info("Image uploaded",
		zap.String("filename", header.Filename),
		zap.String("content_type", info.ContentType),
		zap.Int64("size", info.Size),
		zap.Bool("stored", resp.Stored))
	c.JSON(http.StatusOK, resp)
}
