package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/whoyoshome/mini-productos/pkg/utils"
)

var ErrUploadsDisabled = errors.New("upload storage not configured")

// Upload stores an image in Supabase Storage and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if !s.UploadsEnabled() {
		return "", ErrUploadsDisabled
	}

	key := utils.GenerateStorageKey(filename)
	cacheControl := "31536000"
	upsert := false

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}
