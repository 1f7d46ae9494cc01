package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/whoyoshome/mini-productos/internal/models"
)

const (
	fieldContentType = "content_type"
	fieldBody        = "body"
)

// GenerateCacheKey derives the Redis key for a proxied image URL.
func GenerateCacheKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return CacheKeyPrefix + hex.EncodeToString(sum[:])
}

// GetImage returns the cached body for imageURL, or nil on a miss.
func (s *StorageService) GetImage(ctx context.Context, imageURL string) (*models.CachedImage, error) {
	if !s.CacheEnabled() {
		return nil, nil
	}

	fields, err := s.redisClient.HGetAll(ctx, GenerateCacheKey(imageURL)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	body, ok := fields[fieldBody]
	if !ok || body == "" {
		return nil, nil // Cache miss
	}

	return &models.CachedImage{
		ContentType: fields[fieldContentType],
		Body:        []byte(body),
	}, nil
}

// SetImage stores an upstream body for imageURL.
func (s *StorageService) SetImage(ctx context.Context, imageURL string, img models.CachedImage) error {
	if !s.CacheEnabled() || len(img.Body) == 0 {
		return nil
	}

	key := GenerateCacheKey(imageURL)
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldContentType, img.ContentType, fieldBody, img.Body)
		pipe.Expire(ctx, key, s.cacheDuration)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// SaveProbe records the outcome of a warm-up probe.
func (s *StorageService) SaveProbe(ctx context.Context, probe models.ImageProbe) error {
	if !s.CacheEnabled() {
		return nil
	}

	data, err := json.Marshal(probe)
	if err != nil {
		return fmt.Errorf("failed to marshal probe: %w", err)
	}
	return s.redisClient.Set(ctx, probeKey(probe.ProductID), data, s.cacheDuration).Err()
}

// GetProbe returns the last probe for a product, or nil when none exists.
func (s *StorageService) GetProbe(ctx context.Context, productID uint) (*models.ImageProbe, error) {
	if !s.CacheEnabled() {
		return nil, nil
	}

	data, err := s.redisClient.Get(ctx, probeKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var probe models.ImageProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal probe: %w", err)
	}
	return &probe, nil
}

// DeleteProbe forgets the probe of a removed product.
func (s *StorageService) DeleteProbe(ctx context.Context, productID uint) error {
	if !s.CacheEnabled() {
		return nil
	}
	return s.redisClient.Del(ctx, probeKey(productID)).Err()
}

func probeKey(productID uint) string {
	return ProbeKeyPrefix + strconv.FormatUint(uint64(productID), 10)
}
