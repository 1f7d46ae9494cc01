package storage

import (
	"time"

	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/whoyoshome/mini-productos/internal/config"
)

const (
	CacheKeyPrefix = "img_cache:"
	ProbeKeyPrefix = "img_probe:"
)

// StorageService fronts Supabase Storage (uploaded product images) and Redis
// (proxied image bytes and warm-up probes). Either backend may be absent.
type StorageService struct {
	sbClient      *storage_go.Client
	redisClient   *redis.Client
	bucket        string
	cacheDuration time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.Supabase.Enabled() {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})
	}

	cacheDuration := cfg.Proxy.CacheTTL
	if cacheDuration <= 0 {
		cacheDuration = 24 * time.Hour
	}

	return &StorageService{
		sbClient:      sbClient,
		redisClient:   redisClient,
		bucket:        cfg.Supabase.BUCKET,
		cacheDuration: cacheDuration,
	}, nil
}

// UploadsEnabled reports whether Supabase Storage is configured.
func (s *StorageService) UploadsEnabled() bool {
	return s != nil && s.sbClient != nil
}

// CacheEnabled reports whether Redis is configured.
func (s *StorageService) CacheEnabled() bool {
	return s != nil && s.redisClient != nil
}

// Close releases the Redis connection pool.
func (s *StorageService) Close() error {
	if s.CacheEnabled() {
		return s.redisClient.Close()
	}
	return nil
}
