package storage

import (
	"context"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck checks Redis + Supabase
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if !s.CacheEnabled() {
		status["redis"] = "not configured"
	} else if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	if !s.UploadsEnabled() {
		status["supabase"] = "not configured"
	} else if _, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{Limit: 1}); err != nil {
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}
