package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/whoyoshome/mini-productos/internal/config"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/internal/services/catalog"
	"github.com/whoyoshome/mini-productos/internal/services/storage"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu       sync.Mutex
	products []models.Product
}

func (p *recordingPublisher) PublishWarmup(_ context.Context, product models.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.products = append(p.products, product)
	return nil
}

func (p *recordingPublisher) published() []models.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Product(nil), p.products...)
}

func newTestRepo(t *testing.T) catalog.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := catalog.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return catalog.NewRepository(db)
}

func newTestStorage(t *testing.T) *storage.StorageService {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := storage.NewStorageService(&config.Config{
		Redis: config.RedisConfig{Addr: mr.Addr()},
		Proxy: config.ProxyConfig{CacheTTL: time.Hour},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func perform(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
