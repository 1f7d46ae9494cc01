package routes

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/whoyoshome/mini-productos/internal/config"
	"github.com/whoyoshome/mini-productos/internal/http/handlers"
	"github.com/whoyoshome/mini-productos/internal/services/catalog"
	"github.com/whoyoshome/mini-productos/internal/services/processor"
	"github.com/whoyoshome/mini-productos/internal/services/proxy"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:routes-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := catalog.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	repo := catalog.NewRepository(db)

	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "test", CORSOrigins: []string{"*"}},
		Storage: config.StorageConfig{MaxFileSize: 1 << 20},
	}
	logger := zap.NewNop()

	router := NewRouter(
		handlers.NewProductHandler(repo, nil, nil, logger),
		handlers.NewImageHandler(proxy.NewFetcher(proxy.Options{}, nil, logger), processor.NewImageProcessor(cfg.Storage.MaxFileSize), nil, logger),
		handlers.NewHealthHandler(repo, nil, nil),
		cfg,
		logger,
	)
	return router.SetupRoutes()
}

func serve(engine *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	engine := newTestEngine(t)

	w := serve(engine, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(engine, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(engine, http.MethodPost, "/api/products", "application/json",
		`{"name":"Headphones","imageUrl":"https://cdn.example.com/h.jpg"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(engine, http.MethodGet, "/api/products?search=head", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)

	w = serve(engine, http.MethodGet, "/api/products/1/image-status", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(engine, http.MethodDelete, "/api/products/1", "", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = serve(engine, http.MethodGet, "/api/image", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(engine, http.MethodPost, "/api/uploads", "application/json", "{}")
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRoutes_UploadOverBodyCap(t *testing.T) {
	engine := newTestEngine(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, 3<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := serve(engine, http.MethodPost, "/api/uploads", mw.FormDataContentType(), body.String())
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.Contains(t, w.Body.String(), "Invalid image")
}
