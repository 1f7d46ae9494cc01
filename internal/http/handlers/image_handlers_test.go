package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/whoyoshome/mini-productos/internal/services/processor"
	"github.com/whoyoshome/mini-productos/internal/services/proxy"
	"go.uber.org/zap"
)

var pngPixel = func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

type fakeUploader struct {
	enabled  bool
	err      error
	filename string
	data     []byte
}

func (u *fakeUploader) UploadsEnabled() bool { return u.enabled }

func (u *fakeUploader) Upload(_ context.Context, data []byte, filename, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.filename = filename
	u.data = data
	return "https://storage.example.com/products/" + filename, nil
}

func newImageRouter(fetcher ImageFetcher, uploader Uploader) *gin.Engine {
	h := NewImageHandler(fetcher, processor.NewImageProcessor(1<<20), uploader, zap.NewNop())
	r := gin.New()
	r.GET("/api/image", h.ProxyImage)
	r.POST("/api/uploads", h.Upload)
	return r
}

func proxyPath(target, label string) string {
	return "/api/image?label=" + label + "&u=" + target
}

func TestProxyImage_MissingURL(t *testing.T) {
	r := newImageRouter(proxy.NewFetcher(proxy.Options{}, nil, zap.NewNop()), nil)

	w := perform(t, r, http.MethodGet, "/api/image?label=Desk", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Missing ?u", w.Body.String())
}

func TestProxyImage_StreamsOrigin(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngPixel)
	}))
	defer origin.Close()

	r := newImageRouter(proxy.NewFetcher(proxy.Options{Timeout: 2 * time.Second}, nil, zap.NewNop()), nil)
	w := perform(t, r, http.MethodGet, proxyPath(origin.URL+"/a.png", "Desk"), "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, "1", w.Header().Get(proxy.HeaderProxyOK))
	require.Equal(t, proxy.SourceOrigin, w.Header().Get(proxy.HeaderProxySource))
	require.Equal(t, proxy.CacheControlDevelopment, w.Header().Get("Cache-Control"))
	require.Equal(t, pngPixel, w.Body.Bytes())
}

func TestProxyImage_PlaceholderOnFailure(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer broken.Close()

	fetcher := proxy.NewFetcher(proxy.Options{Timeout: 2 * time.Second, RelayURL: broken.URL + "/relay"}, nil, zap.NewNop())
	r := newImageRouter(fetcher, nil)

	for _, target := range []string{broken.URL + "/missing.jpg", "not-a-url"} {
		w := perform(t, r, http.MethodGet, proxyPath(target, "Desk%20%3Clamp%3E"), "")
		require.Equal(t, http.StatusOK, w.Code, target)
		require.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		require.Equal(t, "0", w.Header().Get(proxy.HeaderProxyOK))
		require.Equal(t, "no-cache, no-store", w.Header().Get("Cache-Control"))
		require.Contains(t, w.Body.String(), "Desk &lt;lamp&gt;")
	}
}

func TestProxyImage_DefaultLabel(t *testing.T) {
	fetcher := proxy.NewFetcher(proxy.Options{}, nil, zap.NewNop())
	r := newImageRouter(fetcher, nil)

	w := perform(t, r, http.MethodGet, "/api/image?u=ftp://example.com/x", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), ">Image</text>")
}

func TestProxyImage_TimeoutServesPlaceholder(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer slow.Close()
	defer close(release)

	fetcher := proxy.NewFetcher(proxy.Options{Timeout: 50 * time.Millisecond}, nil, zap.NewNop())
	r := newImageRouter(fetcher, nil)

	start := time.Now()
	w := perform(t, r, http.MethodGet, proxyPath(slow.URL+"/slow.jpg", "Slow"), "")
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "0", w.Header().Get(proxy.HeaderProxyOK))
}

func TestProxyImage_ServesFromCache(t *testing.T) {
	var hits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngPixel)
	}))
	defer origin.Close()

	store := newTestStorage(t)
	fetcher := proxy.NewFetcher(proxy.Options{Timeout: 2 * time.Second, MaxCacheBytes: 1 << 20}, store, zap.NewNop())
	r := newImageRouter(fetcher, nil)
	path := proxyPath(origin.URL+"/cached.png", "Cached")

	first := perform(t, r, http.MethodGet, path, "")
	require.Equal(t, proxy.SourceOrigin, first.Header().Get(proxy.HeaderProxySource))

	second := perform(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, proxy.SourceCache, second.Header().Get(proxy.HeaderProxySource))
	require.Equal(t, "image/png", second.Header().Get("Content-Type"))
	require.Equal(t, pngPixel, second.Body.Bytes())
	require.EqualValues(t, 1, hits.Load())
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload_EmbeddedWithoutStorage(t *testing.T) {
	r := newImageRouter(nil, &fakeUploader{enabled: false})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "pixel.png", pngPixel))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.JSONEq(t, `{
		"url": "data:image/png;base64,`+base64.StdEncoding.EncodeToString(pngPixel)+`",
		"contentType": "image/png",
		"size": `+strconv.Itoa(len(pngPixel))+`,
		"stored": false
	}`, w.Body.String())
}

func TestUpload_StoresWhenConfigured(t *testing.T) {
	uploader := &fakeUploader{enabled: true}
	r := newImageRouter(nil, uploader)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "pixel.png", pngPixel))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"url":"https://storage.example.com/products/pixel.png"`)
	require.Contains(t, w.Body.String(), `"stored":true`)
	require.Equal(t, pngPixel, uploader.data)

	uploader.err = errors.New("bucket unavailable")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "pixel.png", pngPixel))
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUpload_Rejects(t *testing.T) {
	r := newImageRouter(nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "image", "pixel.png", pngPixel))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"No image file provided"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "notes.png", []byte("plain text, not an image")))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), `{"error":"Invalid image:`))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, "file", "big.png", bytes.Repeat([]byte{0x89}, 2<<20)))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
