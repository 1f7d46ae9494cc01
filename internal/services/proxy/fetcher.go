// Package proxy fetches remote product images on behalf of browsers that
// cannot load them directly (mixed content, CORS, hot-link protection).
package proxy

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/pkg/utils"
	"go.uber.org/zap"
)

const (
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari"
	acceptImages       = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	defaultContentType = "image/jpeg"

	CacheControlProduction  = "public, max-age=86400, s-maxage=31536000, stale-while-revalidate=604800"
	CacheControlDevelopment = "public, max-age=600, stale-while-revalidate=86400"
	CacheControlNone        = "no-cache, no-store"

	HeaderProxyOK     = "X-Proxy-Ok"
	HeaderProxySource = "X-Proxy-Source"

	SourceOrigin = "origin"
	SourceRelay  = "relay"
	SourceCache  = "cache"

	DefaultTimeout  = 5 * time.Second
	DefaultRelayURL = "https://images.weserv.nl/"

	cacheWriteTimeout = 2 * time.Second
)

var (
	ErrUpstream  = errors.New("upstream failed")
	ErrEmptyBody = errors.New("upstream returned empty body")
)

// Cache keeps upstream bodies between requests.
type Cache interface {
	GetImage(ctx context.Context, imageURL string) (*models.CachedImage, error)
	SetImage(ctx context.Context, imageURL string, img models.CachedImage) error
}

type Options struct {
	Timeout       time.Duration
	RelayURL      string
	Production    bool
	MaxCacheBytes int64
	Client        *http.Client
}

type Fetcher struct {
	client        *http.Client
	timeout       time.Duration
	relayURL      string
	production    bool
	maxCacheBytes int64
	cache         Cache
	logger        *zap.Logger
}

// Image is a fetched image ready to be streamed. Body must be closed; closing
// it releases the fetch deadline.
type Image struct {
	Body         io.ReadCloser
	ContentType  string
	CacheControl string
	Source       string
}

// NewFetcher builds a Fetcher. cache may be nil.
func NewFetcher(opts Options, cache Cache, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RelayURL == "" {
		opts.RelayURL = DefaultRelayURL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		client:        opts.Client,
		timeout:       opts.Timeout,
		relayURL:      opts.RelayURL,
		production:    opts.Production,
		maxCacheBytes: opts.MaxCacheBytes,
		cache:         cache,
		logger:        logger,
	}
}

// Fetch retrieves target, first directly and then through the relay when the
// origin answers with an error status or an empty body. Transport errors and
// the deadline are returned as-is; the caller decides what to render instead.
//
// The timeout bounds everything up to the first body byte. Once an image is
// returned its body streams without a deadline until closed or until ctx ends.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Image, error) {
	if img := f.fromCache(ctx, target); img != nil {
		return img, nil
	}

	ctx, cancelCause := context.WithCancelCause(ctx)
	cancel := func() { cancelCause(context.Canceled) }
	deadline := time.AfterFunc(f.timeout, func() { cancelCause(context.DeadlineExceeded) })

	resp, body, err := f.attempt(ctx, target)
	source := SourceOrigin
	if err == nil && body == nil {
		f.logger.Debug("Origin unusable, trying relay", zap.String("url", target), zap.Int("status", resp.StatusCode))
		resp.Body.Close()

		relay, rerr := f.relayTarget(target)
		if rerr != nil {
			deadline.Stop()
			cancel()
			return nil, rerr
		}
		resp, body, err = f.attempt(ctx, relay)
		source = SourceRelay
		if err == nil && body == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
				err = fmt.Errorf("%w from relay", ErrEmptyBody)
			} else {
				err = fmt.Errorf("%w: relay status %d", ErrUpstream, resp.StatusCode)
			}
		}
	}
	if !deadline.Stop() {
		// The timer may have fired without having cancelled ctx yet.
		cancelCause(context.DeadlineExceeded)
		if err == nil {
			resp.Body.Close()
			err = context.DeadlineExceeded
		}
	}
	if err != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
			err = fmt.Errorf("%w: %v", cause, err)
		}
		cancel()
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return &Image{
		Body:         f.wrapBody(body, resp.Body, cancel, target, contentType),
		ContentType:  contentType,
		CacheControl: f.cacheControl(),
		Source:       source,
	}, nil
}

// attempt issues one GET. A nil body with a nil error means the upstream
// answered but the response is unusable (non-2xx status or no bytes).
func (f *Fetcher) attempt(ctx context.Context, target string) (*http.Response, *bufio.Reader, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, nil, fmt.Errorf("invalid image url %q: absolute http(s) url required", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptImages)
	req.Header.Set("Referer", parsed.Scheme+"://"+parsed.Host)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil, nil
	}

	body := bufio.NewReader(resp.Body)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return resp, nil, nil
		}
		resp.Body.Close()
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return resp, body, nil
}

func (f *Fetcher) relayTarget(target string) (string, error) {
	relay, err := url.Parse(f.relayURL)
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	q := relay.Query()
	q.Set("url", utils.StripScheme(target))
	q.Set("output", "jpg")
	relay.RawQuery = q.Encode()
	return relay.String(), nil
}

func (f *Fetcher) cacheControl() string {
	if f.production {
		return CacheControlProduction
	}
	return CacheControlDevelopment
}

func (f *Fetcher) fromCache(ctx context.Context, target string) *Image {
	if f.cache == nil {
		return nil
	}

	cached, err := f.cache.GetImage(ctx, target)
	if err != nil {
		f.logger.Warn("Proxy cache read failed", zap.String("url", target), zap.Error(err))
		return nil
	}
	if cached == nil {
		return nil
	}

	contentType := cached.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	return &Image{
		Body:         io.NopCloser(bytes.NewReader(cached.Body)),
		ContentType:  contentType,
		CacheControl: f.cacheControl(),
		Source:       SourceCache,
	}
}

func (f *Fetcher) wrapBody(r io.Reader, c io.Closer, cancel context.CancelFunc, target, contentType string) io.ReadCloser {
	b := &body{reader: r, closer: c, cancel: cancel}
	if f.cache == nil || f.maxCacheBytes <= 0 {
		return b
	}

	b.capture = &bytes.Buffer{}
	b.limit = f.maxCacheBytes
	b.complete = func(data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		err := f.cache.SetImage(ctx, target, models.CachedImage{ContentType: contentType, Body: data})
		if err != nil {
			f.logger.Warn("Proxy cache write failed", zap.String("url", target), zap.Error(err))
		}
	}
	return b
}

// body streams an upstream response and, when it was read to the end within
// limit, hands the bytes to complete on Close.
type body struct {
	reader   io.Reader
	closer   io.Closer
	cancel   context.CancelFunc
	capture  *bytes.Buffer
	limit    int64
	eof      bool
	complete func([]byte)
}

func (b *body) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	if b.capture != nil && n > 0 {
		if int64(b.capture.Len()+n) > b.limit {
			b.capture = nil
		} else {
			b.capture.Write(p[:n])
		}
	}
	if errors.Is(err, io.EOF) {
		b.eof = true
	}
	return n, err
}

func (b *body) Close() error {
	err := b.closer.Close()
	b.cancel()
	if b.eof && b.capture != nil && b.capture.Len() > 0 && b.complete != nil {
		b.complete(b.capture.Bytes())
		b.complete = nil
	}
	return err
}
