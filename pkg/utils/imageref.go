package utils

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// ProxyPath is the route that relays remote images through the server.
	ProxyPath = "/api/image"

	// DefaultLabel is used wherever a placeholder has no better text.
	DefaultLabel = "Image"
)

var (
	embeddedPattern = regexp.MustCompile(`(?i)^(data|blob):`)
	httpPattern     = regexp.MustCompile(`(?i)^https?://`)
)

// Normalize canonicalizes a user supplied image reference. Embedded
// references (data:, blob:) and absolute http(s) URLs are returned trimmed
// but otherwise untouched; anything else is assumed to be a bare host/path
// and gets an https scheme.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	t := strings.TrimSpace(raw)
	if IsEmbedded(t) || httpPattern.MatchString(t) {
		return t
	}
	return "https://" + t
}

// IsEmbedded reports whether the reference carries its own bytes.
func IsEmbedded(ref string) bool {
	return embeddedPattern.MatchString(strings.TrimSpace(ref))
}

// NeedsProxy reports whether a normalized reference must be fetched through
// the image proxy.
func NeedsProxy(normalized string) bool {
	t := strings.TrimSpace(normalized)
	if t == "" || IsEmbedded(t) {
		return false
	}
	return httpPattern.MatchString(t)
}

// StripScheme removes a leading http:// or https:// from u.
func StripScheme(u string) string {
	return httpPattern.ReplaceAllString(u, "")
}

// ProxyURL resolves the source a display surface should load for raw.
func ProxyURL(raw, label string) string {
	normalized := Normalize(raw)
	if !NeedsProxy(normalized) {
		return normalized
	}
	if label == "" {
		label = DefaultLabel
	}

	q := url.Values{}
	q.Set("u", normalized)
	q.Set("label", label)
	return ProxyPath + "?" + q.Encode()
}
