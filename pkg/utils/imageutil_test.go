package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateStorageKey(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^products/([A-Za-z0-9_-]+)_\d+_[0-9a-f]{8}(\.[a-z]*)?$`)

	cases := map[string]string{
		"photo.JPG":            "photo",
		"my summer pic.png":    "my-summer-pic",
		"../../etc/passwd.gif": "passwd",
		".webp":                "image",
	}
	for filename, name := range cases {
		key := GenerateStorageKey(filename)
		m := pattern.FindStringSubmatch(key)
		require.NotNil(t, m, key)
		require.Equal(t, name, m[1], filename)
	}

	require.NotEqual(t, GenerateStorageKey("a.png"), GenerateStorageKey("a.png"))
	require.Regexp(t, `\.jpg$`, GenerateStorageKey("photo.JPG"))
}

func TestDetectImageType(t *testing.T) {
	t.Parallel()

	ct, ok := DetectImageType([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.True(t, ok)
	require.Equal(t, "image/png", ct)

	_, ok = DetectImageType([]byte("<svg xmlns='http://www.w3.org/2000/svg'></svg>"))
	require.False(t, ok)
}

func TestEmbeddedReference(t *testing.T) {
	t.Parallel()

	require.Equal(t, "data:image/gif;base64,R0lG", EmbeddedReference([]byte("GIF"), "image/gif"))
}
