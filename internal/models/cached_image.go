package models

import "time"

// CachedImage is an upstream image body kept by the proxy cache.
type CachedImage struct {
	ContentType string
	Body        []byte
}

// ImageProbe records how a product image behaved when loaded through the
// proxy by a warm-up worker.
type ImageProbe struct {
	ProductID uint      `json:"productId"`
	Source    string    `json:"src"`
	Loaded    bool      `json:"loaded"`
	Failed    bool      `json:"failed"`
	CheckedAt time.Time `json:"checkedAt"`
}
