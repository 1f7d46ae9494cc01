package models

import "time"

// WarmupJob asks a worker to pull a product image through the proxy so the
// first visitor gets a cached copy.
type WarmupJob struct {
	ID        string    `json:"id"`
	ProductID uint      `json:"productId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Error     string    `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
