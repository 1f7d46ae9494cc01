package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/pkg/utils"
	"go.uber.org/zap"
)

// NewWarmupJob builds the job for product, or returns nil when its image does
// not go through the proxy.
func NewWarmupJob(product models.Product) *models.WarmupJob {
	if !utils.NeedsProxy(utils.Normalize(product.ImageURL)) {
		return nil
	}
	return &models.WarmupJob{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
}

// PublishWarmup enqueues a warm-up job for product. Products with embedded
// images are skipped.
func (q *QueueService) PublishWarmup(ctx context.Context, product models.Product) error {
	job := NewWarmupJob(product)
	if job == nil {
		return nil
	}
	return q.PublishJob(ctx, job)
}

func (q *QueueService) PublishJob(ctx context.Context, job *models.WarmupJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	q.publishMu.Lock()
	defer q.publishMu.Unlock()

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Warm-up job published",
		zap.String("job_id", job.ID),
		zap.Uint("product_id", job.ProductID))
	return nil
}
