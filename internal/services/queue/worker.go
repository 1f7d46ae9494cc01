package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"github.com/whoyoshome/mini-productos/internal/models"
	"go.uber.org/zap"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.WarmupJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.ImageURL == "" {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Uint("product_id", job.ProductID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing

	probe := q.processJob(ctx, &job)
	if probe.Failed {
		job.Status = models.StatusFailed
		job.Error = "image did not load"
		q.logger.Warn("Warm-up probe fell back to placeholder",
			zap.String("job_id", job.ID),
			zap.Uint("product_id", job.ProductID))
	} else {
		job.Status = models.StatusCompleted
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID))
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}

	q.storeJobResult(ctx, &job, probe)
}

func (q *QueueService) storeJobResult(ctx context.Context, job *models.WarmupJob, probe models.ImageProbe) {
	if q.probes == nil {
		return
	}
	if err := q.probes.SaveProbe(ctx, probe); err != nil {
		q.logger.Warn("Failed to store probe",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return
	}
	q.logger.Debug("Job result stored",
		zap.String("job_id", job.ID),
		zap.String("status", job.Status))
}
