package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"github.com/whoyoshome/mini-productos/internal/models"
	"github.com/whoyoshome/mini-productos/internal/services/proxy"
	"go.uber.org/zap"
)

const (
	QueueName = "image_warmup"

	defaultProbeTimeout = 10 * time.Second
)

// ImageFetcher pulls an image through the proxy.
type ImageFetcher interface {
	Fetch(ctx context.Context, target string) (*proxy.Image, error)
}

// ProbeStore keeps the outcome of the last probe per product.
type ProbeStore interface {
	SaveProbe(ctx context.Context, probe models.ImageProbe) error
}

type QueueService struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	publishMu    sync.Mutex
	logger       *zap.Logger
	queueName    string
	fetcher      ImageFetcher
	probes       ProbeStore
	probeTimeout time.Duration
}

func NewQueueService(
	rabbitmqURL string,
	fetcher ImageFetcher,
	probes ProbeStore,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:         conn,
		channel:      channel,
		logger:       logger,
		queueName:    QueueName,
		fetcher:      fetcher,
		probes:       probes,
		probeTimeout: defaultProbeTimeout,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
