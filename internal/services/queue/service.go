package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-resizer-bridge/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Resizer runs one resize request to completion.
type Resizer interface {
	Resize(ctx context.Context, req models.ResizeRequest) (*models.ResizeResult, error)
}

// JobStore persists job status so callers can poll it.
type JobStore interface {
	SaveJob(ctx context.Context, job *models.ResizeJob) error
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	resizer   Resizer
	jobs      JobStore
}

func NewQueueService(
	rabbitmqURL string,
	queueName string,
	resizer Resizer,
	jobs JobStore,
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
		queueName, // name
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

	// One unacked resize per consumer; decodes are memory heavy.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: queueName,
		resizer:   resizer,
		jobs:      jobs,
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
