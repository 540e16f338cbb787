package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	mu     sync.Mutex
	ch     *amqp.Channel
	queue  string
	bucket string
}

func NewPublisher(conn *amqp.Connection, queueName, bucket string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir canal: %w", err)
	}
	if err := declareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, err
	}

	return &Publisher{
		ch:     ch,
		queue:  queueName,
		bucket: bucket,
	}, nil
}

// PublishObjectCreated announces that key was written to the bucket.
func (p *Publisher) PublishObjectCreated(ctx context.Context, key string, size int64) error {
	body, err := json.Marshal(NewObjectCreatedEvent(p.bucket, key, size))
	if err != nil {
		return fmt.Errorf("erro ao serializar evento: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		metrics.RecordQueueMessage("published", "error")
		return fmt.Errorf("erro ao publicar evento de %s: %w", key, err)
	}

	metrics.RecordQueueMessage("published", "success")
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
