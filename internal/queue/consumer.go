package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one raw object key.
type Handler func(ctx context.Context, key string) error

type Consumer struct {
	ch      *amqp.Channel
	queue   string
	workers int
}

func NewConsumer(conn *amqp.Connection, queueName string, workers int) (*Consumer, error) {
	if workers < 1 {
		workers = 1
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir canal: %w", err)
	}
	if err := declareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("erro ao configurar prefetch: %w", err)
	}

	return &Consumer{ch: ch, queue: queueName, workers: workers}, nil
}

// Run consumes until ctx is done or the channel closes. Messages are acked
// after the handler succeeds and dropped (nack without requeue) otherwise.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	deliveries, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("erro ao consumir fila %q: %w", c.queue, err)
	}

	logger.Info("consumindo fila", zap.String("queue", c.queue), zap.Int("workers", c.workers))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					c.deliver(ctx, d, handler)
				}
			}
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery, handler Handler) {
	if err := HandleMessage(ctx, d.Body, handler); err != nil {
		metrics.RecordQueueMessage("consumed", "error")
		logger.Error("erro ao processar evento", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.Warn("erro no nack", zap.Error(nackErr))
		}
		return
	}

	metrics.RecordQueueMessage("consumed", "success")
	if err := d.Ack(false); err != nil {
		logger.Warn("erro no ack", zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}

// HandleMessage runs handler for every raw CSV key in the event. Other keys,
// such as the reports the pipeline itself writes, are ignored.
func HandleMessage(ctx context.Context, body []byte, handler Handler) error {
	keys, err := ParseObjectKeys(body)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		if _, err := domain.ReportKey(key); err != nil {
			logger.Debug("evento ignorado", zap.String("key", key))
			continue
		}
		if err := handler(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
