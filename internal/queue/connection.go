// Package queue carries object-created events over RabbitMQ so uploads can be
// processed by a separate worker.
package queue

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial connects to the broker, retrying while it starts up.
func Dial(url string, maxRetries int, retryInterval time.Duration) (*amqp.Connection, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}
	return nil, fmt.Errorf("erro ao conectar RabbitMQ após %d tentativas: %w", maxRetries, lastErr)
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("erro ao declarar fila %q: %w", name, err)
	}
	return nil
}
