package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueSender publica los correos en RabbitMQ; cmd/mail_sender los entrega.
type QueueSender struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewQueueSender(url, queueName string) (*QueueSender, error) {
	const op = "email.NewQueueSender"

	conn, ch, err := openQueue(url, queueName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &QueueSender{conn: conn, channel: ch, queue: queueName}, nil
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	const op = "email.QueueSender.Send"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *QueueSender) Close() {
	_ = q.channel.Close()
	_ = q.conn.Close()
}

func openQueue(url, queueName string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
