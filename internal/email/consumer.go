package email

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer lee la cola de correos y los entrega con el Sender configurado.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	sender  Sender
	logger  *zap.Logger
}

func NewConsumer(url, queueName string, sender Sender, logger *zap.Logger) (*Consumer, error) {
	const op = "email.NewConsumer"

	conn, ch, err := openQueue(url, queueName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Consumer{conn: conn, channel: ch, queue: queueName, sender: sender, logger: logger}, nil
}

// Run consume hasta que el contexto se cancela o el canal se cierra.
func (c *Consumer) Run(ctx context.Context) error {
	const op = "email.Consumer.Run"

	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	if err := Deliver(ctx, c.sender, d.Body); err != nil {
		c.logger.Error("deliver email failed", zap.Error(err))
		// Sin reintentos: un mensaje mal formado o rechazado se descarta.
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Deliver decodifica un cuerpo de la cola y lo envia.
func Deliver(ctx context.Context, sender Sender, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if msg.To == "" {
		return fmt.Errorf("decode message: missing recipient")
	}
	return sender.Send(ctx, msg)
}

func (c *Consumer) Close() {
	_ = c.channel.Close()
	_ = c.conn.Close()
}
