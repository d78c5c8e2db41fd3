package notify

import (
	"context"
	"encoding/json"
	"time"

	"tableserve/pkg/config"
	"tableserve/prometheus"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQPublisher publishes events to a topic exchange, one routing key
// per event type.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the event exchange
func NewRabbitMQPublisher(cfg *config.AMQPConfig, log *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", cfg.Exchange))
	return &RabbitMQPublisher{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
		log:      log,
	}, nil
}

// Publish sends the event to the exchange with the event type as routing key
func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		p.log.Error("Failed to publish event",
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}

	if prometheus.EventsPublishedCounter != nil {
		prometheus.EventsPublishedCounter.WithLabelValues(event.Type).Inc()
	}
	return nil
}

// Close closes the channel and connection
func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
