package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"inwista-wallet-go/internal/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the interface implemented by types that can publish wallet events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

// amqpChannel is the part of *amqp091.Channel the producer uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Close() error
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu          sync.Mutex
	exchange    string
	conn        *amqp091.Connection
	channel     amqpChannel
	openChannel func() (amqpChannel, error)
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(_ context.Context, routingKey string, _ interface{}) error {
	zap.L().Debug("Event publish skipped", zap.String("mode", "fallback"), zap.String("routing_key", routingKey))
	return nil
}

func (p *EventProducerFallback) Close() {}

// NewPublisher connects to RabbitMQ, falling back to a no-op publisher when no
// URL is configured or the broker cannot be reached.
func NewPublisher(cfg models.EventsConfig) Publisher {
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		zap.L().Info("RABBITMQ_URL not set, wallet events will not be published")
		return &EventProducerFallback{}
	}

	producer, err := NewEventProducer(cfg.RabbitMQURL, cfg.Exchange)
	if err != nil {
		zap.L().Warn("RabbitMQ unavailable, wallet events will not be published", zap.Error(err))
		return &EventProducerFallback{}
	}

	zap.L().Info("Publishing wallet events", zap.String("exchange", cfg.Exchange))
	return producer
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials the broker and declares the durable topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		exchange: exchange,
		conn:     conn,
		channel:  ch,
		openChannel: func() (amqpChannel, error) {
			c, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}, nil
}

// Publish sends a JSON message to the wallet exchange. A failed publish reopens
// the channel and retries once.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}

	zap.L().Warn("Publish failed, reopening channel",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err))

	// Release the failed channel before opening its replacement.
	if closeErr := p.channel.Close(); closeErr != nil {
		zap.L().Debug("Closing failed channel", zap.Error(closeErr))
	}

	ch, chErr := p.openChannel()
	if chErr != nil {
		return chErr
	}
	p.channel = ch
	if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
