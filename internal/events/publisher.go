package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 5 * time.Second

type Sink interface {
	Name() string
	Publish(ctx context.Context, payload []byte) error
}

type envelope struct {
	Type  EventType `json:"type"`
	Event Event     `json:"event"`
}

type NATSSink struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSink(conn *nats.Conn, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) Name() string {
	return "nats"
}

func (s *NATSSink) Publish(_ context.Context, payload []byte) error {
	return s.conn.Publish(s.subject, payload)
}

type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Publish(ctx context.Context, payload []byte) error {
	return s.client.Publish(ctx, s.channel, payload).Err()
}

// Publisher drains an EventBus into the configured sinks.
type Publisher struct {
	bus       *EventBus
	sinks     []Sink
	closeChan chan any
}

func NewPublisher(bus *EventBus, sinks ...Sink) *Publisher {
	return &Publisher{
		bus:       bus,
		sinks:     sinks,
		closeChan: make(chan any),
	}
}

// Start blocks until the bus is closed by Stop.
func (p *Publisher) Start() {
	for event := range p.bus.GetChannel() {
		p.publish(event)
	}
	p.closeChan <- struct{}{}
}

// Stop closes the bus and waits for queued events to be published.
func (p *Publisher) Stop() {
	p.bus.Close()
	<-p.closeChan
}

func (p *Publisher) publish(event Event) {
	if len(p.sinks) == 0 {
		return
	}
	payload, err := json.Marshal(envelope{Type: event.GetType(), Event: event})
	if err != nil {
		slog.Error("Failed to encode event", "type", event.GetType(), "error", err)
		return
	}
	for _, sink := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := sink.Publish(ctx, payload); err != nil {
			slog.Error("Failed to publish event", "sink", sink.Name(), "type", event.GetType(), "error", fmt.Errorf("publish: %w", err))
		}
		cancel()
	}
}
