package events

import (
	"sync"
	"time"
)

type EventType string

const (
	EventTypeTransactionSent   EventType = "transaction_sent"
	EventTypeTransactionFailed EventType = "transaction_failed"
)

const QueueDepth = 100

type Event interface {
	GetType() EventType
}

type TransactionSentEvent struct {
	ID         string    `json:"id"`
	WalletID   string    `json:"wallet_id"`
	InputValue string    `json:"input_value"`
	CAIP2      string    `json:"caip2"`
	Hash       string    `json:"hash"`
	Time       time.Time `json:"time"`
}

func (e TransactionSentEvent) GetType() EventType {
	return EventTypeTransactionSent
}

type TransactionFailedEvent struct {
	ID         string    `json:"id"`
	WalletID   string    `json:"wallet_id"`
	InputValue string    `json:"input_value"`
	CAIP2      string    `json:"caip2"`
	Error      string    `json:"error"`
	Time       time.Time `json:"time"`
}

func (e TransactionFailedEvent) GetType() EventType {
	return EventTypeTransactionFailed
}

type EventBus struct {
	mu         sync.RWMutex
	closed     bool
	eventQueue chan Event
}

func NewEventBus() *EventBus {
	return &EventBus{
		eventQueue: make(chan Event, QueueDepth),
	}
}

func (eb *EventBus) GetChannel() chan Event {
	return eb.eventQueue
}

// Emit queues an event without blocking. It reports false when the event was
// dropped because the queue is full or the bus is closed.
func (eb *EventBus) Emit(event Event) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return false
	}
	select {
	case eb.eventQueue <- event:
		return true
	default:
		return false
	}
}

func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.eventQueue)
}
