// Package events publishes settlement lifecycle events to Kafka so downstream
// consumers (notifications, analytics) can react without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/splitbase/backend/internal/models"
)

// SettlementCompleted is the payload published when a settlement reaches its
// terminal state.
type SettlementCompleted struct {
	SettlementID    string  `json:"settlementId"`
	TransactionID   string  `json:"transactionId"`
	PayerID         string  `json:"payerId"`
	ReceiverID      string  `json:"receiverId"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	PaymentMethod   string  `json:"paymentMethod"`
	TransactionHash string  `json:"transactionHash"`
	CompletedAt     int64   `json:"completedAt"`
}

// Emitter publishes settlement events.
type Emitter interface {
	// EmitSettlementCompleted publishes the terminal-state event. Emission is
	// best-effort: the settlement is already durable when this is called.
	EmitSettlementCompleted(ctx context.Context, settlement *models.Settlement) error

	// Close flushes and releases the underlying producer.
	Close() error
}

// KafkaEmitter publishes events to a Kafka topic, keyed by transaction hash
// so replays of the same settlement land in the same partition.
type KafkaEmitter struct {
	writer *kafka.Writer
	logger *slog.Logger
	mu     sync.Mutex
}

var _ Emitter = (*KafkaEmitter)(nil)

// NewKafkaEmitter creates a KafkaEmitter for the given broker and topic.
func NewKafkaEmitter(brokerAddress, topic string, logger *slog.Logger) *KafkaEmitter {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokerAddress),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaEmitter{
		writer: writer,
		logger: logger,
	}
}

// EmitSettlementCompleted publishes the settlement.completed event.
func (e *KafkaEmitter) EmitSettlementCompleted(ctx context.Context, settlement *models.Settlement) error {
	payload := SettlementCompleted{
		SettlementID:    settlement.ID,
		TransactionID:   settlement.TransactionID,
		PayerID:         settlement.PayerID,
		ReceiverID:      settlement.ReceiverID,
		Amount:          settlement.Amount,
		Currency:        settlement.Currency,
		PaymentMethod:   string(settlement.PaymentMethod),
		TransactionHash: settlement.TransactionHash,
		CompletedAt:     settlement.CompletedAt,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(settlement.TransactionHash),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}

	e.logger.Debug("published settlement event",
		"settlementId", settlement.ID,
		"hash", settlement.TransactionHash,
	)

	return nil
}

// Close flushes and closes the Kafka writer.
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// NoopEmitter discards events. Used when no broker is configured.
type NoopEmitter struct{}

var _ Emitter = (*NoopEmitter)(nil)

func (NoopEmitter) EmitSettlementCompleted(context.Context, *models.Settlement) error { return nil }
func (NoopEmitter) Close() error                                                      { return nil }
