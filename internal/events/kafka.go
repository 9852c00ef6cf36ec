package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/josh-kwaku/minibank/internal/domain"
)

const publishBatchTimeout = 5 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
			// Publishing runs on the request path; do not wait for a batch.
			BatchTimeout: publishBatchTimeout,
		},
	}
}

// PublishTransactions keys every message by account id so consumers see one
// account's history in order.
func (p *KafkaPublisher) PublishTransactions(ctx context.Context, txns ...*domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(txns))
	for _, t := range txns {
		data, err := json.Marshal(NewTransactionRecorded(t))
		if err != nil {
			return fmt.Errorf("PublishTransactions: marshal: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(t.AccountID.String()),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(TypeTransactionRecorded)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("PublishTransactions: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
