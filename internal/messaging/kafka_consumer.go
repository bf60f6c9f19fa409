package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
)

// KafkaConsumer reads tip events from Kafka and hands them to the live feed
type KafkaConsumer struct {
	reader      *kafka.Reader
	broadcaster service.Broadcaster
	logger      zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "maestro.tip-events"
	GroupID string   // empty derives a per-instance group, see InstanceGroupID
}

// DefaultGroupPrefix prefixes derived consumer group ids
const DefaultGroupPrefix = "maestro-tips-live"

// InstanceGroupID returns a consumer group id unique to this process.
// Every server instance must read in its own group, otherwise Kafka
// splits the partitions between them and each live feed misses events.
func InstanceGroupID(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, host, uuid.NewString()[:8])
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	broadcaster service.Broadcaster,
	logger zerolog.Logger,
) *KafkaConsumer {
	groupID := config.GroupID
	if groupID == "" {
		groupID = InstanceGroupID(DefaultGroupPrefix)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:      reader,
		broadcaster: broadcaster,
		logger:      logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start consumes until ctx is cancelled
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return c.reader.Close()
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage decodes one event and broadcasts it. A full broadcast
// buffer drops the event; the live feed is best effort.
func (c *KafkaConsumer) processMessage(msg kafka.Message) error {
	var event models.TipEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.TipID == "" || event.Type == "" {
		return fmt.Errorf("%w: event without tip id or type", models.ErrValidation)
	}

	if !c.broadcaster.Broadcast(event) {
		c.logger.Warn().Str("tip_id", event.TipID).Str("type", string(event.Type)).Msg("event dropped by broadcaster")
		return nil
	}

	c.logger.Debug().
		Str("tip_id", event.TipID).
		Str("type", string(event.Type)).
		Msg("event broadcast")
	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
