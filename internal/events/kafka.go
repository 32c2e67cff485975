package events

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/orbidefence/fraud-detector/configs"
	"github.com/orbidefence/fraud-detector/internal/models"
)

// KafkaPublisher mirrors assessment events to a Kafka topic for the
// analytics/audit pipeline. It is only constructed when brokers are
// configured; the rest of the system treats it as an optional sink.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to the configured brokers.
func NewKafkaPublisher(cfg configs.KafkaConfig) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Version = sarama.V3_0_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka publisher initialized")

	return &KafkaPublisher{producer: producer, topic: cfg.Topic}, nil
}

// Publish sends an assessment event, keyed by customer id so each customer's
// events stay ordered within a partition.
func (p *KafkaPublisher) Publish(event *models.AssessmentEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.CustomerID, 10)),
		Value: sarama.ByteEncoder(eventJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("assessment_id", event.AssessmentID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Assessment event published to Kafka")

	return nil
}

// Close shuts down the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
