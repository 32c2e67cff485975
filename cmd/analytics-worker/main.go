package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orbidefence/fraud-detector/configs"
	"github.com/orbidefence/fraud-detector/internal/models"
	"github.com/orbidefence/fraud-detector/internal/queue"
)

// This worker consumes the assessment events the API server mirrors to Kafka
// and aggregates them into live fraud metrics. It does not score anything
// itself; scoring happens synchronously in the API server.

// AssessmentMetrics tracks live aggregates over consumed assessment events.
type AssessmentMetrics struct {
	mu              sync.RWMutex
	Assessed        int64
	Flagged         int64
	ScoreSum        float64
	IndicatorCounts map[string]int64
	LastEventTime   time.Time
}

func NewAssessmentMetrics() *AssessmentMetrics {
	return &AssessmentMetrics{
		IndicatorCounts: make(map[string]int64),
	}
}

func (m *AssessmentMetrics) Record(event *models.AssessmentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Assessed++
	m.ScoreSum += event.FraudScore
	if event.PredictedFraud {
		m.Flagged++
	}
	for _, indicator := range event.Indicators {
		m.IndicatorCounts[indicator]++
	}
	m.LastEventTime = time.Now()
}

func (m *AssessmentMetrics) Snapshot() (assessed, flagged int64, avgScore, fraudRate float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assessed = m.Assessed
	flagged = m.Flagged
	if assessed > 0 {
		avgScore = m.ScoreSum / float64(assessed)
		fraudRate = float64(flagged) / float64(assessed)
	}
	return
}

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENVIRONMENT") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := configs.Load()

	if !cfg.Kafka.Enabled {
		log.Fatal().Msg("KAFKA_BROKERS not set, nothing to consume")
	}

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = "assessment-analytics"
	}

	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group_id", groupID).
		Msg("Starting assessment analytics worker")

	// Optional Redis: keeps the most recent flagged assessments available to
	// dashboards. The worker runs fine without it.
	var cacheClient *queue.CacheClient
	if cfg.Redis.Enabled {
		var err error
		cacheClient, err = queue.NewCacheClient(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, flagged assessments will not be cached")
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true
	config.Version = sarama.V3_0_0_0

	// Retry connecting to Kafka
	var consumerGroup sarama.ConsumerGroup
	var err error
	for i := 0; i < 30; i++ {
		consumerGroup, err = sarama.NewConsumerGroup(cfg.Kafka.Brokers, groupID, config)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to Kafka, retrying...")
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka consumer group after retries")
	}
	defer consumerGroup.Close()

	handler := &assessmentHandler{
		metrics:     NewAssessmentMetrics(),
		cacheClient: cacheClient,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received, stopping analytics worker...")
		cancel()
	}()

	go handler.startMetricsReporter(ctx)

	topics := []string{cfg.Kafka.Topic}
	for {
		if err := consumerGroup.Consume(ctx, topics, handler); err != nil {
			log.Error().Err(err).Msg("Error from consumer")
		}

		if ctx.Err() != nil {
			log.Info().Msg("Context cancelled, shutting down analytics worker")
			return
		}
	}
}

type assessmentHandler struct {
	metrics     *AssessmentMetrics
	cacheClient *queue.CacheClient
}

func (h *assessmentHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info().Msg("Analytics session started")
	return nil
}

func (h *assessmentHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info().Msg("Analytics session ended")
	return nil
}

func (h *assessmentHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			h.processMessage(session.Context(), message)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *assessmentHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	var event models.AssessmentEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		log.Error().Err(err).Msg("Failed to parse assessment event")
		return
	}

	h.metrics.Record(&event)

	if event.PredictedFraud {
		log.Warn().
			Str("assessment_id", event.AssessmentID).
			Int64("customer_id", event.CustomerID).
			Float64("amount", event.Amount).
			Float64("fraud_score", event.FraudScore).
			Strs("indicators", event.Indicators).
			Msg("Fraud flagged")

		h.cacheFlaggedEvent(ctx, &event)
	}
}

func (h *assessmentHandler) cacheFlaggedEvent(ctx context.Context, event *models.AssessmentEvent) {
	if h.cacheClient == nil {
		return
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return
	}

	key := "analytics:flagged"
	if err := h.cacheClient.LPush(ctx, key, string(eventJSON)); err != nil {
		log.Warn().Err(err).Msg("Failed to cache flagged assessment")
		return
	}
	// Keep last 1000 flagged events
	_ = h.cacheClient.LTrim(ctx, key, 0, 999)
}

func (h *assessmentHandler) startMetricsReporter(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			assessed, flagged, avgScore, fraudRate := h.metrics.Snapshot()
			log.Info().
				Int64("assessed", assessed).
				Int64("flagged", flagged).
				Float64("avg_score", avgScore).
				Float64("fraud_rate", fraudRate).
				Msg("Assessment analytics")

		case <-ctx.Done():
			return
		}
	}
}
