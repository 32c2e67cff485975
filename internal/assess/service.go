package assess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orbidefence/fraud-detector/internal/events"
	"github.com/orbidefence/fraud-detector/internal/models"
	"github.com/orbidefence/fraud-detector/internal/queue"
	"github.com/orbidefence/fraud-detector/internal/scoring"
	"github.com/orbidefence/fraud-detector/internal/stats"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a non-negative finite number")
	ErrInvalidCustomerID = errors.New("customer id must be non-negative")
)

const (
	assessmentCacheTTL   = 24 * time.Hour
	recentAssessmentsKey = "assessments:recent"
	recentAssessmentsMax = 99
)

// Stages are the analysis stage labels reported through ProgressFunc. They
// exist for UI pacing only and carry no behavioral contract.
var Stages = []string{
	"Initializing fraud detection system...",
	"Analyzing transaction patterns...",
	"Comparing with historical data...",
	"Calculating fraud indicators...",
	"Finalizing fraud assessment...",
}

// ProgressFunc receives coarse-grained progress while an assessment runs.
// Implementations must not assume any minimum duration between calls.
type ProgressFunc func(stage string, fraction float64)

// Request is a validated-at-the-boundary assessment request.
type Request struct {
	CustomerID int64   `json:"customer_id" binding:"min=0"`
	Amount     float64 `json:"amount" binding:"min=0"`
}

// Service resolves customer statistics, scores transactions and fans the
// result out to the optional cache, stream and Kafka sinks. Sink failures are
// logged and never affect the assessment.
type Service struct {
	stats     stats.Provider
	threshold float64
	cache     *queue.CacheClient
	stream    *queue.StreamPublisher
	kafka     *events.KafkaPublisher
}

// NewService creates an assessment service. cache, stream and kafka may be
// nil; the service then runs without those sinks.
func NewService(
	provider stats.Provider,
	threshold float64,
	cache *queue.CacheClient,
	stream *queue.StreamPublisher,
	kafka *events.KafkaPublisher,
) *Service {
	return &Service{
		stats:     provider,
		threshold: threshold,
		cache:     cache,
		stream:    stream,
		kafka:     kafka,
	}
}

// Threshold returns the decision threshold in use.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Assess validates the request, scores the transaction and publishes the
// result to the configured sinks.
func (s *Service) Assess(ctx context.Context, req *Request) (*models.RiskAssessment, error) {
	return s.AssessWithProgress(ctx, req, nil)
}

// AssessWithProgress is Assess with an optional progress callback.
func (s *Service) AssessWithProgress(ctx context.Context, req *Request, progress ProgressFunc) (*models.RiskAssessment, error) {
	startTime := time.Now()

	if err := validate(req); err != nil {
		return nil, err
	}

	reportProgress(progress, 0)
	customerStats := s.stats.Lookup(req.CustomerID)
	reportProgress(progress, 1)
	reportProgress(progress, 2)

	assessment := scoring.Score(customerStats, req.Amount, s.threshold)
	reportProgress(progress, 3)

	assessment.ID = uuid.New()
	assessment.CustomerID = req.CustomerID
	assessment.CreatedAt = startTime.UTC()
	assessment.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	s.publish(ctx, &assessment)
	reportProgress(progress, 4)

	log.Info().
		Str("assessment_id", assessment.ID.String()).
		Int64("customer_id", req.CustomerID).
		Float64("amount", req.Amount).
		Float64("fraud_score", assessment.FraudScore).
		Bool("predicted_fraud", assessment.PredictedFraud).
		Strs("indicators", assessment.FraudIndicators).
		Msg("Transaction assessed")

	return &assessment, nil
}

// CustomerStatistics returns the stored statistics for a customer. Unknown
// customers get the zero record.
func (s *Service) CustomerStatistics(customerID int64) (models.CustomerStatistics, error) {
	if customerID < 0 {
		return models.CustomerStatistics{}, ErrInvalidCustomerID
	}
	return s.stats.Lookup(customerID), nil
}

// RecentAssessments returns the most recent assessments from the cache,
// newest first. Without a cache it returns an empty slice.
func (s *Service) RecentAssessments(ctx context.Context, limit int64) ([]models.RiskAssessment, error) {
	if s.cache == nil {
		return nil, nil
	}

	entries, err := s.cache.LRange(ctx, recentAssessmentsKey, 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent assessments: %w", err)
	}

	assessments := make([]models.RiskAssessment, 0, len(entries))
	for _, entry := range entries {
		var a models.RiskAssessment
		if err := json.Unmarshal([]byte(entry), &a); err != nil {
			log.Warn().Err(err).Msg("Skipping malformed cached assessment")
			continue
		}
		assessments = append(assessments, a)
	}

	return assessments, nil
}

func validate(req *Request) error {
	if req.CustomerID < 0 {
		return ErrInvalidCustomerID
	}
	if req.Amount < 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

func reportProgress(progress ProgressFunc, stage int) {
	if progress == nil {
		return
	}
	progress(Stages[stage], float64(stage+1)/float64(len(Stages)))
}

// publish fans the assessment out to the optional sinks, best effort.
func (s *Service) publish(ctx context.Context, assessment *models.RiskAssessment) {
	if s.cache != nil {
		key := fmt.Sprintf("assessment:%s", assessment.ID)
		if err := s.cache.Set(ctx, key, assessment, assessmentCacheTTL); err != nil {
			log.Warn().Err(err).Str("assessment_id", assessment.ID.String()).Msg("Failed to cache assessment")
		}

		if data, err := json.Marshal(assessment); err == nil {
			if err := s.cache.LPush(ctx, recentAssessmentsKey, string(data)); err != nil {
				log.Warn().Err(err).Msg("Failed to record recent assessment")
			} else if err := s.cache.LTrim(ctx, recentAssessmentsKey, 0, recentAssessmentsMax); err != nil {
				log.Warn().Err(err).Msg("Failed to trim recent assessments")
			}
		}
	}

	if s.stream == nil && s.kafka == nil {
		return
	}

	event := &models.AssessmentEvent{
		AssessmentID:   assessment.ID.String(),
		CustomerID:     assessment.CustomerID,
		Amount:         assessment.Amount,
		FraudScore:     assessment.FraudScore,
		PredictedFraud: assessment.PredictedFraud,
		Indicators:     assessment.FraudIndicators,
		Timestamp:      assessment.CreatedAt,
	}

	if s.stream != nil {
		if _, err := s.stream.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("assessment_id", event.AssessmentID).Msg("Failed to publish assessment to stream")
		}
	}

	if s.kafka != nil {
		if err := s.kafka.Publish(event); err != nil {
			log.Warn().Err(err).Str("assessment_id", event.AssessmentID).Msg("Failed to publish assessment to Kafka")
		}
	}
}
