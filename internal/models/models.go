package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerStatistics is a precomputed aggregate of a customer's past
// transaction amounts. A zero value means "no history" (new customer); when
// TransactionCount is 0 every amount field is 0 as well.
type CustomerStatistics struct {
	TransactionCount int     `json:"transaction_count"`
	AvgAmount        float64 `json:"avg_amount"`
	MaxAmount        float64 `json:"max_amount"`
	MinAmount        float64 `json:"min_amount"`
	TotalAmount      float64 `json:"total_amount"`
}

// IsNewCustomer reports whether the statistics describe a customer with no
// transaction history.
func (s CustomerStatistics) IsNewCustomer() bool {
	return s.TransactionCount < 1
}

// RiskAssessment is the result of scoring a single transaction. It is
// produced fresh per request and never mutated afterwards.
type RiskAssessment struct {
	ID             uuid.UUID `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	Amount         float64   `json:"amount"`
	PredictedFraud bool      `json:"predicted_fraud"`
	// FraudScore is a heuristic risk estimate in [0,1], not a calibrated
	// probability.
	FraudScore    float64            `json:"fraud_score"`
	Threshold     float64            `json:"threshold"`
	CustomerStats CustomerStatistics `json:"customer_stats"`
	// FraudIndicators lists the triggered risk rules as human-readable
	// strings, in rule-evaluation order.
	FraudIndicators []string `json:"fraud_indicators"`
	// Ratio fields are nil when the corresponding denominator was 0. A nil
	// ratio means "no data", which is distinct from a ratio of 0.
	AmountToAvgRatio *float64  `json:"amount_to_avg_ratio,omitempty"`
	AmountToMaxRatio *float64  `json:"amount_to_max_ratio,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// AssessmentEvent is the event published to Redis Streams / Kafka after each
// assessment, for downstream analytics and audit.
type AssessmentEvent struct {
	AssessmentID   string    `json:"assessment_id"`
	CustomerID     int64     `json:"customer_id"`
	Amount         float64   `json:"amount"`
	FraudScore     float64   `json:"fraud_score"`
	PredictedFraud bool      `json:"predicted_fraud"`
	Indicators     []string  `json:"indicators"`
	Timestamp      time.Time `json:"timestamp"`
}
