package scoring

import (
	"fmt"

	"github.com/orbidefence/fraud-detector/internal/models"
)

// Ratio bands and score impacts for the heuristic fraud rules. A transaction
// can trigger several rules at once; their impacts are additive.
const (
	avgRatioHigh     = 5.0 // amount vs customer average, high band
	avgRatioElevated = 3.0 // amount vs customer average, elevated band
	maxRatioHigh     = 1.5 // amount vs customer maximum, high band
	maxRatioExceeded = 1.0 // amount vs customer maximum, exceeded band

	highAmount     = 1000.0 // absolute amount, elevated band (also new-customer alert)
	veryHighAmount = 5000.0 // absolute amount, high band

	newCustomerImpact      = 0.5
	avgRatioHighImpact     = 0.3
	avgRatioElevatedImpact = 0.2
	maxRatioHighImpact     = 0.4
	maxRatioExceededImpact = 0.2
	veryHighAmountImpact   = 0.3
	highAmountImpact       = 0.1

	// loyaltyDiscount reduces the score of customers with more than
	// loyaltyMinCount past transactions by 20%. It is applied after the
	// clamp to 1.0 and the clamp is never re-applied.
	loyaltyDiscount = 0.8
	loyaltyMinCount = 10
)

// Score computes the fraud risk assessment for a single transaction.
//
// It is a pure function: identical inputs always produce an identical
// assessment, and no state is kept between calls. The amount is assumed to be
// a validated, non-negative finite number (callers reject anything else
// before reaching the scorer) and the threshold to be in [0,1].
//
// The returned assessment carries only the computed fields; callers stamp
// identity and timing.
func Score(stats models.CustomerStatistics, amount, threshold float64) models.RiskAssessment {
	assessment := models.RiskAssessment{
		Amount:        amount,
		Threshold:     threshold,
		CustomerStats: stats,
	}

	var avgRatio, maxRatio float64
	if stats.AvgAmount > 0 {
		avgRatio = amount / stats.AvgAmount
		assessment.AmountToAvgRatio = &avgRatio
	}
	if stats.MaxAmount > 0 {
		maxRatio = amount / stats.MaxAmount
		assessment.AmountToMaxRatio = &maxRatio
	}

	// Indicators mirror the score rules below but are banded independently:
	// at most one average indicator and one maximum indicator is emitted.
	var indicators []string
	if stats.AvgAmount > 0 {
		if avgRatio > avgRatioElevated {
			indicators = append(indicators,
				fmt.Sprintf("Amount is %.1fx higher than customer's average", avgRatio))
		}
	} else if amount > highAmount {
		indicators = append(indicators, "High amount for a new customer")
	}

	if stats.MaxAmount > 0 {
		if maxRatio > maxRatioHigh {
			indicators = append(indicators,
				fmt.Sprintf("Amount is %.1fx higher than customer's maximum", maxRatio))
		} else if maxRatio > maxRatioExceeded {
			indicators = append(indicators, "Amount exceeds customer's maximum")
		}
	}
	assessment.FraudIndicators = indicators

	score := 0.0

	if stats.IsNewCustomer() {
		score += newCustomerImpact
	}

	if avgRatio > avgRatioHigh {
		score += avgRatioHighImpact
	} else if avgRatio > avgRatioElevated {
		score += avgRatioElevatedImpact
	}

	if maxRatio > maxRatioHigh {
		score += maxRatioHighImpact
	} else if maxRatio > maxRatioExceeded {
		score += maxRatioExceededImpact
	}

	if amount > veryHighAmount {
		score += veryHighAmountImpact
	} else if amount > highAmount {
		score += highAmountImpact
	}

	if score > 1.0 {
		score = 1.0
	}

	// The discount can bring a capped score back below 1.0; the cap is not
	// re-applied afterwards.
	if stats.TransactionCount > loyaltyMinCount {
		score *= loyaltyDiscount
	}

	assessment.FraudScore = score
	assessment.PredictedFraud = score > threshold

	return assessment
}
