package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbidefence/fraud-detector/internal/models"
)

func TestScore_NewCustomerHighAmount(t *testing.T) {
	result := Score(models.CustomerStatistics{}, 1500, 0.5)

	assert.InDelta(t, 0.6, result.FraudScore, 1e-9)
	assert.True(t, result.PredictedFraud)
	assert.Equal(t, []string{"High amount for a new customer"}, result.FraudIndicators)
	assert.Nil(t, result.AmountToAvgRatio)
	assert.Nil(t, result.AmountToMaxRatio)
}

func TestScore_LoyalCustomerLargeDeviation(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 20,
		AvgAmount:        100,
		MaxAmount:        200,
		MinAmount:        10,
		TotalAmount:      2000,
	}

	result := Score(stats, 600, 0.5)

	// avg ratio 6.0 and max ratio 3.0 both land in the high bands; the
	// loyalty discount then takes 20% off the 0.7 sum.
	assert.InDelta(t, 0.56, result.FraudScore, 1e-9)
	assert.True(t, result.PredictedFraud)

	require.NotNil(t, result.AmountToAvgRatio)
	assert.InDelta(t, 6.0, *result.AmountToAvgRatio, 1e-9)
	require.NotNil(t, result.AmountToMaxRatio)
	assert.InDelta(t, 3.0, *result.AmountToMaxRatio, 1e-9)

	assert.Equal(t, []string{
		"Amount is 6.0x higher than customer's average",
		"Amount is 3.0x higher than customer's maximum",
	}, result.FraudIndicators)
}

func TestScore_TypicalSpendIsClean(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 20,
		AvgAmount:        500,
		MaxAmount:        1000,
		MinAmount:        100,
		TotalAmount:      10000,
	}

	result := Score(stats, 300, 0.5)

	assert.Zero(t, result.FraudScore)
	assert.False(t, result.PredictedFraud)
	assert.Empty(t, result.FraudIndicators)

	require.NotNil(t, result.AmountToAvgRatio)
	assert.InDelta(t, 0.6, *result.AmountToAvgRatio, 1e-9)
	require.NotNil(t, result.AmountToMaxRatio)
	assert.InDelta(t, 0.3, *result.AmountToMaxRatio, 1e-9)
}

func TestScore_ThresholdEqualityIsNotFraud(t *testing.T) {
	// A new customer below the high-amount band scores exactly 0.5. The
	// decision is strictly greater-than, so equality stays legitimate.
	result := Score(models.CustomerStatistics{}, 500, 0.5)

	assert.Equal(t, 0.5, result.FraudScore)
	assert.False(t, result.PredictedFraud)
	assert.Empty(t, result.FraudIndicators)
}

func TestScore_Bands(t *testing.T) {
	base := models.CustomerStatistics{
		TransactionCount: 5,
		AvgAmount:        100,
		MaxAmount:        200,
		MinAmount:        10,
		TotalAmount:      500,
	}

	tests := []struct {
		name           string
		amount         float64
		wantScore      float64
		wantIndicators []string
	}{
		{
			name:           "within history",
			amount:         150,
			wantScore:      0,
			wantIndicators: nil,
		},
		{
			name:      "max exceeded band",
			amount:    250,
			wantScore: 0.2,
			wantIndicators: []string{
				"Amount exceeds customer's maximum",
			},
		},
		{
			name:      "elevated avg and high max",
			amount:    350,
			wantScore: 0.6,
			wantIndicators: []string{
				"Amount is 3.5x higher than customer's average",
				"Amount is 1.8x higher than customer's maximum",
			},
		},
		{
			name:      "high avg ratio and high amount",
			amount:    1100,
			wantScore: 0.8,
			wantIndicators: []string{
				"Amount is 11.0x higher than customer's average",
				"Amount is 5.5x higher than customer's maximum",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(base, tt.amount, 0.5)

			assert.InDelta(t, tt.wantScore, result.FraudScore, 1e-9)
			assert.Equal(t, tt.wantIndicators, result.FraudIndicators)
		})
	}
}

func TestScore_ClampToOne(t *testing.T) {
	// Inconsistent on purpose: zero transaction count with non-zero amounts
	// triggers every rule at once. The sum (1.5) must clamp to 1.0.
	stats := models.CustomerStatistics{
		TransactionCount: 0,
		AvgAmount:        10,
		MaxAmount:        10,
	}

	result := Score(stats, 6000, 0.5)

	assert.Equal(t, 1.0, result.FraudScore)
	assert.True(t, result.PredictedFraud)
}

func TestScore_LoyaltyDiscountAppliedAfterClamp(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 11,
		AvgAmount:        10,
		MaxAmount:        10,
		MinAmount:        10,
		TotalAmount:      110,
	}

	// All three amount rules fire for a sum of 1.0, then the 20% loyalty
	// discount brings the final score to 0.8.
	result := Score(stats, 6000, 0.5)

	assert.InDelta(t, 0.8, result.FraudScore, 1e-9)
	assert.True(t, result.PredictedFraud)
}

func TestScore_MonotonicInAmount(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 5,
		AvgAmount:        100,
		MaxAmount:        200,
		MinAmount:        10,
		TotalAmount:      500,
	}

	prev := -1.0
	for _, amount := range []float64{0, 50, 150, 210, 310, 510, 1100, 5100, 100000} {
		result := Score(stats, amount, 0.5)
		assert.GreaterOrEqual(t, result.FraudScore, prev, "amount %v", amount)
		assert.GreaterOrEqual(t, result.FraudScore, 0.0)
		assert.LessOrEqual(t, result.FraudScore, 1.0)
		prev = result.FraudScore
	}
}

func TestScore_Deterministic(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 20,
		AvgAmount:        100,
		MaxAmount:        200,
		MinAmount:        10,
		TotalAmount:      2000,
	}

	first := Score(stats, 600, 0.5)
	second := Score(stats, 600, 0.5)

	assert.Equal(t, first.FraudScore, second.FraudScore)
	assert.Equal(t, first.PredictedFraud, second.PredictedFraud)
	assert.Equal(t, first.FraudIndicators, second.FraudIndicators)
}

func TestScore_CarriesInputs(t *testing.T) {
	stats := models.CustomerStatistics{
		TransactionCount: 3,
		AvgAmount:        50,
		MaxAmount:        80,
		MinAmount:        20,
		TotalAmount:      150,
	}

	result := Score(stats, 60, 0.7)

	assert.Equal(t, 60.0, result.Amount)
	assert.Equal(t, 0.7, result.Threshold)
	assert.Equal(t, stats, result.CustomerStats)
}
