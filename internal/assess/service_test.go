package assess

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbidefence/fraud-detector/internal/stats"
)

func newTestService(threshold float64, records ...stats.CustomerRecord) *Service {
	return NewService(stats.NewTable(records), threshold, nil, nil, nil)
}

func TestAssess_NewCustomer(t *testing.T) {
	service := newTestService(0.5)

	assessment, err := service.Assess(context.Background(), &Request{CustomerID: 42, Amount: 1500})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, assessment.FraudScore, 1e-9)
	assert.True(t, assessment.PredictedFraud)
	assert.Equal(t, []string{"High amount for a new customer"}, assessment.FraudIndicators)
}

func TestAssess_KnownCustomer(t *testing.T) {
	service := newTestService(0.5, stats.CustomerRecord{
		CustomerID:       7,
		TransactionCount: 20,
		AvgAmount:        100,
		MaxAmount:        200,
		MinAmount:        10,
		TotalAmount:      2000,
	})

	assessment, err := service.Assess(context.Background(), &Request{CustomerID: 7, Amount: 600})
	require.NoError(t, err)

	assert.InDelta(t, 0.56, assessment.FraudScore, 1e-9)
	assert.True(t, assessment.PredictedFraud)
	assert.Equal(t, int64(7), assessment.CustomerID)
	assert.Equal(t, 20, assessment.CustomerStats.TransactionCount)
}

func TestAssess_StampsIdentityAndTiming(t *testing.T) {
	service := newTestService(0.5)

	assessment, err := service.Assess(context.Background(), &Request{CustomerID: 1, Amount: 100})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, assessment.ID)
	assert.False(t, assessment.CreatedAt.IsZero())
	assert.Equal(t, "UTC", assessment.CreatedAt.Location().String())
	assert.GreaterOrEqual(t, assessment.ProcessingTimeMs, int64(0))
	assert.Equal(t, 0.5, assessment.Threshold)
}

func TestAssess_RejectsInvalidInput(t *testing.T) {
	service := newTestService(0.5)

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{name: "negative customer id", req: Request{CustomerID: -1, Amount: 100}, wantErr: ErrInvalidCustomerID},
		{name: "negative amount", req: Request{CustomerID: 1, Amount: -0.01}, wantErr: ErrInvalidAmount},
		{name: "NaN amount", req: Request{CustomerID: 1, Amount: math.NaN()}, wantErr: ErrInvalidAmount},
		{name: "positive infinity", req: Request{CustomerID: 1, Amount: math.Inf(1)}, wantErr: ErrInvalidAmount},
		{name: "negative infinity", req: Request{CustomerID: 1, Amount: math.Inf(-1)}, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment, err := service.Assess(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, assessment)
		})
	}
}

func TestAssess_ZeroInputsAreValid(t *testing.T) {
	service := newTestService(0.5)

	assessment, err := service.Assess(context.Background(), &Request{CustomerID: 0, Amount: 0})
	require.NoError(t, err)

	assert.Equal(t, 0.5, assessment.FraudScore)
	assert.False(t, assessment.PredictedFraud)
}

func TestAssessWithProgress_ReportsStagesInOrder(t *testing.T) {
	service := newTestService(0.5)

	var gotStages []string
	var gotFractions []float64
	progress := func(stage string, fraction float64) {
		gotStages = append(gotStages, stage)
		gotFractions = append(gotFractions, fraction)
	}

	_, err := service.AssessWithProgress(context.Background(), &Request{CustomerID: 1, Amount: 50}, progress)
	require.NoError(t, err)

	assert.Equal(t, Stages, gotStages)
	require.Len(t, gotFractions, len(Stages))
	assert.Equal(t, 1.0, gotFractions[len(gotFractions)-1])
	for i := 1; i < len(gotFractions); i++ {
		assert.Greater(t, gotFractions[i], gotFractions[i-1])
	}
}

func TestAssessWithProgress_NoCallbackOnInvalidInput(t *testing.T) {
	service := newTestService(0.5)

	called := false
	_, err := service.AssessWithProgress(context.Background(), &Request{CustomerID: -1, Amount: 50},
		func(string, float64) { called = true })

	assert.Error(t, err)
	assert.False(t, called)
}

func TestCustomerStatistics(t *testing.T) {
	service := newTestService(0.5, stats.CustomerRecord{
		CustomerID:       3,
		TransactionCount: 5,
		AvgAmount:        80,
		MaxAmount:        120,
	})

	known, err := service.CustomerStatistics(3)
	require.NoError(t, err)
	assert.Equal(t, 5, known.TransactionCount)

	unknown, err := service.CustomerStatistics(999)
	require.NoError(t, err)
	assert.True(t, unknown.IsNewCustomer())

	_, err = service.CustomerStatistics(-1)
	assert.ErrorIs(t, err, ErrInvalidCustomerID)
}

func TestRecentAssessments_WithoutCache(t *testing.T) {
	service := newTestService(0.5)

	assessments, err := service.RecentAssessments(context.Background(), 20)

	require.NoError(t, err)
	assert.Empty(t, assessments)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 0.35, newTestService(0.35).Threshold())
}
