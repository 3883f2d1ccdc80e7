package workflow

import (
	"context"
	"testing"

	"github.com/lendfocus/mortgage_backend/models"
)

func intPtr(v int) *int {
	return &v
}

func TestScoreRisk_StrongProfile(t *testing.T) {
	inputs := RiskInputs{
		CreditScore:           intPtr(750),
		BackEndDTI:            decPtr(0.25),
		DownPaymentPercentage: decPtr(0.25),
		YearsAtAddress:        decPtr(3),
		LocationMedianIncome:  decPtr(80000),
	}
	result := ScoreRisk(context.Background(), inputs)
	if result.Score != 100 {
		t.Fatalf("ScoreRisk expected 100, got %d", result.Score)
	}
	if result.Category != models.RiskCategoryLow {
		t.Fatalf("ScoreRisk category expected LowRisk, got %s", result.Category)
	}
	if result.Recommendation != models.RiskRecommendationAutoApprove {
		t.Fatalf("ScoreRisk recommendation expected auto_approve, got %s", result.Recommendation)
	}
}

func TestScoreRisk_AllInputsMissing(t *testing.T) {
	result := ScoreRisk(context.Background(), RiskInputs{})
	// every component falls back to its lowest band
	if result.Score != 25 {
		t.Fatalf("ScoreRisk with no inputs expected 25, got %d", result.Score)
	}
	if result.Category != models.RiskCategoryHigh {
		t.Fatalf("ScoreRisk category expected HighRisk, got %s", result.Category)
	}
	if result.Recommendation != models.RiskRecommendationLikelyDecline {
		t.Fatalf("ScoreRisk recommendation expected likely_decline, got %s", result.Recommendation)
	}
}

func TestScoreRisk_MiddleBands(t *testing.T) {
	inputs := RiskInputs{
		CreditScore:           intPtr(620),
		BackEndDTI:            decPtr(0.40),
		DownPaymentPercentage: decPtr(0.08),
		YearsAtAddress:        decPtr(1.5),
		LocationMedianIncome:  decPtr(40000),
	}
	result := ScoreRisk(context.Background(), inputs)
	// 15 + 15 + 10 + 10 + 8
	if result.Score != 58 {
		t.Fatalf("ScoreRisk expected 58, got %d", result.Score)
	}
	if result.Category != models.RiskCategoryHigh {
		t.Fatalf("ScoreRisk at 58 expected HighRisk, got %s", result.Category)
	}
	if result.Recommendation != models.RiskRecommendationManualReview {
		t.Fatalf("ScoreRisk at 58 expected manual_review, got %s", result.Recommendation)
	}
}

func TestScoreRisk_CategoryBoundaries(t *testing.T) {
	cases := []struct {
		credit   int
		dti      float64
		down     float64
		years    float64
		median   float64
		score    int
		category models.RiskCategory
	}{
		{740, 0.28, 0.20, 2, 75000, 100, models.RiskCategoryLow},
		{680, 0.36, 0.20, 2, 50000, 87, models.RiskCategoryLow},
		{680, 0.43, 0.10, 1, 50000, 72, models.RiskCategoryMedium},
		{580, 0.43, 0.05, 1, 35000, 53, models.RiskCategoryHigh},
	}
	for _, tc := range cases {
		inputs := RiskInputs{
			CreditScore:           intPtr(tc.credit),
			BackEndDTI:            decPtr(tc.dti),
			DownPaymentPercentage: decPtr(tc.down),
			YearsAtAddress:        decPtr(tc.years),
			LocationMedianIncome:  decPtr(tc.median),
		}
		result := ScoreRisk(context.Background(), inputs)
		if result.Score != tc.score {
			t.Fatalf("ScoreRisk(credit=%d) expected %d, got %d", tc.credit, tc.score, result.Score)
		}
		if result.Category != tc.category {
			t.Fatalf("ScoreRisk(credit=%d) expected %s, got %s", tc.credit, tc.category, result.Category)
		}
	}
}

func TestScoreComponent_CapAndFallback(t *testing.T) {
	ladder := models.Ladder{
		Direction:      models.LadderGTE,
		Steps:          []models.LadderStep{{Bound: dec(100), Points: 40}},
		FallbackPoints: 3,
	}

	if got := scoreComponent(ladder, decPtr(150), 25); got != 25 {
		t.Fatalf("scoreComponent expected cap at 25, got %d", got)
	}
	if got := scoreComponent(ladder, decPtr(50), 25); got != 3 {
		t.Fatalf("scoreComponent below every band expected fallback 3, got %d", got)
	}
	if got := scoreComponent(ladder, nil, 25); got != 3 {
		t.Fatalf("scoreComponent with nil value expected fallback 3, got %d", got)
	}
}
