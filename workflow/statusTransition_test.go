package workflow

import (
	"testing"

	"github.com/lendfocus/mortgage_backend/models"
)

func TestTransitionReachable(t *testing.T) {
	cases := []struct {
		from      models.ApplicationStatus
		to        models.ApplicationStatus
		reachable bool
	}{
		{models.StatusReceived, models.StatusInReview, true},
		{models.StatusInReview, models.StatusUnderwriting, true},
		{models.StatusUnderwriting, models.StatusConditionalApproval, true},
		{models.StatusConditionalApproval, models.StatusClearToClose, true},
		{models.StatusClearToClose, models.StatusClosingScheduled, true},
		{models.StatusClosingScheduled, models.StatusClosed, true},

		// no skipping forward, no walking backward
		{models.StatusReceived, models.StatusUnderwriting, false},
		{models.StatusInReview, models.StatusReceived, false},
		{models.StatusReceived, models.StatusClosed, false},

		// lateral states reachable from any non-terminal status
		{models.StatusReceived, models.StatusIncomplete, true},
		{models.StatusUnderwriting, models.StatusWithdrawn, true},
		{models.StatusClearToClose, models.StatusDenied, true},
		{models.StatusInReview, models.StatusApproved, true},

		// incomplete re-enters the chain anywhere
		{models.StatusIncomplete, models.StatusReceived, true},
		{models.StatusIncomplete, models.StatusUnderwriting, true},
		{models.StatusIncomplete, models.StatusWithdrawn, true},

		// terminal states are frozen
		{models.StatusClosed, models.StatusInReview, false},
		{models.StatusApproved, models.StatusClosingScheduled, false},
		{models.StatusDenied, models.StatusIncomplete, false},
		{models.StatusWithdrawn, models.StatusReceived, false},
	}
	for _, tc := range cases {
		if got := transitionReachable(tc.from, tc.to); got != tc.reachable {
			t.Fatalf("transitionReachable(%s, %s) expected %v, got %v", tc.from, tc.to, tc.reachable, got)
		}
	}
}

func TestEvaluateTransitionGuard_InReview(t *testing.T) {
	cases := []struct {
		percentage *int
		allowed    bool
	}{
		{intPtr(75), true},
		{intPtr(100), true},
		{intPtr(74), false},
		{intPtr(60), false},
		{nil, false},
	}
	for _, tc := range cases {
		metrics := &models.ComputedMetrics{DocumentCompletionPercentage: tc.percentage}
		if got := EvaluateTransitionGuard(models.StatusInReview, metrics); got != tc.allowed {
			t.Fatalf("EvaluateTransitionGuard(in_review, pct=%v) expected %v, got %v", tc.percentage, tc.allowed, got)
		}
	}
}

func TestEvaluateTransitionGuard_Underwriting(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }
	riskPtr := func(c models.RiskCategory) *models.RiskCategory { return &c }

	cases := []struct {
		qm      *bool
		risk    *models.RiskCategory
		allowed bool
	}{
		{boolPtr(true), riskPtr(models.RiskCategoryLow), true},
		{boolPtr(true), riskPtr(models.RiskCategoryMedium), true},
		{boolPtr(true), riskPtr(models.RiskCategoryHigh), false},
		{boolPtr(false), riskPtr(models.RiskCategoryLow), false},
		{nil, riskPtr(models.RiskCategoryLow), false},
		{boolPtr(true), nil, false},
	}
	for _, tc := range cases {
		metrics := &models.ComputedMetrics{QMCompliant: tc.qm, RiskCategory: tc.risk}
		if got := EvaluateTransitionGuard(models.StatusUnderwriting, metrics); got != tc.allowed {
			t.Fatalf("EvaluateTransitionGuard(underwriting, qm=%v risk=%v) expected %v, got %v", tc.qm, tc.risk, tc.allowed, got)
		}
	}
}

func TestEvaluateTransitionGuard_Approved(t *testing.T) {
	fraudPtr := func(l models.FraudRiskLevel) *models.FraudRiskLevel { return &l }

	cases := []struct {
		score   *int
		fraud   *models.FraudRiskLevel
		allowed bool
	}{
		{intPtr(60), nil, true},
		{intPtr(60), fraudPtr(models.FraudRiskLevelMedium), true},
		{intPtr(59), fraudPtr(models.FraudRiskLevelLow), false},
		{intPtr(90), fraudPtr(models.FraudRiskLevelHigh), false},
		{nil, fraudPtr(models.FraudRiskLevelLow), false},
	}
	for _, tc := range cases {
		metrics := &models.ComputedMetrics{CalculatedRiskScore: tc.score, FraudRiskLevel: tc.fraud}
		if got := EvaluateTransitionGuard(models.StatusApproved, metrics); got != tc.allowed {
			t.Fatalf("EvaluateTransitionGuard(approved, score=%v fraud=%v) expected %v, got %v", tc.score, tc.fraud, tc.allowed, got)
		}
	}
}

func TestEvaluateTransitionGuard_UnguardedTargets(t *testing.T) {
	metrics := &models.ComputedMetrics{}
	for _, to := range []models.ApplicationStatus{
		models.StatusConditionalApproval,
		models.StatusClearToClose,
		models.StatusClosingScheduled,
		models.StatusClosed,
		models.StatusIncomplete,
		models.StatusWithdrawn,
		models.StatusDenied,
	} {
		if !EvaluateTransitionGuard(to, metrics) {
			t.Fatalf("EvaluateTransitionGuard(%s) expected no guard, got refusal", to)
		}
	}
}
