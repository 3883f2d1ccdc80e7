package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func snapshotApp() *Application {
	income := decimal.NewFromInt(8200)
	debts := decimal.NewFromInt(1900)
	return &Application{
		ApplicationNumber:     "APP-2026-000042",
		Status:                StatusInReview,
		StatusChangeReason:    "documents complete",
		LoanPurpose:           LoanPurposePurchase,
		LoanAmount:            decimal.NewFromInt(360000),
		LoanTermMonths:        360,
		DownPaymentAmount:     decimal.NewFromInt(72000),
		DownPaymentPercentage: decimal.NewFromFloat(0.2),
		MonthlyIncome:         &income,
		MonthlyDebts:          &debts,
		ApplicationDate:       time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestSnapshotFieldsOrder(t *testing.T) {
	payment := decimal.NewFromInt(6)
	riskScore := 80
	dtiCat := DTICategoryGood
	metrics := &ComputedMetrics{
		Version:                 3,
		EstimatedMonthlyPayment: &payment,
		DTICategory:             &dtiCat,
		CalculatedRiskScore:     &riskScore,
	}

	fields := snapshotFields(snapshotApp(), metrics, []string{"RULE-DTI-001", "RULE-LTV-002"}, []string{"RULE-DTI-001"})

	wantKeys := []string{
		"application_number", "status", "status_change_reason", "loan_purpose",
		"loan_amount", "loan_term_months", "down_payment_amount",
		"down_payment_percentage", "monthly_income", "monthly_debts",
		"interest_rate", "application_date",
		"metrics_version", "calculated_monthly_income", "estimated_monthly_payment",
		"front_end_dti", "back_end_dti", "dti_category", "loan_to_value",
		"ltv_category", "estimated_market_value", "valuation_confidence",
		"calculated_risk_score", "risk_category", "risk_recommendation",
		"fraud_risk_score", "fraud_risk_level", "fraud_recommendation",
		"qm_compliant", "state_compliant", "fair_lending_assessment",
		"document_completion_percentage", "document_completion_status",
		"rules_applied", "rules_met",
	}
	if len(fields) != len(wantKeys) {
		t.Fatalf("snapshotFields expected %d fields, got %d", len(wantKeys), len(fields))
	}
	for i, key := range wantKeys {
		if fields[i].Key != key {
			t.Fatalf("snapshotFields field %d expected key %q, got %q", i, key, fields[i].Key)
		}
	}

	byKey := map[string]string{}
	for _, field := range fields {
		byKey[field.Key] = field.Value
	}
	if byKey["application_number"] != "APP-2026-000042" {
		t.Fatalf("snapshotFields application_number expected APP-2026-000042, got %q", byKey["application_number"])
	}
	if byKey["status"] != "in_review" {
		t.Fatalf("snapshotFields status expected in_review, got %q", byKey["status"])
	}
	if byKey["loan_term_months"] != "360" {
		t.Fatalf("snapshotFields loan_term_months expected 360, got %q", byKey["loan_term_months"])
	}
	if byKey["application_date"] != "2026-03-14T09:30:00Z" {
		t.Fatalf("snapshotFields application_date expected RFC3339 value, got %q", byKey["application_date"])
	}
	if byKey["metrics_version"] != "3" {
		t.Fatalf("snapshotFields metrics_version expected 3, got %q", byKey["metrics_version"])
	}
	if byKey["estimated_monthly_payment"] != "6" {
		t.Fatalf("snapshotFields estimated_monthly_payment expected 6, got %q", byKey["estimated_monthly_payment"])
	}
	if byKey["dti_category"] != "good" {
		t.Fatalf("snapshotFields dti_category expected good, got %q", byKey["dti_category"])
	}
	if byKey["calculated_risk_score"] != "80" {
		t.Fatalf("snapshotFields calculated_risk_score expected 80, got %q", byKey["calculated_risk_score"])
	}
	if byKey["rules_applied"] != "RULE-DTI-001,RULE-LTV-002" {
		t.Fatalf("snapshotFields rules_applied expected joined ids, got %q", byKey["rules_applied"])
	}
	if byKey["rules_met"] != "RULE-DTI-001" {
		t.Fatalf("snapshotFields rules_met expected RULE-DTI-001, got %q", byKey["rules_met"])
	}
}

func TestSnapshotFieldsNilPointersRenderEmpty(t *testing.T) {
	fields := snapshotFields(snapshotApp(), &ComputedMetrics{Version: 1}, nil, nil)

	byKey := map[string]string{}
	for _, field := range fields {
		byKey[field.Key] = field.Value
	}
	for _, key := range []string{
		"interest_rate", "calculated_monthly_income", "front_end_dti",
		"risk_category", "fraud_risk_score", "qm_compliant",
		"fair_lending_assessment", "document_completion_status",
		"rules_applied", "rules_met",
	} {
		if byKey[key] != "" {
			t.Fatalf("snapshotFields %s expected empty value, got %q", key, byKey[key])
		}
	}
}

func TestSnapshotFieldsWithoutMetrics(t *testing.T) {
	fields := snapshotFields(snapshotApp(), nil, []string{"RULE-QM-001"}, nil)

	if len(fields) != 14 {
		t.Fatalf("snapshotFields without metrics expected 14 fields, got %d", len(fields))
	}
	for _, field := range fields {
		if field.Key == "metrics_version" {
			t.Fatalf("snapshotFields without metrics should omit metrics_version")
		}
	}
	last := fields[len(fields)-1]
	if last.Key != "rules_met" || last.Value != "" {
		t.Fatalf("snapshotFields expected trailing empty rules_met, got %s=%q", last.Key, last.Value)
	}
	if fields[len(fields)-2].Value != "RULE-QM-001" {
		t.Fatalf("snapshotFields rules_applied expected RULE-QM-001, got %q", fields[len(fields)-2].Value)
	}
}
