package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotField is one key/value pair of the flat audit record.
type SnapshotField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ApplicationSnapshot flattens an application's core fields, every derived
// field, and the applied/met rule ids into an ordering-stable flat record
// for reporting and external export.
func ApplicationSnapshot(ctx context.Context, applicationId int) ([]SnapshotField, error) {
	app, err := GetApplication(ctx, applicationId)
	if err != nil {
		return nil, err
	}
	var metrics *ComputedMetrics
	if m, err := GetMetrics(ctx, applicationId); err == nil {
		metrics = m
	}
	applied, err := appliedRuleIds(ctx, applicationId, RelationshipSubjectTo)
	if err != nil {
		return nil, err
	}
	met, err := appliedRuleIds(ctx, applicationId, RelationshipMeetsCriteria)
	if err != nil {
		return nil, err
	}
	return snapshotFields(app, metrics, applied, met), nil
}

// snapshotFields is the pure assembly step; field order is fixed.
func snapshotFields(app *Application, metrics *ComputedMetrics, applied, met []string) []SnapshotField {
	fields := []SnapshotField{
		{"application_number", app.ApplicationNumber},
		{"status", string(app.Status)},
		{"status_change_reason", app.StatusChangeReason},
		{"loan_purpose", string(app.LoanPurpose)},
		{"loan_amount", app.LoanAmount.String()},
		{"loan_term_months", fmt.Sprint(app.LoanTermMonths)},
		{"down_payment_amount", app.DownPaymentAmount.String()},
		{"down_payment_percentage", app.DownPaymentPercentage.String()},
		{"monthly_income", decimalField(app.MonthlyIncome)},
		{"monthly_debts", decimalField(app.MonthlyDebts)},
		{"interest_rate", decimalField(app.InterestRate)},
		{"application_date", app.ApplicationDate.Format(time.RFC3339)},
	}

	if metrics != nil {
		fields = append(fields,
			SnapshotField{"metrics_version", fmt.Sprint(metrics.Version)},
			SnapshotField{"calculated_monthly_income", decimalField(metrics.CalculatedMonthlyIncome)},
			SnapshotField{"estimated_monthly_payment", decimalField(metrics.EstimatedMonthlyPayment)},
			SnapshotField{"front_end_dti", decimalField(metrics.FrontEndDTI)},
			SnapshotField{"back_end_dti", decimalField(metrics.BackEndDTI)},
			SnapshotField{"dti_category", stringField(metrics.DTICategory)},
			SnapshotField{"loan_to_value", decimalField(metrics.LoanToValue)},
			SnapshotField{"ltv_category", stringField(metrics.LTVCategory)},
			SnapshotField{"estimated_market_value", decimalField(metrics.EstimatedMarketValue)},
			SnapshotField{"valuation_confidence", stringField(metrics.ValuationConfidence)},
			SnapshotField{"calculated_risk_score", intField(metrics.CalculatedRiskScore)},
			SnapshotField{"risk_category", stringField(metrics.RiskCategory)},
			SnapshotField{"risk_recommendation", stringField(metrics.RiskRecommendation)},
			SnapshotField{"fraud_risk_score", intField(metrics.FraudRiskScore)},
			SnapshotField{"fraud_risk_level", stringField(metrics.FraudRiskLevel)},
			SnapshotField{"fraud_recommendation", stringField(metrics.FraudRecommendation)},
			SnapshotField{"qm_compliant", boolField(metrics.QMCompliant)},
			SnapshotField{"state_compliant", boolField(metrics.StateCompliant)},
			SnapshotField{"fair_lending_assessment", stringField(metrics.FairLendingAssessment)},
			SnapshotField{"document_completion_percentage", intField(metrics.DocumentCompletionPercentage)},
			SnapshotField{"document_completion_status", stringField(metrics.DocumentCompletionStatus)},
		)
	}

	fields = append(fields,
		SnapshotField{"rules_applied", strings.Join(applied, ",")},
		SnapshotField{"rules_met", strings.Join(met, ",")},
	)
	return fields
}

func appliedRuleIds(ctx context.Context, applicationId int, relType RelationshipType) ([]string, error) {
	edges, err := ListLinks(ctx, EntityTypeApplication, applicationId, relType, DirectionOutgoing)
	if err != nil {
		return nil, err
	}
	var ruleIds []string
	for _, edge := range edges {
		if edge.ToType != EntityTypeBusinessRule {
			continue
		}
		rule, err := GetRuleById(ctx, edge.ToId)
		if err != nil {
			return nil, err
		}
		ruleIds = append(ruleIds, rule.RuleId)
	}
	return ruleIds, nil
}

func decimalField(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func stringField[T ~string](s *T) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func intField(i *int) string {
	if i == nil {
		return ""
	}
	return fmt.Sprint(*i)
}

func boolField(b *bool) string {
	if b == nil {
		return ""
	}
	return fmt.Sprint(*b)
}
