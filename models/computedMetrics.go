package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComputedMetrics is the single versioned sub-record holding every derived
// field the pipeline produces for one application. Each engine writes only
// its own columns; every engine save bumps Version, so readers can tell two
// snapshots of the row apart.
// Rows are frozen once the owning application reaches a terminal status.
type ComputedMetrics struct {
	ID            int   `gorm:"primary_key" json:"id"`
	ApplicationId int   `gorm:"uniqueIndex;not null" json:"application_id"`
	Version       int64 `gorm:"not null;default:0" json:"version"`

	// financial assessment
	AdjustedBaseIncome      *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"adjusted_base_income"`
	CalculatedMonthlyIncome *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"calculated_monthly_income"`
	EstimatedMonthlyPayment *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"estimated_monthly_payment"`
	FrontEndDTI             *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"front_end_dti"`
	BackEndDTI              *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"back_end_dti"`
	DTICategory             *DTICategory         `gorm:"size:20" json:"dti_category"`
	DTIQualified            *bool                `json:"dti_qualified"`
	EstimatedMarketValue    *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"estimated_market_value"`
	LoanToValue             *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"loan_to_value"`
	LTVCategory             *LTVCategory         `gorm:"size:20" json:"ltv_category"`
	ValuationConfidence     *ValuationConfidence `gorm:"size:10" json:"valuation_confidence"`
	FinancialComputedAt     *time.Time           `json:"financial_computed_at"`

	// risk + fraud
	CalculatedRiskScore *int                 `json:"calculated_risk_score"`
	RiskCategory        *RiskCategory        `gorm:"size:20;index" json:"risk_category"`
	RiskRecommendation  *RiskRecommendation  `gorm:"size:20" json:"risk_recommendation"`
	FraudRiskScore      *int                 `json:"fraud_risk_score"`
	FraudRiskLevel      *FraudRiskLevel      `gorm:"size:10;index" json:"fraud_risk_level"`
	FraudRecommendation *FraudRecommendation `gorm:"size:40" json:"fraud_recommendation"`
	RiskComputedAt      *time.Time           `json:"risk_computed_at"`

	// compliance
	QMCompliant           *bool                  `json:"qm_compliant"`
	StateCompliant        *bool                  `json:"state_compliant"`
	FairLendingAssessment *FairLendingAssessment `gorm:"size:30" json:"fair_lending_assessment"`
	ComplianceComputedAt  *time.Time             `json:"compliance_computed_at"`

	// documents
	DocumentCompletionPercentage *int                 `json:"document_completion_percentage"`
	DocumentCompletionStatus     *DocCompletionStatus `gorm:"size:10" json:"document_completion_status"`
	DocumentsComputedAt          *time.Time           `json:"documents_computed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CheckMetricsFrozen refuses derived-field writes once the application is terminal.
func (m ComputedMetrics) CheckMetricsFrozen(ctx context.Context) error {
	if !config.StrictMetricsImmutability() {
		return nil
	}
	app, err := GetApplication(ctx, m.ApplicationId)
	if err != nil {
		return err
	}
	if app.Status.IsTerminal() {
		return utils.ErrorFrozenMetrics
	}
	return nil
}

// GetOrCreateMetrics loads the application's metrics row, creating an
// empty one on first recompute.
func GetOrCreateMetrics(tx *gorm.DB, applicationId int) (*ComputedMetrics, error) {
	var rows []*ComputedMetrics
	if err := tx.Where("application_id = ?", applicationId).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows[0], nil
	}
	m := ComputedMetrics{ApplicationId: applicationId}
	if err := tx.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMetrics persists the row and bumps the version counter in one write.
func SaveMetrics(tx *gorm.DB, m *ComputedMetrics) error {
	if err := m.CheckMetricsFrozen(tx.Statement.Context); err != nil {
		return err
	}
	m.Version++
	return tx.Save(m).Error
}

func GetMetrics(ctx context.Context, applicationId int) (*ComputedMetrics, error) {
	db := config.GetDB()
	var rows []*ComputedMetrics
	if err := db.WithContext(ctx).Where("application_id = ?", applicationId).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return rows[0], nil
}
