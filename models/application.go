package models

import (
	"context"
	"fmt"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Application struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	ApplicationNumber     string           `gorm:"size:20;uniqueIndex;not null" json:"application_number"`
	SequenceScope         string           `gorm:"size:10;index;not null" json:"sequence_scope"`
	SequenceNo            int64            `gorm:"index;not null" json:"sequence_no"`
	LoanPurpose           LoanPurpose      `gorm:"type:enum('purchase','refinance','cash_out_refinance','home_equity');not null" json:"loan_purpose"`
	LoanAmount            decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"loan_amount"`
	LoanTermMonths        int              `gorm:"not null;default:360" json:"loan_term_months"`
	DownPaymentAmount     decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"down_payment_amount"`
	DownPaymentPercentage decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"down_payment_percentage"`
	MonthlyIncome         *decimal.Decimal `gorm:"type:decimal(20,8)" json:"monthly_income"`
	MonthlyDebts          *decimal.Decimal `gorm:"type:decimal(20,8)" json:"monthly_debts"`
	RentalIncome          *decimal.Decimal `gorm:"type:decimal(20,8)" json:"rental_income"`
	BonusIncome           *decimal.Decimal `gorm:"type:decimal(20,8)" json:"bonus_income"`
	InvestmentIncome      *decimal.Decimal `gorm:"type:decimal(20,8)" json:"investment_income"`
	InterestRate          *decimal.Decimal `gorm:"type:decimal(20,8)" json:"interest_rate"`
	LoanProgramId         int              `gorm:"index" json:"loan_program_id"`
	Status                ApplicationStatus `gorm:"type:enum('received','in_review','underwriting','conditional_approval','clear_to_close','closing_scheduled','closed','incomplete','approved','denied','withdrawn');not null;default:'received';index" json:"status"`
	StatusChangeReason    string           `gorm:"size:100" json:"status_change_reason"`
	StatusChangedAt       time.Time        `gorm:"not null" json:"status_changed_at"`
	ApplicationDate       time.Time        `gorm:"index;not null" json:"application_date"`
	CreatedAt             time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Application) EntityType() EntityType { return EntityTypeApplication }
func (a *Application) EntityID() int          { return a.ID }

func GetApplication(ctx context.Context, id int) (*Application, error) {
	return utils.FetchSingleModel[Application](ctx, id)
}

func GetApplicationByNumber(ctx context.Context, number string) (*Application, error) {
	db := config.GetDB()
	var app Application
	if err := db.WithContext(ctx).Where("application_number = ?", number).First(&app).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &app, nil
}

// GetApplicationProperty follows the HAS_PROPERTY edge; nil when no property attached yet.
func GetApplicationProperty(ctx context.Context, applicationId int) (*Property, error) {
	db := config.GetDB()
	var propertyId int
	err := db.WithContext(ctx).Model(&Relationship{}).
		Where("from_type = ? AND from_id = ? AND relationship_type = ?",
			EntityTypeApplication, applicationId, RelationshipHasProperty).
		Select("to_id").Limit(1).Scan(&propertyId).Error
	if err != nil {
		return nil, err
	}
	if propertyId == 0 {
		return nil, nil
	}
	return utils.FetchSingleModel[Property](ctx, propertyId)
}

// NextApplicationNumber hands out APP-YYYY-xxxxxx, serialized per year.
func NextApplicationNumber(ctx context.Context, now time.Time) (scope string, seqNo int64, number string, err error) {
	scope = fmt.Sprint(now.Year())
	seqNo, err = utils.GetSequence[Application](ctx, scope)
	if err != nil {
		return "", 0, "", err
	}
	number = fmt.Sprintf("APP-%s-%06d", scope, seqNo)
	return scope, seqNo, number, nil
}

// ChangeStatus records the transition outcome on the application row and
// appends a StatusHistory entry. Guard evaluation lives in the workflow
// package; this only persists the decision.
func (a *Application) ChangeStatus(tx *gorm.DB, newStatus ApplicationStatus, reason string, actorId int, actorName string) error {
	before := a.Status
	now := time.Now().UTC()

	if reason == "normal_progression" {
		a.Status = newStatus
		a.StatusChangedAt = now
	}
	a.StatusChangeReason = reason

	if err := tx.Model(&Application{}).Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"status":               a.Status,
			"status_change_reason": a.StatusChangeReason,
			"status_changed_at":    a.StatusChangedAt,
		}).Error; err != nil {
		return err
	}

	history := StatusHistory{
		ApplicationId:   a.ID,
		FromStatus:      before,
		ToStatus:        newStatus,
		Applied:         reason == "normal_progression",
		Reason:          reason,
		ActorId:         actorId,
		ActorName:       actorName,
		TransitionedAt:  now,
	}
	return tx.Create(&history).Error
}

// ElapsedDaysInStatus is the SLA clock input.
func (a *Application) ElapsedDaysInStatus(now time.Time) int {
	anchor := a.StatusChangedAt
	if anchor.IsZero() {
		anchor = a.ApplicationDate
	}
	return int(now.Sub(anchor).Hours() / 24)
}
