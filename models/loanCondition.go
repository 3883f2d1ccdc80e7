package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
)

// LoanCondition is one unmet prerequisite attached to a conditional
// approval; each is independently satisfiable or waivable.
type LoanCondition struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ApplicationId int             `gorm:"index;not null" json:"application_id"`
	ApprovalRound int             `gorm:"index;not null;default:1" json:"approval_round"`
	ConditionType ConditionType   `gorm:"size:40;not null" json:"condition_type"`
	Description   string          `gorm:"type:text" json:"description"`
	Status        ConditionStatus `gorm:"type:enum('open','satisfied','waived');not null;default:'open';index" json:"status"`
	SatisfiedAt   *time.Time      `json:"satisfied_at"`
	WaivedAt      *time.Time      `json:"waived_at"`
	WaivedBy      string          `gorm:"size:100" json:"waived_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func ListOpenConditions(ctx context.Context, applicationId int) ([]*LoanCondition, error) {
	db := config.GetDB()
	var conditions []*LoanCondition
	err := db.WithContext(ctx).
		Where("application_id = ? AND status = ?", applicationId, ConditionStatusOpen).
		Find(&conditions).Error
	return conditions, err
}

func ListConditions(ctx context.Context, applicationId int) ([]*LoanCondition, error) {
	return utils.FetchAllModels[LoanCondition](ctx, applicationId)
}

// CurrentApprovalRound returns the latest conditional-approval round, 0 if none.
func CurrentApprovalRound(ctx context.Context, applicationId int) (int, error) {
	db := config.GetDB()
	var round *int
	err := db.WithContext(ctx).Model(&LoanCondition{}).
		Where("application_id = ?", applicationId).
		Select("max(approval_round)").Scan(&round).Error
	if err != nil {
		return 0, err
	}
	if round == nil {
		return 0, nil
	}
	return *round, nil
}
