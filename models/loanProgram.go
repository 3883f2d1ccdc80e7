package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
)

type LoanProgram struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	Name               string           `gorm:"size:100;not null" json:"name" binding:"required"`
	ProgramType        ProgramType      `gorm:"type:enum('FHA','VA','Conventional','USDA','Jumbo');not null;index" json:"program_type"`
	MinCreditScore     int              `gorm:"not null" json:"min_credit_score"`
	MinDownPaymentPct  decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"min_down_payment_pct"`
	MaxBackEndDTI      decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"max_back_end_dti"`
	MaxLoanAmount      *decimal.Decimal `gorm:"type:decimal(20,8)" json:"max_loan_amount"`
	RequiresVAEligible bool             `gorm:"not null;default:false" json:"requires_va_eligible"`
	IsActive           *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *LoanProgram) EntityType() EntityType { return EntityTypeLoanProgram }
func (p *LoanProgram) EntityID() int          { return p.ID }

// GetLoanProgram reads through the redis cache; programs are reference data.
func GetLoanProgram(ctx context.Context, id int) (*LoanProgram, error) {
	result, err := utils.RetrieveRedis[LoanProgram](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchSingleModel[LoanProgram](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[LoanProgram](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListActiveLoanPrograms is the recommendation engine's candidate set.
func ListActiveLoanPrograms(ctx context.Context) ([]*LoanProgram, error) {
	results, err := utils.RetrieveRedisList[LoanProgram]("active")
	if err != nil {
		return nil, err
	}
	if results == nil {
		db := config.GetDB()
		if err := db.WithContext(ctx).Where("is_active = true").Order("program_type").Find(&results).Error; err != nil {
			return nil, err
		}
		if err := utils.StoreRedisList[LoanProgram](results, "active"); err != nil {
			return nil, err
		}
	}
	return results, nil
}
