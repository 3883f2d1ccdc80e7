package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BusinessRule is a declarative, versioned rule row. Ladder rules carry
// UpperBound + Points/Label; limit rules carry LimitValue; state rules
// carry RateValue and an ApplicabilityKey (state code or program type).
// Published rules are immutable; updates land as a new rule_version.
type BusinessRule struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	RuleId                string           `gorm:"size:100;uniqueIndex;not null" json:"rule_id" binding:"required"`
	RuleType              RuleType         `gorm:"size:40;index:idx_rule_lookup,priority:1;not null" json:"rule_type"`
	ApplicabilityKey      string           `gorm:"size:40;index:idx_rule_lookup,priority:2" json:"applicability_key"`
	RuleVersion           string           `gorm:"size:20;not null;default:'v1'" json:"rule_version"`
	Category              string           `gorm:"size:40" json:"category"`
	UpperBound            *decimal.Decimal `gorm:"type:decimal(20,8)" json:"upper_bound"`
	LowerBound            *decimal.Decimal `gorm:"type:decimal(20,8)" json:"lower_bound"`
	Points                *int             `json:"points"`
	Label                 string           `gorm:"size:40" json:"label"`
	RateValue             *decimal.Decimal `gorm:"type:decimal(20,8)" json:"rate_value"`
	LimitValue            *decimal.Decimal `gorm:"type:decimal(20,8)" json:"limit_value"`
	Description           string           `gorm:"type:text" json:"description"`
	RecommendationMessage string           `gorm:"type:text" json:"recommendation_message"`
	IsPublished           bool             `gorm:"not null;default:false;index" json:"is_published"`
	PublishedAt           *time.Time       `json:"published_at"`
	CreatedAt             time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *BusinessRule) EntityType() EntityType { return EntityTypeBusinessRule }
func (r *BusinessRule) EntityID() int          { return r.ID }

func GetRuleById(ctx context.Context, id int) (*BusinessRule, error) {
	return utils.FetchSingleModel[BusinessRule](ctx, id)
}

// BeforeUpdate rejects mutation of published rules.
func (r *BusinessRule) BeforeUpdate(tx *gorm.DB) error {
	var published bool
	if err := tx.Model(&BusinessRule{}).Where("id = ?", r.ID).
		Select("is_published").Scan(&published).Error; err != nil {
		return err
	}
	if published {
		return utils.ErrorImmutableRule
	}
	return nil
}

func (r *BusinessRule) BeforeDelete(tx *gorm.DB) error {
	var published bool
	if err := tx.Model(&BusinessRule{}).Where("id = ?", r.ID).
		Select("is_published").Scan(&published).Error; err != nil {
		return err
	}
	if published {
		return utils.ErrorImmutableRule
	}
	return nil
}

// Publish marks the rule immutable from here on.
func (r *BusinessRule) Publish(tx *gorm.DB) error {
	now := time.Now().UTC()
	// raw update on purpose, the gorm hook blocks Updates on published rows
	if err := tx.Exec("UPDATE business_rules SET is_published = true, published_at = ? WHERE id = ?", now, r.ID).Error; err != nil {
		return err
	}
	r.IsPublished = true
	r.PublishedAt = &now
	return nil
}
