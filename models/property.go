package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Property struct {
	ID                   int                  `gorm:"primary_key" json:"id"`
	Address              string               `gorm:"size:255;not null" json:"address" binding:"required"`
	City                 string               `gorm:"size:100" json:"city"`
	State                string               `gorm:"size:2;index" json:"state"`
	ZipCode              string               `gorm:"size:10;index" json:"zip_code"`
	LocationId           int                  `gorm:"index" json:"location_id"`
	PropertyType         PropertyType         `gorm:"type:enum('single_family','condo','townhouse','multi_family','manufactured');not null;index" json:"property_type"`
	OccupancyType        OccupancyType        `gorm:"type:enum('primary_residence','second_home','investment');not null;default:'primary_residence'" json:"occupancy_type"`
	SquareFeet           int                  `json:"square_feet"`
	Bedrooms             int                  `json:"bedrooms"`
	Bathrooms            decimal.Decimal      `gorm:"type:decimal(20,8)" json:"bathrooms"`
	YearBuilt            int                  `json:"year_built"`
	AppraisedValue       *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"appraised_value"`
	AppraisalDate        *time.Time           `gorm:"index" json:"appraisal_date"`
	EstimatedMarketValue *decimal.Decimal     `gorm:"type:decimal(20,8)" json:"estimated_market_value"`
	ValuationConfidence  *ValuationConfidence `gorm:"size:10" json:"valuation_confidence"`
	CreatedAt            time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) EntityType() EntityType { return EntityTypeProperty }
func (p *Property) EntityID() int          { return p.ID }

func GetProperty(ctx context.Context, id int) (*Property, error) {
	return utils.FetchSingleModel[Property](ctx, id)
}

// FindComparables pulls appraised properties in the same location with the
// same property type, within the sqft tolerance and appraisal recency
// window, excluding the target. Bounded by the scan result cap.
func FindComparables(ctx context.Context, target *Property, sqftTolerance int, appraisedWithin time.Duration, now time.Time) ([]*Property, error) {
	db := config.GetDB()
	cutoff := now.Add(-appraisedWithin)

	var comparables []*Property
	err := db.WithContext(ctx).
		Where("location_id = ? AND property_type = ? AND id != ?", target.LocationId, target.PropertyType, target.ID).
		Where("square_feet BETWEEN ? AND ?", target.SquareFeet-sqftTolerance, target.SquareFeet+sqftTolerance).
		Where("appraised_value IS NOT NULL AND appraisal_date >= ?", cutoff).
		Limit(config.ScanResultLimit()).
		Find(&comparables).Error
	if err != nil {
		return nil, err
	}
	return comparables, nil
}

// SaveValuation writes the comparables-derived fields back to the property.
func (p *Property) SaveValuation(tx *gorm.DB) error {
	return tx.Model(&Property{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"estimated_market_value": p.EstimatedMarketValue,
			"valuation_confidence":   p.ValuationConfidence,
		}).Error
}
