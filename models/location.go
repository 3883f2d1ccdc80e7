package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
)

type Location struct {
	ID           int              `gorm:"primary_key" json:"id"`
	ZipCode      string           `gorm:"size:10;uniqueIndex;not null" json:"zip_code" binding:"required"`
	City         string           `gorm:"size:100;not null" json:"city"`
	County       string           `gorm:"size:100" json:"county"`
	State        string           `gorm:"size:2;index;not null" json:"state"`
	MedianIncome *decimal.Decimal `gorm:"type:decimal(20,8)" json:"median_income"`
	MedianHomePrice *decimal.Decimal `gorm:"type:decimal(20,8)" json:"median_home_price"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Location) EntityType() EntityType { return EntityTypeLocation }
func (l *Location) EntityID() int          { return l.ID }

// GetLocation reads through the redis cache; locations are reference data.
func GetLocation(ctx context.Context, id int) (*Location, error) {
	result, err := utils.RetrieveRedis[Location](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = utils.FetchSingleModel[Location](ctx, id)
		if err != nil {
			return nil, err
		}
		if err := utils.StoreRedis[Location](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func GetLocationByZip(ctx context.Context, zipCode string) (*Location, error) {
	db := config.GetDB()
	var locations []*Location
	if err := db.WithContext(ctx).Where("zip_code = ?", zipCode).Limit(1).Find(&locations).Error; err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return locations[0], nil
}
