package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/utils"
)

type Company struct {
	ID          int         `gorm:"primary_key" json:"id"`
	Name        string      `gorm:"size:255;index;not null" json:"name" binding:"required"`
	CompanyType CompanyType `gorm:"type:enum('employer','self_employed','lender','title_company');not null;default:'employer'" json:"company_type"`
	Industry    string      `gorm:"size:100" json:"industry"`
	Phone       string      `gorm:"size:20" json:"phone"`
	Address     string      `gorm:"size:255" json:"address"`
	City        string      `gorm:"size:100" json:"city"`
	State       string      `gorm:"size:2" json:"state"`
	ZipCode     string      `gorm:"size:10" json:"zip_code"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Company) TableName() string {
	return "companies"
}

func (c *Company) EntityType() EntityType { return EntityTypeCompany }
func (c *Company) EntityID() int          { return c.ID }

func GetCompany(ctx context.Context, id int) (*Company, error) {
	return utils.FetchSingleModel[Company](ctx, id)
}
