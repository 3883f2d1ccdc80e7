package models

import (
	"context"
	"errors"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
)

type Person struct {
	ID               int              `gorm:"primary_key" json:"id"`
	Ssn              string           `gorm:"size:11;uniqueIndex;not null" json:"ssn" binding:"required"`
	FirstName        string           `gorm:"size:100;not null" json:"first_name" binding:"required"`
	LastName         string           `gorm:"size:100;not null" json:"last_name" binding:"required"`
	Email            string           `gorm:"size:255;index" json:"email"`
	Phone            string           `gorm:"size:20" json:"phone"`
	DateOfBirth      *time.Time       `json:"date_of_birth"`
	PersonType       PersonType       `gorm:"type:enum('borrower','co_borrower','guarantor','prospect','real_estate_agent','loan_officer','appraiser');not null;default:'prospect'" json:"person_type"`
	CurrentAddress   string           `gorm:"size:255;index" json:"current_address"`
	City             string           `gorm:"size:100" json:"city"`
	State            string           `gorm:"size:2;index" json:"state"`
	ZipCode          string           `gorm:"size:10" json:"zip_code"`
	YearsAtAddress   *decimal.Decimal `gorm:"type:decimal(20,8)" json:"years_at_address"`
	CreditScore      *int             `gorm:"index" json:"credit_score"`
	CreditReportDate *time.Time       `json:"credit_report_date"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Person) TableName() string {
	return "persons"
}

func (p *Person) EntityType() EntityType { return EntityTypePerson }
func (p *Person) EntityID() int          { return p.ID }

// GetPersonBySsn returns nil when no person carries the ssn.
func GetPersonBySsn(ctx context.Context, ssn string) (*Person, error) {
	db := config.GetDB()
	var persons []*Person
	if err := db.WithContext(ctx).Where("ssn = ?", ssn).Limit(1).Find(&persons).Error; err != nil {
		return nil, err
	}
	if len(persons) == 0 {
		return nil, nil
	}
	return persons[0], nil
}

func GetPerson(ctx context.Context, id int) (*Person, error) {
	return utils.FetchSingleModel[Person](ctx, id)
}

// GetPrimaryApplicant resolves the one APPLIES_FOR edge flagged is_primary.
func GetPrimaryApplicant(ctx context.Context, applicationId int) (*Person, error) {
	db := config.GetDB()
	var personId int
	err := db.WithContext(ctx).Model(&Relationship{}).
		Where("to_type = ? AND to_id = ? AND relationship_type = ? AND from_type = ?",
			EntityTypeApplication, applicationId, RelationshipAppliesFor, EntityTypePerson).
		Where("JSON_EXTRACT(properties, '$.is_primary') = true").
		Select("from_id").Limit(1).Scan(&personId).Error
	if err != nil {
		return nil, err
	}
	if personId == 0 {
		return nil, errors.New("application has no primary applicant")
	}
	return GetPerson(ctx, personId)
}

// GetEmployer follows the borrower's WORKS_AT edge; nil when unemployed.
func GetEmployer(ctx context.Context, personId int) (*Company, error) {
	db := config.GetDB()
	var companyId int
	err := db.WithContext(ctx).Model(&Relationship{}).
		Where("from_type = ? AND from_id = ? AND relationship_type = ?",
			EntityTypePerson, personId, RelationshipWorksAt).
		Select("to_id").Limit(1).Scan(&companyId).Error
	if err != nil {
		return nil, err
	}
	if companyId == 0 {
		return nil, nil
	}
	return utils.FetchSingleModel[Company](ctx, companyId)
}
