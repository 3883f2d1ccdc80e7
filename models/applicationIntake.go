package models

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var intakeValidator = validator.New()

type IntakeBorrower struct {
	Ssn            string  `json:"ssn" validate:"required" binding:"required"`
	FirstName      string  `json:"first_name" validate:"required" binding:"required"`
	LastName       string  `json:"last_name" validate:"required" binding:"required"`
	Email          string  `json:"email" validate:"omitempty,email"`
	Phone          string  `json:"phone"`
	CurrentAddress string  `json:"current_address" validate:"required"`
	City           string  `json:"city"`
	State          string  `json:"state" validate:"required,len=2"`
	ZipCode        string  `json:"zip_code" validate:"required"`
	YearsAtAddress float64 `json:"years_at_address" validate:"gte=0"`
	CreditScore    *int    `json:"credit_score" validate:"omitempty,gte=300,lte=850"`
	EmployerId     int     `json:"employer_id"`
}

type IntakeProperty struct {
	Address       string  `json:"address" validate:"required"`
	City          string  `json:"city"`
	State         string  `json:"state" validate:"required,len=2"`
	ZipCode       string  `json:"zip_code" validate:"required"`
	PropertyType  string  `json:"property_type" validate:"required"`
	OccupancyType string  `json:"occupancy_type"`
	SquareFeet    int     `json:"square_feet" validate:"gte=0"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	YearBuilt     int     `json:"year_built"`
}

type NewApplicationInput struct {
	Borrower          IntakeBorrower  `json:"borrower" validate:"required"`
	Property          *IntakeProperty `json:"property"`
	LoanPurpose       string          `json:"loan_purpose" validate:"required"`
	LoanAmount        float64         `json:"loan_amount" validate:"required,gte=50000,lte=5000000"`
	LoanTermMonths    int             `json:"loan_term_months" validate:"omitempty,oneof=180 360"`
	DownPaymentAmount float64         `json:"down_payment_amount" validate:"gte=0"`
	MonthlyIncome     *float64        `json:"monthly_income" validate:"omitempty,gt=0"`
	MonthlyDebts      *float64        `json:"monthly_debts" validate:"omitempty,gte=0"`
	RentalIncome      *float64        `json:"rental_income" validate:"omitempty,gte=0"`
	BonusIncome       *float64        `json:"bonus_income" validate:"omitempty,gte=0"`
	InvestmentIncome  *float64        `json:"investment_income" validate:"omitempty,gte=0"`
	LoanProgramId     int             `json:"loan_program_id"`
}

func (input *NewApplicationInput) validate() error {
	if err := intakeValidator.Struct(input); err != nil {
		return err
	}
	if !utils.IsValidSSN(input.Borrower.Ssn) {
		return errors.New("ssn must match NNN-NN-NNNN")
	}
	if !utils.IsValidZipCode(input.Borrower.ZipCode) {
		return errors.New("borrower zip code is invalid")
	}
	if _, err := ParseLoanPurpose(input.LoanPurpose); err != nil {
		return err
	}
	if input.Property != nil && !utils.IsValidZipCode(input.Property.ZipCode) {
		return errors.New("property zip code is invalid")
	}
	if len(input.Borrower.Phone) > 0 {
		if err := utils.ValidatePhoneNumber(input.Borrower.Phone, utils.CountryCode); err != nil {
			return errors.New("borrower phone number is invalid")
		}
	}
	return nil
}

// CreateApplication is intake: it creates or reuses the borrower by ssn,
// creates the application in `received` with the down-payment invariant
// enforced, links the primary applicant and property, and writes the
// pipeline outbox row in the same transaction.
func CreateApplication(ctx context.Context, input *NewApplicationInput) (*Application, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	loanAmount := decimal.NewFromFloat(input.LoanAmount)
	downPayment := decimal.NewFromFloat(input.DownPaymentAmount)
	if loanAmount.IsZero() {
		return nil, utils.MissingDataError("loan_amount")
	}
	// down_payment_percentage = down_payment_amount / loan_amount must
	// hold after intake
	downPaymentPct := downPayment.Div(loanAmount)

	purpose, _ := ParseLoanPurpose(input.LoanPurpose)
	now := time.Now().UTC()

	scope, seqNo, appNumber, err := NextApplicationNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	termMonths := input.LoanTermMonths
	if termMonths == 0 {
		termMonths = 360
	}

	application := Application{
		ApplicationNumber:     appNumber,
		SequenceScope:         scope,
		SequenceNo:            seqNo,
		LoanPurpose:           purpose,
		LoanAmount:            loanAmount,
		LoanTermMonths:        termMonths,
		DownPaymentAmount:     downPayment,
		DownPaymentPercentage: downPaymentPct,
		MonthlyIncome:         decimalPtrFromFloat(input.MonthlyIncome),
		MonthlyDebts:          decimalPtrFromFloat(input.MonthlyDebts),
		RentalIncome:          decimalPtrFromFloat(input.RentalIncome),
		BonusIncome:           decimalPtrFromFloat(input.BonusIncome),
		InvestmentIncome:      decimalPtrFromFloat(input.InvestmentIncome),
		LoanProgramId:         input.LoanProgramId,
		Status:                StatusReceived,
		StatusChangeReason:    "intake",
		StatusChangedAt:       now,
		ApplicationDate:       now,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		borrower, err := upsertBorrower(ctx, tx, &input.Borrower)
		if err != nil {
			return err
		}

		if err := tx.Create(&application).Error; err != nil {
			return err
		}

		if err := UpsertLink(tx, EntityTypePerson, borrower.ID, RelationshipAppliesFor,
			EntityTypeApplication, application.ID, map[string]interface{}{"is_primary": true}); err != nil {
			return err
		}

		if input.Borrower.EmployerId > 0 {
			if err := utils.ValidateResourceId[Company](ctx, input.Borrower.EmployerId); err != nil {
				return errors.New("employer not found")
			}
			if err := UpsertLink(tx, EntityTypePerson, borrower.ID, RelationshipWorksAt,
				EntityTypeCompany, input.Borrower.EmployerId, nil); err != nil {
				return err
			}
		}

		if input.Property != nil {
			property, err := createIntakeProperty(ctx, tx, input.Property)
			if err != nil {
				return err
			}
			if err := UpsertLink(tx, EntityTypeApplication, application.ID, RelationshipHasProperty,
				EntityTypeProperty, property.ID, nil); err != nil {
				return err
			}
		}

		return PublishToPipeline(ctx, tx, application.ID, PipelineTriggerIntake,
			application.ID, string(EntityTypeApplication), PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func upsertBorrower(ctx context.Context, tx *gorm.DB, input *IntakeBorrower) (*Person, error) {
	existing, err := GetPersonBySsn(ctx, input.Ssn)
	if err != nil {
		return nil, err
	}
	years := decimal.NewFromFloat(input.YearsAtAddress)
	if existing != nil {
		// refresh contact and address attributes, keep identity
		existing.FirstName = input.FirstName
		existing.LastName = input.LastName
		existing.Email = input.Email
		existing.Phone = input.Phone
		existing.CurrentAddress = utils.NormalizeAddress(input.CurrentAddress)
		existing.City = input.City
		existing.State = input.State
		existing.ZipCode = input.ZipCode
		existing.YearsAtAddress = &years
		if input.CreditScore != nil {
			existing.CreditScore = input.CreditScore
		}
		existing.PersonType = PersonTypeBorrower
		if err := tx.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	person := Person{
		Ssn:            input.Ssn,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
		PersonType:     PersonTypeBorrower,
		CurrentAddress: utils.NormalizeAddress(input.CurrentAddress),
		City:           input.City,
		State:          input.State,
		ZipCode:        input.ZipCode,
		YearsAtAddress: &years,
		CreditScore:    input.CreditScore,
	}
	if err := tx.Create(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func createIntakeProperty(ctx context.Context, tx *gorm.DB, input *IntakeProperty) (*Property, error) {
	location, err := GetLocationByZip(ctx, input.ZipCode)
	if err != nil {
		return nil, err
	}
	var locationId int
	if location != nil {
		locationId = location.ID
	}

	occupancy := OccupancyType(input.OccupancyType)
	if occupancy == "" {
		occupancy = OccupancyTypePrimary
	}

	property := Property{
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		ZipCode:       input.ZipCode,
		LocationId:    locationId,
		PropertyType:  PropertyType(input.PropertyType),
		OccupancyType: occupancy,
		SquareFeet:    input.SquareFeet,
		Bedrooms:      input.Bedrooms,
		Bathrooms:     decimal.NewFromFloat(input.Bathrooms),
		YearBuilt:     input.YearBuilt,
	}
	if err := tx.Create(&property).Error; err != nil {
		return nil, err
	}

	if locationId > 0 {
		if err := UpsertLink(tx, EntityTypeProperty, property.ID, RelationshipLocatedIn,
			EntityTypeLocation, locationId, nil); err != nil {
			return nil, err
		}
	}
	return &property, nil
}

func decimalPtrFromFloat(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
