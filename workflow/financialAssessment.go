package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	comparableSqftTolerance = 300
	comparableRecency       = 180 * 24 * time.Hour
)

var (
	selfEmployedDiscount = decimal.NewFromFloat(0.75)
	shortTenureDiscount  = decimal.NewFromFloat(0.90)
	rentalWeight         = decimal.NewFromFloat(0.75)
	bonusWeight          = decimal.NewFromFloat(0.50)

	// Placeholder amortization factor; DTI consumers depend on these exact
	// figures, so the estimate is kept as-is rather than replaced with a
	// true amortization formula.
	paymentRateFactor = decimal.NewFromFloat(0.006)
	paymentTermMonths = decimal.NewFromInt(360)

	minTenureYears = decimal.NewFromInt(2)
)

type IncomeResult struct {
	AdjustedBaseIncome decimal.Decimal
	TotalMonthlyIncome decimal.Decimal
}

// CalculateIncome applies the base-income discount and weights the side
// income streams. The discounts are mutually exclusive; self-employment
// takes precedence over short address tenure.
func CalculateIncome(app *models.Application, person *models.Person, employer *models.Company) (*IncomeResult, error) {
	if app.MonthlyIncome == nil {
		return nil, utils.MissingDataError("monthly_income")
	}

	adjusted := *app.MonthlyIncome
	if employer != nil && employer.CompanyType == models.CompanyTypeSelfEmployed {
		adjusted = adjusted.Mul(selfEmployedDiscount)
	} else if person != nil && person.YearsAtAddress != nil && person.YearsAtAddress.LessThan(minTenureYears) {
		adjusted = adjusted.Mul(shortTenureDiscount)
	}

	total := adjusted.
		Add(utils.DecimalOrZero(app.RentalIncome).Mul(rentalWeight)).
		Add(utils.DecimalOrZero(app.BonusIncome).Mul(bonusWeight)).
		Add(utils.DecimalOrZero(app.InvestmentIncome))

	return &IncomeResult{AdjustedBaseIncome: adjusted, TotalMonthlyIncome: total}, nil
}

// EstimateMonthlyPayment is the fixed payment approximation used by DTI.
func EstimateMonthlyPayment(loanAmount decimal.Decimal) decimal.Decimal {
	return loanAmount.Div(paymentTermMonths).Mul(paymentRateFactor)
}

type DTIResult struct {
	EstimatedMonthlyPayment decimal.Decimal
	FrontEndDTI             decimal.Decimal
	BackEndDTI              decimal.Decimal
	Category                models.DTICategory
	Qualified               bool
}

// CalculateDTI derives front- and back-end ratios. A zero or missing
// income is a precondition violation, never a silent division.
func CalculateDTI(ctx context.Context, app *models.Application, totalMonthlyIncome decimal.Decimal) (*DTIResult, error) {
	if app.LoanAmount.IsZero() {
		return nil, utils.MissingDataError("loan_amount")
	}
	if totalMonthlyIncome.IsZero() || totalMonthlyIncome.IsNegative() {
		return nil, utils.MissingDataError("total_monthly_income")
	}

	payment := EstimateMonthlyPayment(app.LoanAmount)
	frontEnd := payment.Div(totalMonthlyIncome)
	backEnd := utils.DecimalOrZero(app.MonthlyDebts).Add(payment).Div(totalMonthlyIncome)

	ladder := loadLadder(ctx, models.RuleTypeDTIBand, defaultDTILadder)
	_, label := ladder.Evaluate(backEnd)

	return &DTIResult{
		EstimatedMonthlyPayment: payment,
		FrontEndDTI:             frontEnd,
		BackEndDTI:              backEnd,
		Category:                models.DTICategory(label),
		Qualified:               backEnd.LessThanOrEqual(decimal.NewFromFloat(0.43)),
	}, nil
}

type LTVResult struct {
	EstimatedMarketValue *decimal.Decimal
	LoanToValue          *decimal.Decimal
	Category             *models.LTVCategory
	Confidence           models.ValuationConfidence
	ComparableCount      int
}

// CalculateLTV estimates market value as the mean of comparable appraised
// values. With zero comparables the LTV assessment is left unset and the
// caller gets ErrorInsufficientComparables alongside the low-confidence
// result.
func CalculateLTV(ctx context.Context, loanAmount decimal.Decimal, comparables []*models.Property) (*LTVResult, error) {
	result := &LTVResult{ComparableCount: len(comparables), Confidence: models.ValuationConfidenceLow}
	if len(comparables) == 0 {
		return result, utils.ErrorInsufficientComparables
	}

	sum := decimal.Zero
	for _, comp := range comparables {
		sum = sum.Add(utils.DecimalOrZero(comp.AppraisedValue))
	}
	marketValue := sum.Div(decimal.NewFromInt(int64(len(comparables))))
	if marketValue.IsZero() {
		return result, utils.ErrorInsufficientComparables
	}

	ltv := loanAmount.Div(marketValue)
	ladder := loadLadder(ctx, models.RuleTypeLTVBand, defaultLTVLadder)
	_, label := ladder.Evaluate(ltv)
	category := models.LTVCategory(label)

	result.EstimatedMarketValue = &marketValue
	result.LoanToValue = &ltv
	result.Category = &category
	if len(comparables) >= 3 {
		result.Confidence = models.ValuationConfidenceHigh
	} else {
		result.Confidence = models.ValuationConfidenceMedium
	}
	return result, nil
}

// ProcessFinancialAssessment recomputes income, DTI, and LTV for one
// application and writes the derived fields in one metrics save.
// Recomputing on unchanged inputs yields identical fields.
func ProcessFinancialAssessment(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "GetApplication", msg.ApplicationId, err)
		return err
	}
	person, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	employer, err := models.GetEmployer(ctx, person.ID)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "GetEmployer", person.ID, err)
		return err
	}

	income, err := CalculateIncome(app, person, employer)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "CalculateIncome", app.ID, err)
		return err
	}
	dti, err := CalculateDTI(ctx, app, income.TotalMonthlyIncome)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "CalculateDTI", app.ID, err)
		return err
	}

	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "GetOrCreateMetrics", app.ID, err)
		return err
	}
	now := time.Now().UTC()
	metrics.AdjustedBaseIncome = &income.AdjustedBaseIncome
	metrics.CalculatedMonthlyIncome = &income.TotalMonthlyIncome
	metrics.EstimatedMonthlyPayment = &dti.EstimatedMonthlyPayment
	metrics.FrontEndDTI = &dti.FrontEndDTI
	metrics.BackEndDTI = &dti.BackEndDTI
	metrics.DTICategory = &dti.Category
	metrics.DTIQualified = &dti.Qualified
	metrics.FinancialComputedAt = &now

	property, err := models.GetApplicationProperty(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "GetApplicationProperty", app.ID, err)
		return err
	}
	if property != nil {
		comparables, err := models.FindComparables(ctx, property, comparableSqftTolerance, comparableRecency, now)
		if err != nil {
			config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "FindComparables", property.ID, err)
			return err
		}
		ltv, err := CalculateLTV(ctx, app.LoanAmount, comparables)
		if err != nil && !errors.Is(err, utils.ErrorInsufficientComparables) {
			config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "CalculateLTV", app.ID, err)
			return err
		}
		metrics.EstimatedMarketValue = ltv.EstimatedMarketValue
		metrics.LoanToValue = ltv.LoanToValue
		metrics.LTVCategory = ltv.Category
		metrics.ValuationConfidence = &ltv.Confidence

		property.EstimatedMarketValue = ltv.EstimatedMarketValue
		property.ValuationConfidence = &ltv.Confidence
		if err := property.SaveValuation(tx); err != nil {
			config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "SaveValuation", property.ID, err)
			return err
		}
	}

	if err := models.SaveMetrics(tx, metrics); err != nil {
		config.LogError(logger, "FinancialAssessment.go", "ProcessFinancialAssessment", "SaveMetrics", app.ID, err)
		return err
	}
	return nil
}
