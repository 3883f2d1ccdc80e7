package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestCalculateIncome_SelfEmployedWithSideIncome(t *testing.T) {
	app := &models.Application{
		MonthlyIncome: decPtr(9200),
		RentalIncome:  decPtr(1000),
		BonusIncome:   decPtr(2000),
	}
	employer := &models.Company{CompanyType: models.CompanyTypeSelfEmployed}

	result, err := CalculateIncome(app, &models.Person{}, employer)
	if err != nil {
		t.Fatalf("CalculateIncome error: %v", err)
	}
	if !result.AdjustedBaseIncome.Equal(dec(6900)) {
		t.Fatalf("CalculateIncome adjusted base expected 6900, got %s", result.AdjustedBaseIncome)
	}
	// 6900 + 1000*0.75 + 2000*0.50
	if !result.TotalMonthlyIncome.Equal(dec(8650)) {
		t.Fatalf("CalculateIncome total expected 8650, got %s", result.TotalMonthlyIncome)
	}
}

func TestCalculateIncome_DiscountPrecedence(t *testing.T) {
	cases := []struct {
		name           string
		companyType    models.CompanyType
		yearsAtAddress *decimal.Decimal
		expected       string
	}{
		{"self employed beats short tenure", models.CompanyTypeSelfEmployed, decPtr(1), "7500"},
		{"short tenure alone", models.CompanyTypeEmployer, decPtr(1.5), "9000"},
		{"tenure at exactly two years keeps full income", models.CompanyTypeEmployer, decPtr(2), "10000"},
		{"no discount", models.CompanyTypeEmployer, decPtr(5), "10000"},
	}
	for _, tc := range cases {
		app := &models.Application{MonthlyIncome: decPtr(10000)}
		person := &models.Person{YearsAtAddress: tc.yearsAtAddress}
		employer := &models.Company{CompanyType: tc.companyType}

		result, err := CalculateIncome(app, person, employer)
		if err != nil {
			t.Fatalf("CalculateIncome(%s) error: %v", tc.name, err)
		}
		if result.AdjustedBaseIncome.String() != tc.expected {
			t.Fatalf("CalculateIncome(%s) expected %s, got %s", tc.name, tc.expected, result.AdjustedBaseIncome)
		}
	}
}

func TestCalculateIncome_InvestmentIncomeFullWeight(t *testing.T) {
	app := &models.Application{
		MonthlyIncome:    decPtr(5000),
		InvestmentIncome: decPtr(400),
	}
	result, err := CalculateIncome(app, &models.Person{}, nil)
	if err != nil {
		t.Fatalf("CalculateIncome error: %v", err)
	}
	if !result.TotalMonthlyIncome.Equal(dec(5400)) {
		t.Fatalf("CalculateIncome total expected 5400, got %s", result.TotalMonthlyIncome)
	}
}

func TestCalculateIncome_MissingIncome(t *testing.T) {
	_, err := CalculateIncome(&models.Application{}, &models.Person{}, nil)
	if !errors.Is(err, utils.ErrorMissingData) {
		t.Fatalf("CalculateIncome expected ErrorMissingData, got %v", err)
	}
}

func TestCalculateIncome_Deterministic(t *testing.T) {
	app := &models.Application{
		MonthlyIncome: decPtr(9200),
		RentalIncome:  decPtr(1000),
		BonusIncome:   decPtr(2000),
	}
	first, err := CalculateIncome(app, &models.Person{}, nil)
	if err != nil {
		t.Fatalf("CalculateIncome error: %v", err)
	}
	second, err := CalculateIncome(app, &models.Person{}, nil)
	if err != nil {
		t.Fatalf("CalculateIncome error: %v", err)
	}
	if !first.TotalMonthlyIncome.Equal(second.TotalMonthlyIncome) {
		t.Fatalf("CalculateIncome recompute expected %s, got %s", first.TotalMonthlyIncome, second.TotalMonthlyIncome)
	}
}

func TestEstimateMonthlyPayment(t *testing.T) {
	payment := EstimateMonthlyPayment(dec(360000))
	if !payment.Equal(dec(6)) {
		t.Fatalf("EstimateMonthlyPayment(360000) expected 6, got %s", payment)
	}
}

func TestCalculateDTI_Ratios(t *testing.T) {
	app := &models.Application{
		LoanAmount:   dec(360000),
		MonthlyDebts: decPtr(1500),
	}
	result, err := CalculateDTI(context.Background(), app, dec(6000))
	if err != nil {
		t.Fatalf("CalculateDTI error: %v", err)
	}
	if !result.EstimatedMonthlyPayment.Equal(dec(6)) {
		t.Fatalf("CalculateDTI payment expected 6, got %s", result.EstimatedMonthlyPayment)
	}
	if !result.FrontEndDTI.Equal(dec(0.001)) {
		t.Fatalf("CalculateDTI front-end expected 0.001, got %s", result.FrontEndDTI)
	}
	if !result.BackEndDTI.Equal(dec(0.251)) {
		t.Fatalf("CalculateDTI back-end expected 0.251, got %s", result.BackEndDTI)
	}
	if result.Category != models.DTICategoryExcellent {
		t.Fatalf("CalculateDTI category expected excellent, got %s", result.Category)
	}
	if !result.Qualified {
		t.Fatalf("CalculateDTI expected qualified at 0.251")
	}
}

func TestCalculateDTI_BandBoundaries(t *testing.T) {
	// loan 360000 gives a payment of exactly 6, so back-end DTI is
	// (debts+6)/income and the band boundaries can be hit exactly.
	cases := []struct {
		debts     float64
		income    float64
		category  models.DTICategory
		qualified bool
	}{
		{274, 1000, models.DTICategoryExcellent, true},  // 0.28
		{354, 1000, models.DTICategoryGood, true},       // 0.36
		{424, 1000, models.DTICategoryAcceptable, true}, // 0.43
		{425, 1000, models.DTICategoryHighRisk, false},  // 0.431
	}
	for _, tc := range cases {
		app := &models.Application{LoanAmount: dec(360000), MonthlyDebts: decPtr(tc.debts)}
		result, err := CalculateDTI(context.Background(), app, dec(tc.income))
		if err != nil {
			t.Fatalf("CalculateDTI(debts=%v) error: %v", tc.debts, err)
		}
		if result.Category != tc.category {
			t.Fatalf("CalculateDTI(debts=%v) expected category %s, got %s", tc.debts, tc.category, result.Category)
		}
		if result.Qualified != tc.qualified {
			t.Fatalf("CalculateDTI(debts=%v) expected qualified=%v, got %v", tc.debts, tc.qualified, result.Qualified)
		}
	}
}

func TestCalculateDTI_MissingInputs(t *testing.T) {
	_, err := CalculateDTI(context.Background(), &models.Application{}, dec(5000))
	if !errors.Is(err, utils.ErrorMissingData) {
		t.Fatalf("CalculateDTI with zero loan expected ErrorMissingData, got %v", err)
	}

	_, err = CalculateDTI(context.Background(), &models.Application{LoanAmount: dec(100000)}, decimal.Zero)
	if !errors.Is(err, utils.ErrorMissingData) {
		t.Fatalf("CalculateDTI with zero income expected ErrorMissingData, got %v", err)
	}
}

func TestCalculateLTV_ConfidenceTiers(t *testing.T) {
	comparable := func(value float64) *models.Property {
		return &models.Property{AppraisedValue: decPtr(value)}
	}

	result, err := CalculateLTV(context.Background(), dec(200000),
		[]*models.Property{comparable(250000), comparable(240000), comparable(260000)})
	if err != nil {
		t.Fatalf("CalculateLTV error: %v", err)
	}
	if result.EstimatedMarketValue == nil || !result.EstimatedMarketValue.Equal(dec(250000)) {
		t.Fatalf("CalculateLTV market value expected 250000, got %v", result.EstimatedMarketValue)
	}
	if result.LoanToValue == nil || !result.LoanToValue.Equal(dec(0.8)) {
		t.Fatalf("CalculateLTV expected 0.8, got %v", result.LoanToValue)
	}
	if result.Category == nil || *result.Category != models.DTICategoryExcellent {
		t.Fatalf("CalculateLTV category expected excellent, got %v", result.Category)
	}
	if result.Confidence != models.ValuationConfidenceHigh {
		t.Fatalf("CalculateLTV with 3 comparables expected high confidence, got %s", result.Confidence)
	}

	result, err = CalculateLTV(context.Background(), dec(200000), []*models.Property{comparable(250000)})
	if err != nil {
		t.Fatalf("CalculateLTV error: %v", err)
	}
	if result.Confidence != models.ValuationConfidenceMedium {
		t.Fatalf("CalculateLTV with 1 comparable expected medium confidence, got %s", result.Confidence)
	}
}

func TestCalculateLTV_NoComparables(t *testing.T) {
	result, err := CalculateLTV(context.Background(), dec(200000), nil)
	if !errors.Is(err, utils.ErrorInsufficientComparables) {
		t.Fatalf("CalculateLTV expected ErrorInsufficientComparables, got %v", err)
	}
	if result.Confidence != models.ValuationConfidenceLow {
		t.Fatalf("CalculateLTV confidence expected low, got %s", result.Confidence)
	}
	if result.LoanToValue != nil || result.EstimatedMarketValue != nil || result.Category != nil {
		t.Fatalf("CalculateLTV expected unset valuation fields without comparables")
	}
}

func TestCalculateLTV_ZeroValuedComparables(t *testing.T) {
	_, err := CalculateLTV(context.Background(), dec(200000),
		[]*models.Property{{}, {}})
	if !errors.Is(err, utils.ErrorInsufficientComparables) {
		t.Fatalf("CalculateLTV with unappraised comparables expected ErrorInsufficientComparables, got %v", err)
	}
}
