package workflow

import (
	"testing"

	"github.com/lendfocus/mortgage_backend/models"
)

func conventionalProgram() *models.LoanProgram {
	return &models.LoanProgram{
		Name:              "Conventional 30",
		ProgramType:       models.ProgramTypeConventional,
		MinCreditScore:    620,
		MinDownPaymentPct: dec(0.03),
		MaxBackEndDTI:     dec(0.43),
	}
}

func TestScoreProgram_StrongBorrower(t *testing.T) {
	app := &models.Application{DownPaymentPercentage: dec(0.20)}
	borrower := &models.Person{CreditScore: intPtr(750)}
	metrics := &models.ComputedMetrics{BackEndDTI: decPtr(0.25)}

	result := ScoreProgram(app, borrower, metrics, conventionalProgram(), false)
	// 25+5 credit, 25+10 down payment, 25+15 DTI
	if result.Score != 105 {
		t.Fatalf("ScoreProgram expected 105, got %d", result.Score)
	}
	if result.Qualification != models.ProgramHighlyQualified {
		t.Fatalf("ScoreProgram expected HighlyQualified, got %s", result.Qualification)
	}
}

func TestScoreProgram_FloorsWithoutBonuses(t *testing.T) {
	app := &models.Application{DownPaymentPercentage: dec(0.05)}
	borrower := &models.Person{CreditScore: intPtr(640)}
	metrics := &models.ComputedMetrics{}

	result := ScoreProgram(app, borrower, metrics, conventionalProgram(), false)
	if result.Score != 50 {
		t.Fatalf("ScoreProgram expected 50, got %d", result.Score)
	}
	if result.Qualification != models.ProgramQualified {
		t.Fatalf("ScoreProgram expected Qualified, got %s", result.Qualification)
	}
}

func TestScoreProgram_QualificationBands(t *testing.T) {
	cases := []struct {
		credit        *int
		down          float64
		qualification models.ProgramQualification
	}{
		{intPtr(640), 0.01, models.ProgramQualifiedWithConditions}, // credit floor only
		{nil, 0.01, models.ProgramNotQualified},
	}
	for _, tc := range cases {
		app := &models.Application{DownPaymentPercentage: dec(tc.down)}
		borrower := &models.Person{CreditScore: tc.credit}
		result := ScoreProgram(app, borrower, &models.ComputedMetrics{}, conventionalProgram(), false)
		if result.Qualification != tc.qualification {
			t.Fatalf("ScoreProgram(credit=%v) expected %s, got %s", tc.credit, tc.qualification, result.Qualification)
		}
	}
}

func TestScoreProgram_VAEligibility(t *testing.T) {
	program := &models.LoanProgram{
		Name:               "VA Purchase",
		ProgramType:        models.ProgramTypeVA,
		MinCreditScore:     620,
		MinDownPaymentPct:  dec(0),
		MaxBackEndDTI:      dec(0.43),
		RequiresVAEligible: true,
	}
	app := &models.Application{DownPaymentPercentage: dec(0.10)}
	borrower := &models.Person{CreditScore: intPtr(700)}
	metrics := &models.ComputedMetrics{BackEndDTI: decPtr(0.30)}

	eligible := ScoreProgram(app, borrower, metrics, program, true)
	// 25+5 credit, 25+10 down payment, 25 DTI, 30 VA
	if eligible.Score != 120 {
		t.Fatalf("ScoreProgram VA eligible expected 120, got %d", eligible.Score)
	}

	ineligible := ScoreProgram(app, borrower, metrics, program, false)
	if ineligible.Score != 0 {
		t.Fatalf("ScoreProgram VA-required without eligibility expected 0, got %d", ineligible.Score)
	}
	if ineligible.Qualification != models.ProgramNotQualified {
		t.Fatalf("ScoreProgram VA-required without eligibility expected NotQualified, got %s", ineligible.Qualification)
	}
}

func TestScoreProgram_BoundaryBonuses(t *testing.T) {
	// credit exactly min+50 and down payment exactly min+0.05 earn bonuses
	app := &models.Application{DownPaymentPercentage: dec(0.08)}
	borrower := &models.Person{CreditScore: intPtr(670)}
	metrics := &models.ComputedMetrics{BackEndDTI: decPtr(0.28)}

	result := ScoreProgram(app, borrower, metrics, conventionalProgram(), false)
	// 25+5, 25+10, 25+15
	if result.Score != 105 {
		t.Fatalf("ScoreProgram at bonus boundaries expected 105, got %d", result.Score)
	}
}
