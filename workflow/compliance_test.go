package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
)

func f(v float64) *float64 {
	return &v
}

func decPtrOrNil(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func TestEvaluateQM_DefaultLimits(t *testing.T) {
	cases := []struct {
		name      string
		loan      float64
		dti       *float64
		income    *float64
		debts     *float64
		compliant bool
	}{
		{"within all limits", 400000, f(0.40), f(8000), f(1500), true},
		{"dti at exactly the limit", 400000, f(0.43), f(8000), f(1500), true},
		{"dti over the limit", 400000, f(0.44), f(8000), f(1500), false},
		{"loan at the conforming ceiling", 766550, f(0.30), f(8000), f(1500), true},
		{"loan over the conforming ceiling", 766551, f(0.30), f(8000), f(1500), false},
		{"dti never computed", 400000, nil, f(8000), f(1500), false},
		{"income missing", 400000, f(0.30), nil, f(1500), false},
		{"debts missing", 400000, f(0.30), f(8000), nil, false},
	}
	for _, tc := range cases {
		app := &models.Application{LoanAmount: dec(tc.loan)}
		if tc.income != nil {
			app.MonthlyIncome = decPtr(*tc.income)
		}
		if tc.debts != nil {
			app.MonthlyDebts = decPtr(*tc.debts)
		}
		result, err := EvaluateQM(context.Background(), app, decPtrOrNil(tc.dti))
		if err != nil {
			t.Fatalf("EvaluateQM(%s) error: %v", tc.name, err)
		}
		if result.Compliant != tc.compliant {
			t.Fatalf("EvaluateQM(%s) expected compliant=%v, got %v", tc.name, tc.compliant, result.Compliant)
		}
	}
}

func TestEvaluateStateRule_Usury(t *testing.T) {
	logger := config.GetLogger()
	maxRate := dec(10)
	rule := &models.BusinessRule{RuleId: "usury_CA", RuleType: models.RuleTypeStateUsury, RateValue: &maxRate}

	cases := []struct {
		rate    *float64
		passed  bool
		skipped bool
	}{
		{f(9.5), true, false},
		{f(10), true, false},
		{f(10.5), false, false},
		{nil, false, true}, // no rate quoted yet
	}
	for _, tc := range cases {
		app := &models.Application{InterestRate: decPtrOrNil(tc.rate)}
		outcome := evaluateStateRule(logger, app, rule)
		if outcome.Passed != tc.passed || outcome.Skipped != tc.skipped {
			t.Fatalf("evaluateStateRule(rate=%v) expected passed=%v skipped=%v, got passed=%v skipped=%v",
				tc.rate, tc.passed, tc.skipped, outcome.Passed, outcome.Skipped)
		}
	}
}

func TestEvaluateStateRule_MalformedUsurySkipped(t *testing.T) {
	rule := &models.BusinessRule{RuleId: "usury_XX", RuleType: models.RuleTypeStateUsury}
	app := &models.Application{InterestRate: decPtr(7)}

	outcome := evaluateStateRule(config.GetLogger(), app, rule)
	if !outcome.Skipped {
		t.Fatalf("evaluateStateRule expected malformed usury rule to be skipped")
	}
}

func TestEvaluateStateRule_LicensingAndDisclosurePass(t *testing.T) {
	app := &models.Application{}
	for _, ruleType := range []models.RuleType{models.RuleTypeStateLicensing, models.RuleTypeStateDisclosure} {
		rule := &models.BusinessRule{RuleId: string(ruleType), RuleType: ruleType}
		outcome := evaluateStateRule(config.GetLogger(), app, rule)
		if !outcome.Passed || outcome.Skipped {
			t.Fatalf("evaluateStateRule(%s) expected pass, got passed=%v skipped=%v", ruleType, outcome.Passed, outcome.Skipped)
		}
	}
}

func TestEvaluateStateRule_UnknownTypeFailsClosed(t *testing.T) {
	rule := &models.BusinessRule{RuleId: "escrow_CA", RuleType: models.RuleType("state_escrow")}
	app := &models.Application{}

	outcome := evaluateStateRule(config.GetLogger(), app, rule)
	if outcome.Passed || outcome.Skipped {
		t.Fatalf("evaluateStateRule unknown type expected fail-closed, got passed=%v skipped=%v", outcome.Passed, outcome.Skipped)
	}

	t.Setenv("STATE_RULES_FAIL_OPEN", "true")
	outcome = evaluateStateRule(config.GetLogger(), app, rule)
	if !outcome.Passed {
		t.Fatalf("evaluateStateRule unknown type expected pass with STATE_RULES_FAIL_OPEN")
	}
}

func seedCohortApplication(t *testing.T, repo *models.MemoryRepository, loan float64, credit int, status models.ApplicationStatus, filedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	app := &models.Application{LoanAmount: dec(loan), Status: status, ApplicationDate: filedAt}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert application error: %v", err)
	}
	person := &models.Person{CreditScore: intPtr(credit)}
	if err := repo.Upsert(ctx, person); err != nil {
		t.Fatalf("Upsert person error: %v", err)
	}
	if err := repo.Link(ctx, person, models.RelationshipAppliesFor, app, nil); err != nil {
		t.Fatalf("Link error: %v", err)
	}
}

func TestEvaluateFairLending_NormalPattern(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := models.NewMemoryRepository()
	ctx := context.Background()

	app := &models.Application{LoanAmount: dec(300000), ApplicationDate: now}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert application error: %v", err)
	}
	borrower := &models.Person{CreditScore: intPtr(720)}

	filed := now.AddDate(0, 0, -30)
	seedCohortApplication(t, repo, 300000, 720, models.StatusApproved, filed)
	seedCohortApplication(t, repo, 310000, 710, models.StatusClosed, filed)
	seedCohortApplication(t, repo, 290000, 730, models.StatusApproved, filed)
	seedCohortApplication(t, repo, 325000, 700, models.StatusApproved, filed)
	seedCohortApplication(t, repo, 275000, 740, models.StatusApproved, filed)
	seedCohortApplication(t, repo, 300000, 720, models.StatusDenied, filed)

	result, err := EvaluateFairLending(ctx, repo, app, borrower, now)
	if err != nil {
		t.Fatalf("EvaluateFairLending error: %v", err)
	}
	if result.CohortSize != 6 {
		t.Fatalf("EvaluateFairLending cohort expected 6, got %d", result.CohortSize)
	}
	if result.Assessment != models.FairLendingNormalPattern {
		t.Fatalf("EvaluateFairLending expected normal_pattern, got %s", result.Assessment)
	}
}

func TestEvaluateFairLending_ThinCohort(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := models.NewMemoryRepository()
	ctx := context.Background()

	app := &models.Application{LoanAmount: dec(300000), ApplicationDate: now}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert application error: %v", err)
	}
	borrower := &models.Person{CreditScore: intPtr(720)}

	filed := now.AddDate(0, 0, -30)
	seedCohortApplication(t, repo, 300000, 720, models.StatusApproved, filed)
	seedCohortApplication(t, repo, 305000, 715, models.StatusDenied, filed)
	seedCohortApplication(t, repo, 295000, 725, models.StatusApproved, filed)

	result, err := EvaluateFairLending(ctx, repo, app, borrower, now)
	if err != nil {
		t.Fatalf("EvaluateFairLending error: %v", err)
	}
	if result.CohortSize != 3 {
		t.Fatalf("EvaluateFairLending cohort expected 3, got %d", result.CohortSize)
	}
	if result.Assessment != models.FairLendingInsufficientData {
		t.Fatalf("EvaluateFairLending below minimum cohort expected insufficient_data, got %s", result.Assessment)
	}
	if result.ApprovalRate != nil {
		t.Fatalf("EvaluateFairLending thin cohort expected no approval rate, got %s", result.ApprovalRate)
	}
}

func TestEvaluateFairLending_CohortFilters(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := models.NewMemoryRepository()
	ctx := context.Background()

	app := &models.Application{LoanAmount: dec(300000), ApplicationDate: now}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert application error: %v", err)
	}
	borrower := &models.Person{CreditScore: intPtr(720)}

	filed := now.AddDate(0, 0, -30)
	seedCohortApplication(t, repo, 300000, 741, models.StatusApproved, filed)                // credit band miss
	seedCohortApplication(t, repo, 326000, 720, models.StatusApproved, filed)                // loan band miss
	seedCohortApplication(t, repo, 300000, 720, models.StatusApproved, now.AddDate(0, -7, 0)) // outside window
	for i := 0; i < 5; i++ {
		seedCohortApplication(t, repo, 300000, 720, models.StatusDenied, filed)
	}

	result, err := EvaluateFairLending(ctx, repo, app, borrower, now)
	if err != nil {
		t.Fatalf("EvaluateFairLending error: %v", err)
	}
	if result.CohortSize != 5 {
		t.Fatalf("EvaluateFairLending cohort expected 5, got %d", result.CohortSize)
	}
	if result.Assessment != models.FairLendingPotentialDisparity {
		t.Fatalf("EvaluateFairLending all-denied cohort expected potential_disparity, got %s", result.Assessment)
	}
}

func TestEvaluateFairLending_ReviewBand(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := models.NewMemoryRepository()
	ctx := context.Background()

	app := &models.Application{LoanAmount: dec(300000), ApplicationDate: now}
	if err := repo.Upsert(ctx, app); err != nil {
		t.Fatalf("Upsert application error: %v", err)
	}
	borrower := &models.Person{CreditScore: intPtr(720)}

	filed := now.AddDate(0, 0, -30)
	for i := 0; i < 3; i++ {
		seedCohortApplication(t, repo, 300000, 720, models.StatusApproved, filed)
	}
	for i := 0; i < 3; i++ {
		seedCohortApplication(t, repo, 300000, 720, models.StatusDenied, filed)
	}

	result, err := EvaluateFairLending(ctx, repo, app, borrower, now)
	if err != nil {
		t.Fatalf("EvaluateFairLending error: %v", err)
	}
	if result.Assessment != models.FairLendingReviewRecommended {
		t.Fatalf("EvaluateFairLending at 0.5 approval expected review_recommended, got %s", result.Assessment)
	}
}

func TestEvaluateFairLending_NoCreditScore(t *testing.T) {
	repo := models.NewMemoryRepository()
	app := &models.Application{LoanAmount: dec(300000)}

	result, err := EvaluateFairLending(context.Background(), repo, app, &models.Person{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("EvaluateFairLending error: %v", err)
	}
	if result.Assessment != models.FairLendingInsufficientData {
		t.Fatalf("EvaluateFairLending without credit score expected insufficient_data, got %s", result.Assessment)
	}
}
