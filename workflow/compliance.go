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

var (
	// 2024 agency limits; the registry overrides both when seeded.
	defaultQMDTILimit        = decimal.NewFromFloat(0.43)
	defaultConformingCeiling = decimal.NewFromInt(766550)

	cohortCreditBand   = 20
	cohortLoanBand     = decimal.NewFromInt(25000)
	cohortWindow       = 180 * 24 * time.Hour
	cohortMinimumSize  = 5
	normalApprovalRate = decimal.NewFromFloat(0.70)
	reviewApprovalRate = decimal.NewFromFloat(0.50)
)

type QMResult struct {
	Compliant    bool
	RulesApplied []*models.BusinessRule
	RulesMet     []*models.BusinessRule
}

// EvaluateQM is the ability-to-repay conjunction: DTI under the registry
// limit, loan under the conforming ceiling, and both income and debts on
// record. Any leg failing means manual/non-QM review.
func EvaluateQM(ctx context.Context, app *models.Application, backEndDTI *decimal.Decimal) (*QMResult, error) {
	result := &QMResult{}

	dtiLimit := defaultQMDTILimit
	if rule, err := models.GetRule(ctx, models.RuleTypeQMLimit, "dti_limit"); err == nil {
		if rule.LimitValue != nil {
			dtiLimit = *rule.LimitValue
		}
		result.RulesApplied = append(result.RulesApplied, rule)
	}
	ceiling := defaultConformingCeiling
	var ceilingRule *models.BusinessRule
	if rule, err := models.GetRule(ctx, models.RuleTypeQMLimit, "conforming_ceiling"); err == nil {
		if rule.LimitValue != nil {
			ceiling = *rule.LimitValue
		}
		ceilingRule = rule
		result.RulesApplied = append(result.RulesApplied, rule)
	}

	inputsPresent := app.MonthlyIncome != nil && app.MonthlyDebts != nil
	dtiOk := backEndDTI != nil && backEndDTI.LessThanOrEqual(dtiLimit)
	loanOk := app.LoanAmount.LessThanOrEqual(ceiling)

	result.Compliant = inputsPresent && dtiOk && loanOk
	if result.Compliant {
		result.RulesMet = result.RulesApplied
	} else if loanOk && ceilingRule != nil {
		result.RulesMet = append(result.RulesMet, ceilingRule)
	}
	return result, nil
}

type StateRuleOutcome struct {
	Rule   *models.BusinessRule
	Passed bool
	// Skipped rules are malformed or missing their input; they are logged
	// and excluded from the AND.
	Skipped bool
}

type StateComplianceResult struct {
	Compliant bool
	Outcomes  []StateRuleOutcome
}

// EvaluateStateRules runs every registry rule for the property's state
// through a closed rule-type dispatch. Unknown rule types evaluate
// fail-closed unless the legacy fail-open flag is set; malformed rules
// are skipped and logged, never silently passed.
func EvaluateStateRules(ctx context.Context, logger *logrus.Logger, app *models.Application, state string) (*StateComplianceResult, error) {
	rules, err := models.GetStateRules(ctx, state)
	if err != nil {
		return nil, err
	}

	result := &StateComplianceResult{Compliant: true}
	for _, rule := range rules {
		outcome := evaluateStateRule(logger, app, rule)
		if !outcome.Skipped && !outcome.Passed {
			result.Compliant = false
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// evaluateStateRule is the closed per-rule dispatch.
func evaluateStateRule(logger *logrus.Logger, app *models.Application, rule *models.BusinessRule) StateRuleOutcome {
	outcome := StateRuleOutcome{Rule: rule}
	switch rule.RuleType {
	case models.RuleTypeStateUsury:
		if rule.RateValue == nil {
			ruleErr := &utils.RuleEvaluationError{RuleId: rule.RuleId, RuleType: string(rule.RuleType), Reason: "usury rule has no max rate"}
			config.LogError(logger, "Compliance.go", "evaluateStateRule", "usury", rule.RuleId, ruleErr)
			outcome.Skipped = true
			return outcome
		}
		if app.InterestRate == nil {
			ruleErr := &utils.RuleEvaluationError{RuleId: rule.RuleId, RuleType: string(rule.RuleType), Reason: "application has no interest rate yet"}
			config.LogError(logger, "Compliance.go", "evaluateStateRule", "usury", app.ID, ruleErr)
			outcome.Skipped = true
			return outcome
		}
		outcome.Passed = app.InterestRate.LessThanOrEqual(*rule.RateValue)
	case models.RuleTypeStateLicensing, models.RuleTypeStateDisclosure:
		outcome.Passed = true
	default:
		outcome.Passed = config.StateRulesFailOpen()
		ruleErr := &utils.RuleEvaluationError{RuleId: rule.RuleId, RuleType: string(rule.RuleType), Reason: "unhandled state rule type"}
		config.LogError(logger, "Compliance.go", "evaluateStateRule", "unhandled", rule.RuleId, ruleErr)
	}
	return outcome
}

type FairLendingResult struct {
	Assessment   models.FairLendingAssessment
	CohortSize   int
	ApprovalRate *decimal.Decimal
}

// EvaluateFairLending compares the target against a cohort of similar
// applications. Below the minimum cohort size the outcome is
// insufficient_data, an expected result rather than a failure.
func EvaluateFairLending(ctx context.Context, repo models.EntityRepository, app *models.Application, borrower *models.Person, now time.Time) (*FairLendingResult, error) {
	result := &FairLendingResult{Assessment: models.FairLendingInsufficientData}
	if borrower.CreditScore == nil {
		return result, nil
	}
	targetCredit := *borrower.CreditScore

	window := models.ScanWindow{From: now.Add(-cohortWindow), To: now}
	candidates, err := repo.Scan(ctx, models.EntityTypeApplication, func(e models.Entity) bool {
		other, ok := e.(*models.Application)
		if !ok || other.ID == app.ID {
			return false
		}
		return other.LoanAmount.Sub(app.LoanAmount).Abs().LessThanOrEqual(cohortLoanBand)
	}, window)
	if err != nil {
		return nil, err
	}

	cohort := 0
	favorable := 0
	for _, entity := range candidates {
		other := entity.(*models.Application)
		applicants, err := repo.Traverse(ctx, other, models.RelationshipAppliesFor, models.DirectionIncoming)
		if err != nil {
			return nil, err
		}
		inCohort := false
		for _, applicantEntity := range applicants {
			applicant, ok := applicantEntity.(*models.Person)
			if !ok || applicant.CreditScore == nil {
				continue
			}
			diff := *applicant.CreditScore - targetCredit
			if diff >= -cohortCreditBand && diff <= cohortCreditBand {
				inCohort = true
				break
			}
		}
		if !inCohort {
			continue
		}
		cohort++
		if other.Status == models.StatusApproved || other.Status == models.StatusClosed {
			favorable++
		}
	}

	result.CohortSize = cohort
	if cohort < cohortMinimumSize {
		return result, nil
	}

	rate := decimal.NewFromInt(int64(favorable)).Div(decimal.NewFromInt(int64(cohort)))
	result.ApprovalRate = &rate
	switch {
	case rate.GreaterThanOrEqual(normalApprovalRate):
		result.Assessment = models.FairLendingNormalPattern
	case rate.GreaterThanOrEqual(reviewApprovalRate):
		result.Assessment = models.FairLendingReviewRecommended
	default:
		result.Assessment = models.FairLendingPotentialDisparity
	}
	return result, nil
}

// ProcessCompliance runs the QM, state, and fair-lending checks and
// persists the results together with SUBJECT_TO / MEETS_CRITERIA audit
// edges for every rule touched.
func ProcessCompliance(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "GetApplication", msg.ApplicationId, err)
		return err
	}
	borrower, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "GetOrCreateMetrics", app.ID, err)
		return err
	}

	qm, err := EvaluateQM(ctx, app, metrics.BackEndDTI)
	if err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "EvaluateQM", app.ID, err)
		return err
	}

	stateCompliant := true
	var stateOutcomes []StateRuleOutcome
	property, err := models.GetApplicationProperty(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "GetApplicationProperty", app.ID, err)
		return err
	}
	if property != nil && property.State != "" {
		stateResult, err := EvaluateStateRules(ctx, logger, app, property.State)
		if err != nil {
			config.LogError(logger, "Compliance.go", "ProcessCompliance", "EvaluateStateRules", property.State, err)
			return err
		}
		stateCompliant = stateResult.Compliant
		stateOutcomes = stateResult.Outcomes
	}

	repo := models.NewGormRepository(tx)
	fairLending, err := EvaluateFairLending(ctx, repo, app, borrower, time.Now().UTC())
	if err != nil {
		if errors.Is(err, utils.ErrorScanTimeout) || errors.Is(err, utils.ErrorScanResultCap) {
			config.LogError(logger, "Compliance.go", "ProcessCompliance", "EvaluateFairLending bounded scan", app.ID, err)
			fairLending = &FairLendingResult{Assessment: models.FairLendingInsufficientData}
		} else {
			config.LogError(logger, "Compliance.go", "ProcessCompliance", "EvaluateFairLending", app.ID, err)
			return err
		}
	}

	now := time.Now().UTC()
	metrics.QMCompliant = &qm.Compliant
	metrics.StateCompliant = &stateCompliant
	metrics.FairLendingAssessment = &fairLending.Assessment
	metrics.ComplianceComputedAt = &now
	if err := models.SaveMetrics(tx, metrics); err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "SaveMetrics", app.ID, err)
		return err
	}

	if err := writeRuleAuditEdges(tx, app.ID, qm, stateOutcomes); err != nil {
		config.LogError(logger, "Compliance.go", "ProcessCompliance", "writeRuleAuditEdges", app.ID, err)
		return err
	}
	return nil
}

func writeRuleAuditEdges(tx *gorm.DB, applicationId int, qm *QMResult, stateOutcomes []StateRuleOutcome) error {
	link := func(rule *models.BusinessRule, relType models.RelationshipType) error {
		return models.UpsertLink(tx, models.EntityTypeApplication, applicationId, relType,
			models.EntityTypeBusinessRule, rule.ID, map[string]interface{}{"rule_version": rule.RuleVersion})
	}

	for _, rule := range qm.RulesApplied {
		if err := link(rule, models.RelationshipSubjectTo); err != nil {
			return err
		}
	}
	for _, rule := range qm.RulesMet {
		if err := link(rule, models.RelationshipMeetsCriteria); err != nil {
			return err
		}
	}
	for _, outcome := range stateOutcomes {
		if outcome.Skipped {
			continue
		}
		if err := link(outcome.Rule, models.RelationshipSubjectTo); err != nil {
			return err
		}
		if outcome.Passed {
			if err := link(outcome.Rule, models.RelationshipMeetsCriteria); err != nil {
				return err
			}
		}
	}
	return nil
}
