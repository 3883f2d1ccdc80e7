package workflow

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Per-component caps. A registry override can lower a band's points but
// never push a component past its cap.
const (
	creditComponentCap       = 25
	dtiComponentCap          = 25
	downPaymentComponentCap  = 20
	addressYearsComponentCap = 15
	medianIncomeComponentCap = 15
)

// RiskInputs carries everything the composite score reads. A nil input
// scores that component at its lowest band instead of failing the run.
type RiskInputs struct {
	CreditScore           *int
	BackEndDTI            *decimal.Decimal
	DownPaymentPercentage *decimal.Decimal
	YearsAtAddress        *decimal.Decimal
	LocationMedianIncome  *decimal.Decimal
}

type RiskResult struct {
	Score          int
	Category       models.RiskCategory
	Recommendation models.RiskRecommendation
}

func scoreComponent(ladder models.Ladder, value *decimal.Decimal, maxPoints int) int {
	points := ladder.FallbackPoints
	if value != nil {
		points, _ = ladder.Evaluate(*value)
	}
	if points > maxPoints {
		points = maxPoints
	}
	return points
}

// ScoreRisk sums the five independently capped components and classifies
// the composite.
func ScoreRisk(ctx context.Context, inputs RiskInputs) RiskResult {
	var credit *decimal.Decimal
	if inputs.CreditScore != nil {
		v := decimal.NewFromInt(int64(*inputs.CreditScore))
		credit = &v
	}

	score := scoreComponent(loadLadder(ctx, models.RuleTypeCreditBand, defaultCreditLadder), credit, creditComponentCap)
	score += scoreComponent(loadLadder(ctx, models.RuleTypeDTIBand, defaultDTILadder), inputs.BackEndDTI, dtiComponentCap)
	score += scoreComponent(loadLadder(ctx, models.RuleTypeDownPaymentBand, defaultDownPaymentLadder), inputs.DownPaymentPercentage, downPaymentComponentCap)
	score += scoreComponent(loadLadder(ctx, models.RuleTypeAddressYearsBand, defaultAddressYearsLadder), inputs.YearsAtAddress, addressYearsComponentCap)
	score += scoreComponent(loadLadder(ctx, models.RuleTypeMedianIncomeBand, defaultMedianIncomeLadder), inputs.LocationMedianIncome, medianIncomeComponentCap)

	result := RiskResult{Score: score}
	switch {
	case score >= 80:
		result.Category = models.RiskCategoryLow
	case score >= 60:
		result.Category = models.RiskCategoryMedium
	default:
		result.Category = models.RiskCategoryHigh
	}
	switch {
	case score >= 75:
		result.Recommendation = models.RiskRecommendationAutoApprove
	case score >= 50:
		result.Recommendation = models.RiskRecommendationManualReview
	default:
		result.Recommendation = models.RiskRecommendationLikelyDecline
	}
	return result
}

// ProcessRiskScoring recomputes the composite risk score from the current
// applicant graph and persists it.
func ProcessRiskScoring(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "RiskScoring.go", "ProcessRiskScoring", "GetApplication", msg.ApplicationId, err)
		return err
	}
	person, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "RiskScoring.go", "ProcessRiskScoring", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "RiskScoring.go", "ProcessRiskScoring", "GetOrCreateMetrics", app.ID, err)
		return err
	}

	inputs := RiskInputs{
		CreditScore:           person.CreditScore,
		BackEndDTI:            metrics.BackEndDTI,
		DownPaymentPercentage: &app.DownPaymentPercentage,
		YearsAtAddress:        person.YearsAtAddress,
	}
	property, err := models.GetApplicationProperty(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "RiskScoring.go", "ProcessRiskScoring", "GetApplicationProperty", app.ID, err)
		return err
	}
	if property != nil && property.LocationId != 0 {
		location, err := models.GetLocation(ctx, property.LocationId)
		if err == nil && location != nil {
			inputs.LocationMedianIncome = location.MedianIncome
		}
	}

	result := ScoreRisk(ctx, inputs)
	now := time.Now().UTC()
	metrics.CalculatedRiskScore = &result.Score
	metrics.RiskCategory = &result.Category
	metrics.RiskRecommendation = &result.Recommendation
	metrics.RiskComputedAt = &now

	if err := models.SaveMetrics(tx, metrics); err != nil {
		config.LogError(logger, "RiskScoring.go", "ProcessRiskScoring", "SaveMetrics", app.ID, err)
		return err
	}
	return nil
}
