package workflow

import (
	"context"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 2024 base pricing; registry base_rate rules override per key.
var (
	baseRate30Year = decimal.NewFromFloat(7.125)
	baseRate15Year = decimal.NewFromFloat(6.625)
	baseRateJumbo  = decimal.NewFromFloat(7.25)

	fhaAdjustment     = decimal.NewFromFloat(0.25)
	vaAdjustment      = decimal.NewFromFloat(-0.125)
	usdaAdjustment    = decimal.NewFromFloat(0.125)
	cashOutAdjustment = decimal.NewFromFloat(0.375)
)

func adjStep(bound, adj float64) models.LadderStep {
	return models.LadderStep{Bound: decimal.NewFromFloat(bound), Points: int(adj * 1000)}
}

// Adjustment ladders carry eighths of a point ×1000 in the points column
// so the registry rows can reuse the ladder shape.
var defaultCreditAdjustmentLadder = models.Ladder{
	Direction: models.LadderGTE,
	Steps: []models.LadderStep{
		adjStep(760, 0),
		adjStep(740, 0.125),
		adjStep(720, 0.25),
		adjStep(700, 0.375),
		adjStep(680, 0.50),
		adjStep(660, 0.75),
		adjStep(640, 1.0),
		adjStep(620, 1.25),
		adjStep(600, 1.50),
		adjStep(580, 1.75),
	},
	FallbackPoints: 2000,
}

var defaultLTVAdjustmentLadder = models.Ladder{
	Direction: models.LadderLTE,
	Steps: []models.LadderStep{
		adjStep(0.70, 0),
		adjStep(0.75, 0.125),
		adjStep(0.80, 0.25),
		adjStep(0.85, 0.375),
		adjStep(0.90, 0.50),
		adjStep(0.95, 0.75),
		adjStep(0.97, 1.0),
	},
	FallbackPoints: 1250,
}

func adjustmentFromPoints(points int) decimal.Decimal {
	return decimal.NewFromInt(int64(points)).Div(decimal.NewFromInt(1000))
}

// QuoteRate prices one application: base rate by term and program, plus
// credit, LTV, program, and transaction adjustments.
func QuoteRate(ctx context.Context, app *models.Application, borrower *models.Person, metrics *models.ComputedMetrics, program *models.LoanProgram) decimal.Decimal {
	programType := models.ProgramType("")
	if program != nil {
		programType = program.ProgramType
	}

	rate := baseRate30Year
	baseKey := "term_360"
	switch {
	case programType == models.ProgramTypeJumbo:
		rate = baseRateJumbo
		baseKey = "jumbo"
	case app.LoanTermMonths == 180:
		rate = baseRate15Year
		baseKey = "term_180"
	}
	if rule, err := models.GetRule(ctx, models.RuleTypeBaseRate, baseKey); err == nil && rule.RateValue != nil {
		rate = *rule.RateValue
	}

	if borrower != nil && borrower.CreditScore != nil {
		ladder := loadLadder(ctx, models.RuleTypeRateAdjustment, defaultCreditAdjustmentLadder)
		points, _ := ladder.Evaluate(decimal.NewFromInt(int64(*borrower.CreditScore)))
		rate = rate.Add(adjustmentFromPoints(points))
	}
	if metrics != nil && metrics.LoanToValue != nil {
		points, _ := defaultLTVAdjustmentLadder.Evaluate(*metrics.LoanToValue)
		rate = rate.Add(adjustmentFromPoints(points))
	}

	switch programType {
	case models.ProgramTypeFHA:
		rate = rate.Add(fhaAdjustment)
	case models.ProgramTypeVA:
		rate = rate.Add(vaAdjustment)
	case models.ProgramTypeUSDA:
		rate = rate.Add(usdaAdjustment)
	}
	if app.LoanPurpose == models.LoanPurposeCashOut {
		rate = rate.Add(cashOutAdjustment)
	}
	return rate
}

// ProcessRatePricing quotes a rate and stamps it onto the application
// when none is locked yet; the usury state rule reads it downstream.
func ProcessRatePricing(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "RatePricing.go", "ProcessRatePricing", "GetApplication", msg.ApplicationId, err)
		return err
	}
	if app.InterestRate != nil {
		return nil
	}
	borrower, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "RatePricing.go", "ProcessRatePricing", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "RatePricing.go", "ProcessRatePricing", "GetOrCreateMetrics", app.ID, err)
		return err
	}
	var program *models.LoanProgram
	if app.LoanProgramId != 0 {
		program, _ = models.GetLoanProgram(ctx, app.LoanProgramId)
	}

	rate := QuoteRate(ctx, app, borrower, metrics, program)
	err = tx.Model(&models.Application{}).Where("id = ?", app.ID).Update("interest_rate", rate).Error
	if err != nil {
		config.LogError(logger, "RatePricing.go", "ProcessRatePricing", "Update interest_rate", app.ID, err)
		return err
	}
	return nil
}
