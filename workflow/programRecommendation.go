package workflow

import (
	"context"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	downPaymentExceedMargin = decimal.NewFromFloat(0.05)
	strongDTIThreshold      = decimal.NewFromFloat(0.28)
)

type ProgramScore struct {
	Program       *models.LoanProgram
	Score         int
	Qualification models.ProgramQualification
}

// ScoreProgram rates one borrower against one loan program. Points
// accrue for meeting each program floor, with bonuses for clearing a
// floor by a wide margin.
func ScoreProgram(app *models.Application, borrower *models.Person, metrics *models.ComputedMetrics, program *models.LoanProgram, vaEligible bool) ProgramScore {
	score := 0

	if borrower.CreditScore != nil && *borrower.CreditScore >= program.MinCreditScore {
		score += 25
		if *borrower.CreditScore >= program.MinCreditScore+50 {
			score += 5
		}
	}
	if app.DownPaymentPercentage.GreaterThanOrEqual(program.MinDownPaymentPct) {
		score += 25
		if app.DownPaymentPercentage.GreaterThanOrEqual(program.MinDownPaymentPct.Add(downPaymentExceedMargin)) {
			score += 10
		}
	}
	if metrics.BackEndDTI != nil && metrics.BackEndDTI.LessThanOrEqual(program.MaxBackEndDTI) {
		score += 25
		if metrics.BackEndDTI.LessThanOrEqual(strongDTIThreshold) {
			score += 15
		}
	}
	if program.RequiresVAEligible {
		if vaEligible {
			score += 30
		} else {
			score = 0
		}
	}

	result := ProgramScore{Program: program, Score: score}
	switch {
	case score >= 75:
		result.Qualification = models.ProgramHighlyQualified
	case score >= 50:
		result.Qualification = models.ProgramQualified
	case score >= 25:
		result.Qualification = models.ProgramQualifiedWithConditions
	default:
		result.Qualification = models.ProgramNotQualified
	}
	return result
}

// ProcessProgramRecommendation scores the borrower against every active
// program and writes ELIGIBLE_FOR edges for programs at Qualified or
// better.
func ProcessProgramRecommendation(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "GetApplication", msg.ApplicationId, err)
		return err
	}
	borrower, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "GetOrCreateMetrics", app.ID, err)
		return err
	}
	programs, err := models.ListActiveLoanPrograms(ctx)
	if err != nil {
		config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "ListActiveLoanPrograms", app.ID, err)
		return err
	}

	// Certificate of eligibility on file stands in for VA entitlement.
	vaEligible := false
	documents, err := models.ListApplicationDocuments(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "ListApplicationDocuments", app.ID, err)
		return err
	}
	for _, doc := range documents {
		if doc.DocumentType == models.DocumentTypeCertificateOfEligibility && doc.VerificationStatus.CountsAsReceived() {
			vaEligible = true
			break
		}
	}

	for _, program := range programs {
		result := ScoreProgram(app, borrower, metrics, program, vaEligible)
		if result.Score < 50 {
			continue
		}
		err := models.UpsertLink(tx, models.EntityTypeApplication, app.ID, models.RelationshipEligibleFor,
			models.EntityTypeLoanProgram, program.ID, map[string]interface{}{
				"score":         result.Score,
				"qualification": string(result.Qualification),
			})
		if err != nil {
			config.LogError(logger, "ProgramRecommendation.go", "ProcessProgramRecommendation", "UpsertLink", program.ID, err)
			return err
		}
	}
	return nil
}
