package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	sharedAddressWindow = 90 * 24 * time.Hour
	propertyReuseWindow = 365 * 24 * time.Hour

	sharedAddressWeight = 10
	propertyReuseWeight = 15
)

type FraudResult struct {
	SharedAddressCount int
	PropertyReuseCount int
	Score              int
	Level              models.FraudRiskLevel
	Recommendation     models.FraudRecommendation
}

// ScoreFraud counts two graph patterns over bounded windows: other
// applicants at the borrower's address with a recent application, and
// prior applications against the same property. The count is
// deterministic for a fixed graph and clock.
func ScoreFraud(ctx context.Context, repo models.EntityRepository, app *models.Application, borrower *models.Person, property *models.Property, now time.Time) (*FraudResult, error) {
	result := &FraudResult{}

	sharedCount, err := countSharedAddressApplicants(ctx, repo, borrower, now)
	if err != nil {
		return nil, err
	}
	result.SharedAddressCount = sharedCount

	if property != nil {
		reuseCount, err := countPropertyReuse(ctx, repo, app, property, now)
		if err != nil {
			return nil, err
		}
		result.PropertyReuseCount = reuseCount
	}

	result.Score = result.SharedAddressCount*sharedAddressWeight + result.PropertyReuseCount*propertyReuseWeight
	switch {
	case result.Score == 0:
		result.Level = models.FraudRiskLevelLow
	case result.Score <= 20:
		result.Level = models.FraudRiskLevelMedium
	default:
		result.Level = models.FraudRiskLevelHigh
	}
	switch {
	case result.Score > 25:
		result.Recommendation = models.FraudRecommendationManualReview
	case result.Score > 0:
		result.Recommendation = models.FraudRecommendationAdditionalVerification
	default:
		result.Recommendation = models.FraudRecommendationClear
	}
	return result, nil
}

// countSharedAddressApplicants finds distinct other persons at the
// borrower's normalized current address who filed an application inside
// the window. The scan walks applications (the window-anchored entity),
// not the whole persons table, so the cap tracks recent volume.
func countSharedAddressApplicants(ctx context.Context, repo models.EntityRepository, borrower *models.Person, now time.Time) (int, error) {
	address := utils.NormalizeAddress(borrower.CurrentAddress)
	if address == "" {
		return 0, nil
	}

	window := models.ScanWindow{From: now.Add(-sharedAddressWindow), To: now}
	recent, err := repo.Scan(ctx, models.EntityTypeApplication, nil, window)
	if err != nil {
		return 0, err
	}

	seen := map[int]bool{}
	for _, entity := range recent {
		filed, ok := entity.(*models.Application)
		if !ok {
			continue
		}
		applicants, err := repo.Traverse(ctx, filed, models.RelationshipAppliesFor, models.DirectionIncoming)
		if err != nil {
			return 0, err
		}
		for _, applicantEntity := range applicants {
			person, ok := applicantEntity.(*models.Person)
			if !ok || person.ID == borrower.ID || seen[person.ID] {
				continue
			}
			if utils.NormalizeAddress(person.CurrentAddress) == address {
				seen[person.ID] = true
			}
		}
	}
	return len(seen), nil
}

// countPropertyReuse counts distinct prior applications against the same
// property inside the window, excluding the current one.
func countPropertyReuse(ctx context.Context, repo models.EntityRepository, app *models.Application, property *models.Property, now time.Time) (int, error) {
	applications, err := repo.Traverse(ctx, property, models.RelationshipHasProperty, models.DirectionIncoming)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-propertyReuseWindow)
	count := 0
	for _, entity := range applications {
		prior, ok := entity.(*models.Application)
		if ok && prior.ID != app.ID && !prior.ApplicationDate.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

// ProcessFraudScoring recomputes the fraud pattern counts and persists them.
func ProcessFraudScoring(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "GetApplication", msg.ApplicationId, err)
		return err
	}
	borrower, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "GetPrimaryApplicant", app.ID, err)
		return err
	}
	property, err := models.GetApplicationProperty(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "GetApplicationProperty", app.ID, err)
		return err
	}

	repo := models.NewGormRepository(tx)
	result, err := ScoreFraud(ctx, repo, app, borrower, property, time.Now().UTC())
	if err != nil {
		if errors.Is(err, utils.ErrorScanTimeout) || errors.Is(err, utils.ErrorScanResultCap) {
			// Unassessable graph routes to a human instead of halting the pipeline.
			config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "ScoreFraud bounded scan", app.ID, err)
			result = nil
		} else {
			config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "ScoreFraud", app.ID, err)
			return err
		}
	}

	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "GetOrCreateMetrics", app.ID, err)
		return err
	}
	now := time.Now().UTC()
	if result != nil {
		metrics.FraudRiskScore = &result.Score
		metrics.FraudRiskLevel = &result.Level
		metrics.FraudRecommendation = &result.Recommendation
	} else {
		level := models.FraudRiskLevelHigh
		recommendation := models.FraudRecommendationManualReview
		metrics.FraudRiskScore = nil
		metrics.FraudRiskLevel = &level
		metrics.FraudRecommendation = &recommendation
	}
	if metrics.RiskComputedAt == nil {
		metrics.RiskComputedAt = &now
	}

	if err := models.SaveMetrics(tx, metrics); err != nil {
		config.LogError(logger, "FraudScoring.go", "ProcessFraudScoring", "SaveMetrics", app.ID, err)
		return err
	}
	return nil
}
