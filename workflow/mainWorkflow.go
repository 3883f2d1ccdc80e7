package workflow

import (
	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// engineStep names one pipeline stage for logging.
type engineStep struct {
	Name string
	Run  func(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error
}

// The recompute chain. Document resolution feeds the financial and risk
// stages, rate pricing feeds the usury check, so ordering matters.
var pipelineChain = []engineStep{
	{Name: "DocumentResolver", Run: ProcessDocumentResolver},
	{Name: "FinancialAssessment", Run: ProcessFinancialAssessment},
	{Name: "RiskScoring", Run: ProcessRiskScoring},
	{Name: "FraudScoring", Run: ProcessFraudScoring},
	{Name: "ProgramRecommendation", Run: ProcessProgramRecommendation},
	{Name: "RatePricing", Run: ProcessRatePricing},
	{Name: "Compliance", Run: ProcessCompliance},
}

// ProcessPipelineWorkflow re-runs every engine for the application named
// by the message, inside the caller's transaction. The caller holds the
// per-application lock; each engine reads the snapshot current at its
// own step and writes only its own metrics columns.
func ProcessPipelineWorkflow(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "MainWorkflow.go", "ProcessPipelineWorkflow", "GetApplication", msg.ApplicationId, err)
		return err
	}
	if app.Status.IsTerminal() {
		// Derived fields are frozen; a late recompute request is a no-op.
		logger.WithFields(logrus.Fields{
			"field":          "PipelineWorkflow",
			"application_id": app.ID,
			"status":         app.Status,
		}).Info("skipping recompute for terminal application")
		return nil
	}

	for _, step := range pipelineChain {
		if err := step.Run(tx, logger, msg); err != nil {
			config.LogError(logger, "MainWorkflow.go", "ProcessPipelineWorkflow > "+step.Name, "engine failed", msg.ApplicationId, err)
			return err
		}
	}
	return nil
}
