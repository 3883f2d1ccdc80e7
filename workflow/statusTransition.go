package workflow

import (
	"context"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	TransitionReasonAllowed = "normal_progression"
	TransitionReasonRefused = "prerequisites_not_met"
)

// pipelineOrder is the forward chain; lateral and terminal states sit
// outside it and are reachable from any non-terminal status.
var pipelineOrder = []models.ApplicationStatus{
	models.StatusReceived,
	models.StatusInReview,
	models.StatusUnderwriting,
	models.StatusConditionalApproval,
	models.StatusClearToClose,
	models.StatusClosingScheduled,
	models.StatusClosed,
}

var lateralStatuses = map[models.ApplicationStatus]bool{
	models.StatusIncomplete: true,
	models.StatusApproved:   true,
	models.StatusDenied:     true,
	models.StatusWithdrawn:  true,
}

func statusIndex(status models.ApplicationStatus) int {
	for i, s := range pipelineOrder {
		if s == status {
			return i
		}
	}
	return -1
}

// transitionReachable checks shape only; guard predicates are a separate
// concern evaluated on top of this.
func transitionReachable(from, to models.ApplicationStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if lateralStatuses[to] {
		return true
	}
	fromIdx, toIdx := statusIndex(from), statusIndex(to)
	if toIdx == -1 {
		return false
	}
	if fromIdx == -1 {
		// climbing back out of incomplete re-enters the chain anywhere
		return from == models.StatusIncomplete
	}
	return toIdx == fromIdx+1
}

// EvaluateTransitionGuard runs the guard predicate for the requested
// target against the current derived fields. Targets without a guard
// are allowed once reachable.
func EvaluateTransitionGuard(to models.ApplicationStatus, metrics *models.ComputedMetrics) bool {
	switch to {
	case models.StatusInReview:
		return metrics.DocumentCompletionPercentage != nil && *metrics.DocumentCompletionPercentage >= 75
	case models.StatusUnderwriting:
		qm := metrics.QMCompliant != nil && *metrics.QMCompliant
		riskOk := metrics.RiskCategory != nil && *metrics.RiskCategory != models.RiskCategoryHigh
		return qm && riskOk
	case models.StatusApproved:
		scoreOk := metrics.CalculatedRiskScore != nil && *metrics.CalculatedRiskScore >= 60
		fraudOk := metrics.FraudRiskLevel == nil || *metrics.FraudRiskLevel != models.FraudRiskLevelHigh
		return scoreOk && fraudOk
	}
	return true
}

// RequestTransition evaluates the requested transition at call time and
// persists the outcome either way. A refusal is an expected result, not
// an error: the status stays put and the history row records the reason.
func RequestTransition(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, app *models.Application, to models.ApplicationStatus, actorId int, actorName string) (applied bool, err error) {
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "StatusTransition.go", "RequestTransition", "GetOrCreateMetrics", app.ID, err)
		return false, err
	}

	allowed := transitionReachable(app.Status, to) && EvaluateTransitionGuard(to, metrics)
	reason := TransitionReasonRefused
	if allowed {
		reason = TransitionReasonAllowed
	}
	if err := app.ChangeStatus(tx, to, reason, actorId, actorName); err != nil {
		config.LogError(logger, "StatusTransition.go", "RequestTransition", "ChangeStatus", app.ID, err)
		return false, err
	}
	return allowed, nil
}

// RequestTransitionById wraps RequestTransition for callers holding only
// the application id (routes, workflow handlers).
func RequestTransitionById(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, applicationId int, to models.ApplicationStatus, actorId int, actorName string) (bool, error) {
	app, err := models.GetApplication(ctx, applicationId)
	if err != nil {
		config.LogError(logger, "StatusTransition.go", "RequestTransitionById", "GetApplication", applicationId, err)
		return false, utils.ErrorRecordNotFound
	}
	return RequestTransition(ctx, tx, logger, app, to, actorId, actorName)
}
