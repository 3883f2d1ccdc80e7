package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrNotEligibleForConditionalApproval = errors.New("application not eligible for conditional approval")

// conditionDescriptions keeps operator-facing text per condition type.
var conditionDescriptions = map[models.ConditionType]string{
	models.ConditionTypeDocumentCompletion: "Outstanding required documents must be received",
	models.ConditionTypePropertyAppraisal:  "Property appraisal must be completed",
	models.ConditionTypeEmploymentVerified: "Employment must be verified",
	models.ConditionTypeTitleCommitment:    "Title commitment must be provided",
	models.ConditionTypeInsuranceProof:     "Proof of homeowners insurance must be provided",
	models.ConditionTypeDownPaymentSource:  "Down payment source must be verified",
}

// UnmetPrerequisites derives one condition type per outstanding
// prerequisite from the current document and property state.
func UnmetPrerequisites(ctx context.Context, app *models.Application, metrics *models.ComputedMetrics, property *models.Property, documents []*models.Document) []models.ConditionType {
	verified := make(map[models.DocumentType]bool)
	for _, doc := range documents {
		if doc.VerificationStatus == models.VerificationStatusVerified {
			verified[doc.DocumentType] = true
		}
	}

	var unmet []models.ConditionType
	if metrics.DocumentCompletionPercentage == nil || *metrics.DocumentCompletionPercentage < 100 {
		unmet = append(unmet, models.ConditionTypeDocumentCompletion)
	}
	if property == nil || property.AppraisedValue == nil {
		unmet = append(unmet, models.ConditionTypePropertyAppraisal)
	}
	if !verified[models.DocumentTypeEmploymentVerification] {
		unmet = append(unmet, models.ConditionTypeEmploymentVerified)
	}
	if !verified[models.DocumentTypeTitleCommitment] {
		unmet = append(unmet, models.ConditionTypeTitleCommitment)
	}
	if !verified[models.DocumentTypeInsuranceProof] {
		unmet = append(unmet, models.ConditionTypeInsuranceProof)
	}
	if !verified[models.DocumentTypeBankStatement] && !verified[models.DocumentTypeGiftLetter] {
		unmet = append(unmet, models.ConditionTypeDownPaymentSource)
	}
	return unmet
}

// GrantConditionalApproval opens a new approval round: one LoanCondition
// per unmet prerequisite, then the transition to conditional_approval.
// Eligibility requires underwriting status, a non-high risk category,
// and QM compliance.
func GrantConditionalApproval(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, applicationId int, actorId int, actorName string) ([]*models.LoanCondition, error) {
	app, err := models.GetApplication(ctx, applicationId)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "GetApplication", applicationId, err)
		return nil, err
	}
	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "GetOrCreateMetrics", app.ID, err)
		return nil, err
	}

	eligible := app.Status == models.StatusUnderwriting &&
		metrics.RiskCategory != nil && *metrics.RiskCategory != models.RiskCategoryHigh &&
		metrics.QMCompliant != nil && *metrics.QMCompliant
	if !eligible {
		return nil, ErrNotEligibleForConditionalApproval
	}

	property, err := models.GetApplicationProperty(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "GetApplicationProperty", app.ID, err)
		return nil, err
	}
	documents, err := models.ListApplicationDocuments(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "ListApplicationDocuments", app.ID, err)
		return nil, err
	}

	round, err := models.CurrentApprovalRound(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "CurrentApprovalRound", app.ID, err)
		return nil, err
	}
	round++

	var conditions []*models.LoanCondition
	for _, conditionType := range UnmetPrerequisites(ctx, app, metrics, property, documents) {
		condition := &models.LoanCondition{
			ApplicationId: app.ID,
			ApprovalRound: round,
			ConditionType: conditionType,
			Description:   conditionDescriptions[conditionType],
			Status:        models.ConditionStatusOpen,
		}
		if err := tx.Create(condition).Error; err != nil {
			config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "Create condition", string(conditionType), err)
			return nil, err
		}
		conditions = append(conditions, condition)
	}

	if err := app.ChangeStatus(tx, models.StatusConditionalApproval, TransitionReasonAllowed, actorId, actorName); err != nil {
		config.LogError(logger, "ConditionalApproval.go", "GrantConditionalApproval", "ChangeStatus", app.ID, err)
		return nil, err
	}
	return conditions, nil
}

// SatisfyCondition closes one condition and, when it was the round's
// last open one, moves the application to clear_to_close.
func SatisfyCondition(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, applicationId, conditionId int, actorId int, actorName string) error {
	now := time.Now().UTC()
	err := tx.Model(&models.LoanCondition{}).
		Where("id = ? AND application_id = ? AND status = ?", conditionId, applicationId, models.ConditionStatusOpen).
		Updates(map[string]interface{}{"status": models.ConditionStatusSatisfied, "satisfied_at": &now}).Error
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "SatisfyCondition", "Update", conditionId, err)
		return err
	}
	return closeRoundIfComplete(ctx, tx, logger, applicationId, actorId, actorName)
}

// WaiveCondition waives one condition on operator authority; waived
// conditions count as closed for the round.
func WaiveCondition(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, applicationId, conditionId int, waivedBy string, actorId int) error {
	now := time.Now().UTC()
	err := tx.Model(&models.LoanCondition{}).
		Where("id = ? AND application_id = ? AND status = ?", conditionId, applicationId, models.ConditionStatusOpen).
		Updates(map[string]interface{}{"status": models.ConditionStatusWaived, "waived_at": &now, "waived_by": waivedBy}).Error
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "WaiveCondition", "Update", conditionId, err)
		return err
	}
	return closeRoundIfComplete(ctx, tx, logger, applicationId, actorId, waivedBy)
}

func closeRoundIfComplete(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, applicationId int, actorId int, actorName string) error {
	var open int64
	err := tx.Model(&models.LoanCondition{}).
		Where("application_id = ? AND status = ?", applicationId, models.ConditionStatusOpen).
		Count(&open).Error
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "closeRoundIfComplete", "Count", applicationId, err)
		return err
	}
	if open > 0 {
		return nil
	}

	app, err := models.GetApplication(ctx, applicationId)
	if err != nil {
		config.LogError(logger, "ConditionalApproval.go", "closeRoundIfComplete", "GetApplication", applicationId, err)
		return err
	}
	if app.Status != models.StatusConditionalApproval {
		return nil
	}
	if err := app.ChangeStatus(tx, models.StatusClearToClose, TransitionReasonAllowed, actorId, actorName); err != nil {
		config.LogError(logger, "ConditionalApproval.go", "closeRoundIfComplete", "ChangeStatus", applicationId, err)
		return err
	}
	return nil
}
