package workflow

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var baseDocumentSets = map[models.ProgramType][]models.DocumentType{
	models.ProgramTypeFHA: {
		models.DocumentTypePayStub,
		models.DocumentTypeW2,
		models.DocumentTypeTaxReturn,
		models.DocumentTypeBankStatement,
		models.DocumentTypeEmploymentVerification,
	},
	models.ProgramTypeVA: {
		models.DocumentTypePayStub,
		models.DocumentTypeW2,
		models.DocumentTypeTaxReturn,
		models.DocumentTypeBankStatement,
		models.DocumentTypeEmploymentVerification,
		models.DocumentTypeCertificateOfEligibility,
	},
	models.ProgramTypeConventional: {
		models.DocumentTypePayStub,
		models.DocumentTypeW2,
		models.DocumentTypeTaxReturn,
		models.DocumentTypeBankStatement,
	},
}

var defaultDocumentSet = []models.DocumentType{
	models.DocumentTypePayStub,
	models.DocumentTypeW2,
	models.DocumentTypeTaxReturn,
	models.DocumentTypeBankStatement,
}

// RequiredDocuments is the base set for the loan program unioned with the
// additive rules for self-employed borrowers and refinance purposes.
// The result is sorted so repeated resolution is order-stable.
func RequiredDocuments(programType models.ProgramType, purpose models.LoanPurpose, selfEmployed bool) []models.DocumentType {
	base, ok := baseDocumentSets[programType]
	if !ok {
		base = defaultDocumentSet
	}

	required := make(map[models.DocumentType]bool, len(base)+4)
	for _, docType := range base {
		required[docType] = true
	}
	if selfEmployed {
		required[models.DocumentTypeProfitLossStatement] = true
		required[models.DocumentTypeBusinessLicense] = true
	}
	if purpose.IsRefinance() {
		required[models.DocumentTypePropertyAppraisal] = true
		required[models.DocumentTypeCurrentMortgageStatement] = true
	}

	out := make([]models.DocumentType, 0, len(required))
	for docType := range required {
		out = append(out, docType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type DocResolution struct {
	Required   []models.DocumentType
	Received   []models.DocumentType
	Missing    []models.DocumentType
	Percentage int
	Status     models.DocCompletionStatus
}

// ResolveDocuments expires stale documents, then measures completion as
// distinct received required types over the required count. Rerunning
// with unchanged documents yields the same result.
func ResolveDocuments(ctx context.Context, tx *gorm.DB, app *models.Application, documents []*models.Document, now time.Time) (*DocResolution, error) {
	selfEmployed := false
	borrower, err := models.GetPrimaryApplicant(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	employer, err := models.GetEmployer(ctx, borrower.ID)
	if err != nil {
		return nil, err
	}
	if employer != nil && employer.CompanyType == models.CompanyTypeSelfEmployed {
		selfEmployed = true
	}

	program, err := models.GetLoanProgram(ctx, app.LoanProgramId)
	programType := models.ProgramType("")
	if err == nil && program != nil {
		programType = program.ProgramType
	}
	required := RequiredDocuments(programType, app.LoanPurpose, selfEmployed)

	if err := models.ExpireStaleDocuments(tx, documents, now); err != nil {
		return nil, err
	}
	return MeasureCompletion(required, documents, now), nil
}

// MeasureCompletion counts distinct received, non-stale required types
// against the required set. Percentage is 100 exactly when the missing
// list is empty.
func MeasureCompletion(required []models.DocumentType, documents []*models.Document, now time.Time) *DocResolution {
	receivedTypes := make(map[models.DocumentType]bool)
	for _, doc := range documents {
		if doc.VerificationStatus.CountsAsReceived() && !doc.IsStale(now) {
			receivedTypes[doc.DocumentType] = true
		}
	}

	resolution := &DocResolution{Required: required}
	for _, docType := range required {
		if receivedTypes[docType] {
			resolution.Received = append(resolution.Received, docType)
		} else {
			resolution.Missing = append(resolution.Missing, docType)
		}
	}

	if len(required) > 0 {
		resolution.Percentage = int(math.Round(100 * float64(len(resolution.Received)) / float64(len(required))))
	}
	switch {
	case len(resolution.Missing) == 0:
		resolution.Percentage = 100
		resolution.Status = models.DocCompletionComplete
	case len(resolution.Received) == 0:
		resolution.Status = models.DocCompletionNone
	default:
		resolution.Status = models.DocCompletionPartial
	}
	return resolution
}

// ProcessDocumentResolver recomputes document completion and materializes
// one REQUIRES edge per required type, flagged with receipt state.
func ProcessDocumentResolver(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := models.GetApplication(ctx, msg.ApplicationId)
	if err != nil {
		config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "GetApplication", msg.ApplicationId, err)
		return err
	}
	documents, err := models.ListApplicationDocuments(ctx, app.ID)
	if err != nil {
		config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "ListApplicationDocuments", app.ID, err)
		return err
	}

	now := time.Now().UTC()
	resolution, err := ResolveDocuments(ctx, tx, app, documents, now)
	if err != nil {
		config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "ResolveDocuments", app.ID, err)
		return err
	}

	receivedSet := make(map[models.DocumentType]bool, len(resolution.Received))
	for _, docType := range resolution.Received {
		receivedSet[docType] = true
	}
	for _, docType := range resolution.Required {
		err := models.UpsertLink(tx, models.EntityTypeApplication, app.ID, models.RelationshipRequires,
			models.EntityTypeDocument, documentTypeKey(docType), map[string]interface{}{
				"document_type": string(docType),
				"received":      receivedSet[docType],
			})
		if err != nil {
			config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "UpsertLink", string(docType), err)
			return err
		}
	}

	metrics, err := models.GetOrCreateMetrics(tx, app.ID)
	if err != nil {
		config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "GetOrCreateMetrics", app.ID, err)
		return err
	}
	metrics.DocumentCompletionPercentage = &resolution.Percentage
	metrics.DocumentCompletionStatus = &resolution.Status
	metrics.DocumentsComputedAt = &now
	if err := models.SaveMetrics(tx, metrics); err != nil {
		config.LogError(logger, "DocumentResolver.go", "ProcessDocumentResolver", "SaveMetrics", app.ID, err)
		return err
	}
	return nil
}

// documentTypeKey gives each document type a stable id for requirement
// edges, which target a type rather than a concrete document row.
func documentTypeKey(docType models.DocumentType) int {
	order := []models.DocumentType{
		models.DocumentTypePayStub,
		models.DocumentTypeW2,
		models.DocumentTypeTaxReturn,
		models.DocumentTypeBankStatement,
		models.DocumentTypeEmploymentVerification,
		models.DocumentTypeCertificateOfEligibility,
		models.DocumentTypeProfitLossStatement,
		models.DocumentTypeBusinessLicense,
		models.DocumentTypePropertyAppraisal,
		models.DocumentTypeCurrentMortgageStatement,
		models.DocumentTypeTitleCommitment,
		models.DocumentTypeInsuranceProof,
		models.DocumentTypeGiftLetter,
		models.DocumentTypePhotoId,
	}
	for i, t := range order {
		if t == docType {
			return i + 1
		}
	}
	return 0
}
