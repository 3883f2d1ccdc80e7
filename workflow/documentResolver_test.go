package workflow

import (
	"sort"
	"testing"
	"time"

	"github.com/lendfocus/mortgage_backend/models"
)

func containsDocType(docs []models.DocumentType, want models.DocumentType) bool {
	for _, d := range docs {
		if d == want {
			return true
		}
	}
	return false
}

func TestRequiredDocuments_BaseSets(t *testing.T) {
	cases := []struct {
		programType models.ProgramType
		count       int
		mustInclude models.DocumentType
	}{
		{models.ProgramTypeConventional, 4, models.DocumentTypeBankStatement},
		{models.ProgramTypeFHA, 5, models.DocumentTypeEmploymentVerification},
		{models.ProgramTypeVA, 6, models.DocumentTypeCertificateOfEligibility},
		{models.ProgramType(""), 4, models.DocumentTypePayStub}, // unknown program uses the default set
	}
	for _, tc := range cases {
		docs := RequiredDocuments(tc.programType, models.LoanPurposePurchase, false)
		if len(docs) != tc.count {
			t.Fatalf("RequiredDocuments(%s) expected %d documents, got %d", tc.programType, tc.count, len(docs))
		}
		if !containsDocType(docs, tc.mustInclude) {
			t.Fatalf("RequiredDocuments(%s) expected %s in the set", tc.programType, tc.mustInclude)
		}
	}
}

func TestRequiredDocuments_AdditiveRules(t *testing.T) {
	docs := RequiredDocuments(models.ProgramTypeConventional, models.LoanPurposePurchase, true)
	if len(docs) != 6 {
		t.Fatalf("RequiredDocuments self-employed expected 6 documents, got %d", len(docs))
	}
	if !containsDocType(docs, models.DocumentTypeProfitLossStatement) ||
		!containsDocType(docs, models.DocumentTypeBusinessLicense) {
		t.Fatalf("RequiredDocuments self-employed expected profit/loss and business license")
	}

	for _, purpose := range []models.LoanPurpose{models.LoanPurposeRefinance, models.LoanPurposeCashOut} {
		docs := RequiredDocuments(models.ProgramTypeConventional, purpose, false)
		if len(docs) != 6 {
			t.Fatalf("RequiredDocuments(%s) expected 6 documents, got %d", purpose, len(docs))
		}
		if !containsDocType(docs, models.DocumentTypePropertyAppraisal) ||
			!containsDocType(docs, models.DocumentTypeCurrentMortgageStatement) {
			t.Fatalf("RequiredDocuments(%s) expected refinance documents in the set", purpose)
		}
	}

	docs = RequiredDocuments(models.ProgramTypeConventional, models.LoanPurposeCashOut, true)
	if len(docs) != 8 {
		t.Fatalf("RequiredDocuments self-employed cash-out expected 8 documents, got %d", len(docs))
	}
}

func TestRequiredDocuments_StableOrder(t *testing.T) {
	first := RequiredDocuments(models.ProgramTypeVA, models.LoanPurposeRefinance, true)
	second := RequiredDocuments(models.ProgramTypeVA, models.LoanPurposeRefinance, true)
	if len(first) != len(second) {
		t.Fatalf("RequiredDocuments repeat lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("RequiredDocuments order unstable at %d: %s vs %s", i, first[i], second[i])
		}
	}
	if !sort.SliceIsSorted(first, func(i, j int) bool { return first[i] < first[j] }) {
		t.Fatalf("RequiredDocuments expected sorted output, got %v", first)
	}
}

func filedDoc(docType models.DocumentType, status models.VerificationStatus, receivedAt time.Time) *models.Document {
	return &models.Document{DocumentType: docType, VerificationStatus: status, ReceivedDate: receivedAt}
}

func TestMeasureCompletion_PartialFHA(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	required := RequiredDocuments(models.ProgramTypeFHA, models.LoanPurposePurchase, false)

	documents := []*models.Document{
		filedDoc(models.DocumentTypePayStub, models.VerificationStatusVerified, now.AddDate(0, 0, -1)),
		filedDoc(models.DocumentTypeW2, models.VerificationStatusReceived, now.AddDate(0, 0, -5)),
		filedDoc(models.DocumentTypeTaxReturn, models.VerificationStatusPendingReview, now.AddDate(0, 0, -3)),
	}
	resolution := MeasureCompletion(required, documents, now)

	if resolution.Percentage != 60 {
		t.Fatalf("MeasureCompletion expected 60%%, got %d", resolution.Percentage)
	}
	if resolution.Status != models.DocCompletionPartial {
		t.Fatalf("MeasureCompletion status expected partial, got %s", resolution.Status)
	}
	wantMissing := []models.DocumentType{models.DocumentTypeBankStatement, models.DocumentTypeEmploymentVerification}
	if len(resolution.Missing) != len(wantMissing) {
		t.Fatalf("MeasureCompletion expected %d missing, got %v", len(wantMissing), resolution.Missing)
	}
	for i, docType := range wantMissing {
		if resolution.Missing[i] != docType {
			t.Fatalf("MeasureCompletion missing[%d] expected %s, got %s", i, docType, resolution.Missing[i])
		}
	}
}

func TestMeasureCompletion_CompleteOnlyWhenNothingMissing(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	required := RequiredDocuments(models.ProgramTypeFHA, models.LoanPurposePurchase, false)

	var documents []*models.Document
	for _, docType := range required[:len(required)-1] {
		documents = append(documents, filedDoc(docType, models.VerificationStatusVerified, now.AddDate(0, 0, -1)))
	}
	resolution := MeasureCompletion(required, documents, now)
	if resolution.Percentage != 80 || resolution.Status != models.DocCompletionPartial {
		t.Fatalf("MeasureCompletion with one missing expected 80/partial, got %d/%s", resolution.Percentage, resolution.Status)
	}

	documents = append(documents, filedDoc(required[len(required)-1], models.VerificationStatusVerified, now.AddDate(0, 0, -1)))
	resolution = MeasureCompletion(required, documents, now)
	if resolution.Percentage != 100 || resolution.Status != models.DocCompletionComplete {
		t.Fatalf("MeasureCompletion with nothing missing expected 100/complete, got %d/%s", resolution.Percentage, resolution.Status)
	}
	if len(resolution.Missing) != 0 {
		t.Fatalf("MeasureCompletion at 100%% expected empty missing list, got %v", resolution.Missing)
	}
}

func TestMeasureCompletion_StaleAndRejectedExcluded(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	required := RequiredDocuments(models.ProgramTypeConventional, models.LoanPurposePurchase, false)

	documents := []*models.Document{
		// pay stub past its 30-day freshness window
		filedDoc(models.DocumentTypePayStub, models.VerificationStatusVerified, now.AddDate(0, 0, -45)),
		filedDoc(models.DocumentTypeW2, models.VerificationStatusRejected, now.AddDate(0, 0, -1)),
		filedDoc(models.DocumentTypeTaxReturn, models.VerificationStatusVerified, now.AddDate(0, 0, -1)),
		filedDoc(models.DocumentTypeBankStatement, models.VerificationStatusReceived, now.AddDate(0, 0, -1)),
	}
	resolution := MeasureCompletion(required, documents, now)

	if resolution.Percentage != 50 || resolution.Status != models.DocCompletionPartial {
		t.Fatalf("MeasureCompletion expected 50/partial, got %d/%s", resolution.Percentage, resolution.Status)
	}
	if !containsDocType(resolution.Missing, models.DocumentTypePayStub) ||
		!containsDocType(resolution.Missing, models.DocumentTypeW2) {
		t.Fatalf("MeasureCompletion expected stale pay stub and rejected w2 missing, got %v", resolution.Missing)
	}
}

func TestMeasureCompletion_NoneAndEmptyRequired(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	required := RequiredDocuments(models.ProgramTypeConventional, models.LoanPurposePurchase, false)

	resolution := MeasureCompletion(required, nil, now)
	if resolution.Percentage != 0 || resolution.Status != models.DocCompletionNone {
		t.Fatalf("MeasureCompletion with no documents expected 0/none, got %d/%s", resolution.Percentage, resolution.Status)
	}

	resolution = MeasureCompletion(nil, nil, now)
	if resolution.Percentage != 100 || resolution.Status != models.DocCompletionComplete {
		t.Fatalf("MeasureCompletion with empty required set expected 100/complete, got %d/%s", resolution.Percentage, resolution.Status)
	}
}

func TestDocumentTypeKey_StableAndDistinct(t *testing.T) {
	types := []models.DocumentType{
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
	seen := make(map[int]models.DocumentType)
	for _, docType := range types {
		key := documentTypeKey(docType)
		if key <= 0 {
			t.Fatalf("documentTypeKey(%s) expected positive key, got %d", docType, key)
		}
		if prev, dup := seen[key]; dup {
			t.Fatalf("documentTypeKey collision between %s and %s", prev, docType)
		}
		seen[key] = docType
	}
	if documentTypeKey(models.DocumentType("carfax")) != 0 {
		t.Fatalf("documentTypeKey unknown type expected 0")
	}
}
