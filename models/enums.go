package models

import (
	"errors"
)

type PersonType string

const (
	PersonTypeBorrower        PersonType = "borrower"
	PersonTypeCoBorrower      PersonType = "co_borrower"
	PersonTypeGuarantor       PersonType = "guarantor"
	PersonTypeProspect        PersonType = "prospect"
	PersonTypeRealEstateAgent PersonType = "real_estate_agent"
	PersonTypeLoanOfficer     PersonType = "loan_officer"
	PersonTypeAppraiser       PersonType = "appraiser"
)

func ParsePersonType(s string) (PersonType, error) {
	personTypes := map[string]PersonType{
		"borrower":          PersonTypeBorrower,
		"co_borrower":       PersonTypeCoBorrower,
		"guarantor":         PersonTypeGuarantor,
		"prospect":          PersonTypeProspect,
		"real_estate_agent": PersonTypeRealEstateAgent,
		"loan_officer":      PersonTypeLoanOfficer,
		"appraiser":         PersonTypeAppraiser,
	}
	t, ok := personTypes[s]
	if !ok {
		return "", errors.New("invalid person type")
	}
	return t, nil
}

type ApplicationStatus string

const (
	StatusReceived            ApplicationStatus = "received"
	StatusInReview            ApplicationStatus = "in_review"
	StatusUnderwriting        ApplicationStatus = "underwriting"
	StatusConditionalApproval ApplicationStatus = "conditional_approval"
	StatusClearToClose        ApplicationStatus = "clear_to_close"
	StatusClosingScheduled    ApplicationStatus = "closing_scheduled"
	StatusClosed              ApplicationStatus = "closed"
	StatusIncomplete          ApplicationStatus = "incomplete"
	StatusApproved            ApplicationStatus = "approved"
	StatusDenied              ApplicationStatus = "denied"
	StatusWithdrawn           ApplicationStatus = "withdrawn"
)

// IsTerminal reports whether derived fields are frozen for this status.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusClosed, StatusWithdrawn:
		return true
	}
	return false
}

type LoanPurpose string

const (
	LoanPurposePurchase  LoanPurpose = "purchase"
	LoanPurposeRefinance LoanPurpose = "refinance"
	LoanPurposeCashOut   LoanPurpose = "cash_out_refinance"
	LoanPurposeHomeEquity LoanPurpose = "home_equity"
)

func ParseLoanPurpose(s string) (LoanPurpose, error) {
	loanPurposes := map[string]LoanPurpose{
		"purchase":           LoanPurposePurchase,
		"refinance":          LoanPurposeRefinance,
		"cash_out_refinance": LoanPurposeCashOut,
		"home_equity":        LoanPurposeHomeEquity,
	}
	p, ok := loanPurposes[s]
	if !ok {
		return "", errors.New("invalid loan purpose")
	}
	return p, nil
}

// IsRefinance covers every purpose that needs refinance documents.
func (p LoanPurpose) IsRefinance() bool {
	return p == LoanPurposeRefinance || p == LoanPurposeCashOut
}

type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "single_family"
	PropertyTypeCondo        PropertyType = "condo"
	PropertyTypeTownhouse    PropertyType = "townhouse"
	PropertyTypeMultiFamily  PropertyType = "multi_family"
	PropertyTypeManufactured PropertyType = "manufactured"
)

type OccupancyType string

const (
	OccupancyTypePrimary    OccupancyType = "primary_residence"
	OccupancyTypeSecondary  OccupancyType = "second_home"
	OccupancyTypeInvestment OccupancyType = "investment"
)

type CompanyType string

const (
	CompanyTypeEmployer     CompanyType = "employer"
	CompanyTypeSelfEmployed CompanyType = "self_employed"
	CompanyTypeLender       CompanyType = "lender"
	CompanyTypeTitleCompany CompanyType = "title_company"
)

type ProgramType string

const (
	ProgramTypeFHA          ProgramType = "FHA"
	ProgramTypeVA           ProgramType = "VA"
	ProgramTypeConventional ProgramType = "Conventional"
	ProgramTypeUSDA         ProgramType = "USDA"
	ProgramTypeJumbo        ProgramType = "Jumbo"
)

type DocumentType string

const (
	DocumentTypePayStub                  DocumentType = "pay_stub"
	DocumentTypeW2                       DocumentType = "w2"
	DocumentTypeTaxReturn                DocumentType = "tax_return"
	DocumentTypeBankStatement            DocumentType = "bank_statement"
	DocumentTypeEmploymentVerification   DocumentType = "employment_verification"
	DocumentTypeCertificateOfEligibility DocumentType = "certificate_of_eligibility"
	DocumentTypeProfitLossStatement      DocumentType = "profit_loss_statement"
	DocumentTypeBusinessLicense          DocumentType = "business_license"
	DocumentTypePropertyAppraisal        DocumentType = "property_appraisal"
	DocumentTypeCurrentMortgageStatement DocumentType = "current_mortgage_statement"
	DocumentTypeTitleCommitment          DocumentType = "title_commitment"
	DocumentTypeInsuranceProof           DocumentType = "insurance_proof"
	DocumentTypeGiftLetter               DocumentType = "gift_letter"
	DocumentTypePhotoId                  DocumentType = "photo_id"
)

type VerificationStatus string

const (
	VerificationStatusReceived        VerificationStatus = "received"
	VerificationStatusPendingReview   VerificationStatus = "pending_review"
	VerificationStatusVerified        VerificationStatus = "verified"
	VerificationStatusRejected        VerificationStatus = "rejected"
	VerificationStatusExpired         VerificationStatus = "expired"
	VerificationStatusIncompletePages VerificationStatus = "incomplete_pages"
)

// CountsAsReceived reports whether the document counts toward completion.
func (s VerificationStatus) CountsAsReceived() bool {
	switch s {
	case VerificationStatusReceived, VerificationStatusPendingReview, VerificationStatusVerified:
		return true
	}
	return false
}

type RiskCategory string

const (
	RiskCategoryLow    RiskCategory = "LowRisk"
	RiskCategoryMedium RiskCategory = "MediumRisk"
	RiskCategoryHigh   RiskCategory = "HighRisk"
)

type RiskRecommendation string

const (
	RiskRecommendationAutoApprove   RiskRecommendation = "auto_approve"
	RiskRecommendationManualReview  RiskRecommendation = "manual_review"
	RiskRecommendationLikelyDecline RiskRecommendation = "likely_decline"
)

type FraudRiskLevel string

const (
	FraudRiskLevelLow    FraudRiskLevel = "low"
	FraudRiskLevelMedium FraudRiskLevel = "medium"
	FraudRiskLevelHigh   FraudRiskLevel = "high"
)

type FraudRecommendation string

const (
	FraudRecommendationClear                  FraudRecommendation = "clear"
	FraudRecommendationAdditionalVerification FraudRecommendation = "additional_verification_required"
	FraudRecommendationManualReview           FraudRecommendation = "requires_manual_review"
)

type DTICategory string

const (
	DTICategoryExcellent  DTICategory = "excellent"
	DTICategoryGood       DTICategory = "good"
	DTICategoryAcceptable DTICategory = "acceptable"
	DTICategoryHighRisk   DTICategory = "high_risk"
)

type LTVCategory = DTICategory

type ValuationConfidence string

const (
	ValuationConfidenceHigh   ValuationConfidence = "high"
	ValuationConfidenceMedium ValuationConfidence = "medium"
	ValuationConfidenceLow    ValuationConfidence = "low"
)

type DocCompletionStatus string

const (
	DocCompletionComplete DocCompletionStatus = "complete"
	DocCompletionPartial  DocCompletionStatus = "partial"
	DocCompletionNone     DocCompletionStatus = "none"
)

type FairLendingAssessment string

const (
	FairLendingNormalPattern      FairLendingAssessment = "normal_pattern"
	FairLendingReviewRecommended  FairLendingAssessment = "review_recommended"
	FairLendingPotentialDisparity FairLendingAssessment = "potential_disparity"
	FairLendingInsufficientData   FairLendingAssessment = "insufficient_data"
)

type SLAUrgency string

const (
	SLAUrgencyOverdue     SLAUrgency = "overdue"
	SLAUrgencyApproaching SLAUrgency = "approaching_sla"
	SLAUrgencyOnTrack     SLAUrgency = "on_track"
)

type RuleType string

const (
	RuleTypeCreditBand         RuleType = "credit_band"
	RuleTypeDTIBand            RuleType = "dti_band"
	RuleTypeLTVBand            RuleType = "ltv_band"
	RuleTypeDownPaymentBand    RuleType = "down_payment_band"
	RuleTypeAddressYearsBand   RuleType = "address_years_band"
	RuleTypeMedianIncomeBand   RuleType = "median_income_band"
	RuleTypeSLABudget          RuleType = "sla_budget"
	RuleTypeQMLimit            RuleType = "qm_limit"
	RuleTypeStateUsury         RuleType = "state_usury"
	RuleTypeStateLicensing     RuleType = "state_licensing"
	RuleTypeStateDisclosure    RuleType = "state_disclosure"
	RuleTypeDocumentMatrix     RuleType = "document_matrix"
	RuleTypeProgramEligibility RuleType = "program_eligibility"
	RuleTypeBaseRate           RuleType = "base_rate"
	RuleTypeRateAdjustment     RuleType = "rate_adjustment"
)

type ConditionType string

const (
	ConditionTypeDocumentCompletion  ConditionType = "document_completion"
	ConditionTypePropertyAppraisal   ConditionType = "property_appraisal"
	ConditionTypeEmploymentVerified  ConditionType = "employment_verification"
	ConditionTypeTitleCommitment     ConditionType = "title_commitment"
	ConditionTypeInsuranceProof      ConditionType = "insurance_proof"
	ConditionTypeDownPaymentSource   ConditionType = "down_payment_source"
)

type ConditionStatus string

const (
	ConditionStatusOpen      ConditionStatus = "open"
	ConditionStatusSatisfied ConditionStatus = "satisfied"
	ConditionStatusWaived    ConditionStatus = "waived"
)

type RelationshipType string

const (
	RelationshipAppliesFor    RelationshipType = "APPLIES_FOR"
	RelationshipWorksAt       RelationshipType = "WORKS_AT"
	RelationshipLocatedIn     RelationshipType = "LOCATED_IN"
	RelationshipHasProperty   RelationshipType = "HAS_PROPERTY"
	RelationshipRequires      RelationshipType = "REQUIRES"
	RelationshipEligibleFor   RelationshipType = "ELIGIBLE_FOR"
	RelationshipSubjectTo     RelationshipType = "SUBJECT_TO"
	RelationshipMeetsCriteria RelationshipType = "MEETS_CRITERIA"
	RelationshipCoSigns       RelationshipType = "CO_SIGNS"
	RelationshipVerifies      RelationshipType = "VERIFIES"
)

type TraverseDirection string

const (
	DirectionOutgoing TraverseDirection = "outgoing"
	DirectionIncoming TraverseDirection = "incoming"
)

type EntityType string

const (
	EntityTypePerson       EntityType = "Person"
	EntityTypeApplication  EntityType = "Application"
	EntityTypeProperty     EntityType = "Property"
	EntityTypeDocument     EntityType = "Document"
	EntityTypeCompany      EntityType = "Company"
	EntityTypeLocation     EntityType = "Location"
	EntityTypeLoanProgram  EntityType = "LoanProgram"
	EntityTypeBusinessRule EntityType = "BusinessRule"
)

type PubSubMessageAction string

const (
	PubSubMessageActionCreate PubSubMessageAction = "C"
	PubSubMessageActionUpdate PubSubMessageAction = "U"
	PubSubMessageActionDelete PubSubMessageAction = "D"
)

type PipelineTrigger string

const (
	PipelineTriggerIntake         PipelineTrigger = "intake"
	PipelineTriggerDocumentChange PipelineTrigger = "document_change"
	PipelineTriggerAttributeEdit  PipelineTrigger = "attribute_edit"
	PipelineTriggerManual         PipelineTrigger = "manual"
)

type OutboxPublishStatus = string

const (
	OutboxPublishStatusPending    OutboxPublishStatus = "PENDING"
	OutboxPublishStatusProcessing OutboxPublishStatus = "PROCESSING"
	OutboxPublishStatusSent       OutboxPublishStatus = "SENT"
	OutboxPublishStatusFailed     OutboxPublishStatus = "FAILED"
	OutboxPublishStatusDead       OutboxPublishStatus = "DEAD"
)

type ProgramQualification string

const (
	ProgramHighlyQualified         ProgramQualification = "HighlyQualified"
	ProgramQualified               ProgramQualification = "Qualified"
	ProgramQualifiedWithConditions ProgramQualification = "QualifiedWithConditions"
	ProgramNotQualified            ProgramQualification = "NotQualified"
)
