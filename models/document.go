package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"gorm.io/gorm"
)

type Document struct {
	ID                 int                `gorm:"primary_key" json:"id"`
	ApplicationId      int                `gorm:"index;not null" json:"application_id"`
	DocumentType       DocumentType       `gorm:"size:40;index;not null" json:"document_type"`
	VerificationStatus VerificationStatus `gorm:"type:enum('received','pending_review','verified','rejected','expired','incomplete_pages');not null;default:'received'" json:"verification_status"`
	ReceivedDate       time.Time          `gorm:"index;not null" json:"received_date"`
	VerifiedDate       *time.Time         `json:"verified_date"`
	FileUrl            string             `gorm:"size:500" json:"file_url"`
	FileSize           int64              `json:"file_size"`
	PageCount          int                `json:"page_count"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Document) EntityType() EntityType { return EntityTypeDocument }
func (d *Document) EntityID() int          { return d.ID }

type NewDocument struct {
	ApplicationId int    `json:"application_id" binding:"required"`
	DocumentType  string `json:"document_type" binding:"required"`
	FileUrl       string `json:"file_url"`
	FileSize      int64  `json:"file_size"`
	PageCount     int    `json:"page_count"`
}

// AttachDocument records a received document and enqueues a recompute.
// The stored file must already exist in the bucket unless the check is
// disabled for local work.
func AttachDocument(ctx context.Context, input *NewDocument) (*Document, error) {
	if err := utils.ValidateResourceId[Application](ctx, input.ApplicationId); err != nil {
		return nil, err
	}
	docType := DocumentType(input.DocumentType)

	if input.FileUrl != "" && !config.SkipDocumentStorageCheck() {
		if err := utils.CheckDocumentExistInGCS(input.FileUrl); err != nil {
			return nil, err
		}
	}

	document := Document{
		ApplicationId:      input.ApplicationId,
		DocumentType:       docType,
		VerificationStatus: VerificationStatusReceived,
		ReceivedDate:       time.Now().UTC(),
		FileUrl:            input.FileUrl,
		FileSize:           input.FileSize,
		PageCount:          input.PageCount,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&document).Error; err != nil {
			return err
		}
		return PublishToPipeline(ctx, tx, input.ApplicationId, PipelineTriggerDocumentChange,
			document.ID, string(EntityTypeDocument), PubSubMessageActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// ListApplicationDocuments returns every document filed for the application.
func ListApplicationDocuments(ctx context.Context, applicationId int) ([]*Document, error) {
	return utils.FetchAllModels[Document](ctx, applicationId)
}

// documentStalenessWindows marks document types stale after their window.
var documentStalenessWindows = map[DocumentType]time.Duration{
	DocumentTypePayStub:       30 * 24 * time.Hour,
	DocumentTypeBankStatement: 60 * 24 * time.Hour,
	DocumentTypeTaxReturn:     2 * 365 * 24 * time.Hour,
}

// IsStale reports whether the document aged past its type's freshness window.
func (d *Document) IsStale(now time.Time) bool {
	window, ok := documentStalenessWindows[d.DocumentType]
	if !ok {
		return false
	}
	return now.Sub(d.ReceivedDate) > window
}

// ExpireStaleDocuments flips aged documents to expired so they stop
// counting toward completion. Runs inside the document resolver.
func ExpireStaleDocuments(tx *gorm.DB, documents []*Document, now time.Time) error {
	for _, doc := range documents {
		if doc.VerificationStatus == VerificationStatusExpired || !doc.IsStale(now) {
			continue
		}
		doc.VerificationStatus = VerificationStatusExpired
		if err := tx.Model(&Document{}).Where("id = ?", doc.ID).
			Update("verification_status", VerificationStatusExpired).Error; err != nil {
			return err
		}
	}
	return nil
}
