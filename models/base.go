package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PubSubMessageRecord is the transactional outbox row: the recompute
// request is written inside the caller's DB transaction, and the outbox
// dispatcher publishes it to Pub/Sub after commit.
type PubSubMessageRecord struct {
	ID            int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	ApplicationId int                 `gorm:"index;not null" json:"application_id"`
	RequestedAt   time.Time           `gorm:"index;not null" json:"requested_at"`
	Trigger       PipelineTrigger     `gorm:"size:30;not null" json:"trigger"`
	ReferenceId   int                 `json:"reference_id"`
	ReferenceType string              `gorm:"size:30" json:"reference_type"`
	Action        PubSubMessageAction `gorm:"type:enum('C','U','D')" json:"action"`
	IsProcessed   bool                `gorm:"index;not null" json:"is_processed"`
	// publish happens after commit via the dispatcher
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	// processing metadata (consumer/worker)
	LastProcessError *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt      *time.Time `gorm:"index" json:"processed_at"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToPubSubMessage(record PubSubMessageRecord) config.PubSubMessage {
	return config.PubSubMessage{
		ID:            record.ID,
		ApplicationId: record.ApplicationId,
		RequestedAt:   record.RequestedAt,
		Trigger:       string(record.Trigger),
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		Action:        string(record.Action),
		CorrelationId: record.CorrelationId,
	}
}

// PublishToPipeline writes the outbox row inside the caller's transaction;
// it does NOT touch Pub/Sub. The dispatcher picks it up after commit.
func PublishToPipeline(ctx context.Context, tx *gorm.DB, applicationId int, trigger PipelineTrigger, refId int, refType string, msgAction PubSubMessageAction) error {
	record := PubSubMessageRecord{
		ApplicationId: applicationId,
		RequestedAt:   time.Now().UTC(),
		Trigger:       trigger,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        msgAction,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
