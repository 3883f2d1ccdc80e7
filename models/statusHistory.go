package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
)

// StatusHistory records every transition attempt, refused ones included.
type StatusHistory struct {
	ID             int               `gorm:"primary_key" json:"id"`
	ApplicationId  int               `gorm:"index;not null" json:"application_id"`
	FromStatus     ApplicationStatus `gorm:"size:30;not null" json:"from_status"`
	ToStatus       ApplicationStatus `gorm:"size:30;not null" json:"to_status"`
	Applied        bool              `gorm:"not null" json:"applied"`
	Reason         string            `gorm:"size:100;not null" json:"reason"`
	ActorId        int               `gorm:"index" json:"actor_id"`
	ActorName      string            `gorm:"size:100" json:"actor_name"`
	TransitionedAt time.Time         `gorm:"index;not null" json:"transitioned_at"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "status_histories"
}

func ListStatusHistory(ctx context.Context, applicationId int) ([]*StatusHistory, error) {
	db := config.GetDB()
	var rows []*StatusHistory
	err := db.WithContext(ctx).
		Where("application_id = ?", applicationId).
		Order("transitioned_at").
		Find(&rows).Error
	return rows, err
}
