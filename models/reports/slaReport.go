package reports

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/lendfocus/mortgage_backend/workflow"
)

// GetSLAReport lists every open application that needs operator
// attention: overdue first, then longest-waiting. On-track
// applications are omitted.
func GetSLAReport(ctx context.Context) ([]workflow.SLAEntry, error) {
	db := config.GetDB()

	var applications []*models.Application
	err := db.WithContext(ctx).
		Where("status NOT IN ?", []models.ApplicationStatus{
			models.StatusClosed,
			models.StatusDenied,
			models.StatusWithdrawn,
		}).
		Order("id").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}

	return workflow.BuildSLAEntries(ctx, applications, time.Now().UTC()), nil
}
