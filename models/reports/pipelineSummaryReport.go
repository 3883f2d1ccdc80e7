package reports

import (
	"context"

	"github.com/lendfocus/mortgage_backend/config"
)

type statusCountRow struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type riskCountRow struct {
	RiskCategory string `json:"risk_category"`
	Count        int    `json:"count"`
}

type PipelineSummary struct {
	TotalApplications int            `json:"total_applications"`
	ByStatus          map[string]int `json:"by_status"`
	ByRiskCategory    map[string]int `json:"by_risk_category"`
}

// GetPipelineSummary counts applications by status and by risk category.
// Read-only and lock-free: the numbers reflect whatever the pipeline has
// committed so far, which is fine for a dashboard.
func GetPipelineSummary(ctx context.Context) (*PipelineSummary, error) {
	db := config.GetDB()

	var statusRows []statusCountRow
	sql := `
SELECT status, COUNT(*) AS count
FROM applications
GROUP BY status;
`
	if err := db.WithContext(ctx).Raw(sql).Scan(&statusRows).Error; err != nil {
		return nil, err
	}

	var riskRows []riskCountRow
	sql = `
SELECT cm.risk_category, COUNT(*) AS count
FROM computed_metrics cm
WHERE cm.risk_category IS NOT NULL
GROUP BY cm.risk_category;
`
	if err := db.WithContext(ctx).Raw(sql).Scan(&riskRows).Error; err != nil {
		return nil, err
	}

	summary := &PipelineSummary{
		ByStatus:       make(map[string]int),
		ByRiskCategory: make(map[string]int),
	}
	for _, row := range statusRows {
		summary.ByStatus[row.Status] = row.Count
		summary.TotalApplications += row.Count
	}
	for _, row := range riskRows {
		summary.ByRiskCategory[row.RiskCategory] = row.Count
	}

	return summary, nil
}
