package workflow

import (
	"context"
	"sort"
	"time"

	"github.com/lendfocus/mortgage_backend/models"
)

var defaultSLABudgets = map[models.ApplicationStatus]int{
	models.StatusReceived:   3,
	models.StatusInReview:   7,
	models.StatusIncomplete: 14,
}

const defaultSLABudgetDays = 30

// BudgetForStatus resolves the per-status day budget, registry first.
func BudgetForStatus(ctx context.Context, status models.ApplicationStatus) int {
	if rule, err := models.GetRule(ctx, models.RuleTypeSLABudget, string(status)); err == nil && rule.LimitValue != nil {
		return int(rule.LimitValue.IntPart())
	}
	if budget, ok := defaultSLABudgets[status]; ok {
		return budget
	}
	return defaultSLABudgetDays
}

// ClassifyUrgency buckets elapsed days against the budget; the
// approaching band starts past 80% of the budget.
func ClassifyUrgency(elapsedDays, budgetDays int) models.SLAUrgency {
	if elapsedDays > budgetDays {
		return models.SLAUrgencyOverdue
	}
	if float64(elapsedDays) > 0.8*float64(budgetDays) {
		return models.SLAUrgencyApproaching
	}
	return models.SLAUrgencyOnTrack
}

type SLAEntry struct {
	ApplicationId     int                      `json:"application_id"`
	ApplicationNumber string                   `json:"application_number"`
	Status            models.ApplicationStatus `json:"status"`
	ElapsedDays       int                      `json:"elapsed_days"`
	BudgetDays        int                      `json:"budget_days"`
	Urgency           models.SLAUrgency        `json:"urgency"`
}

// BuildSLAEntries classifies every application and keeps only those
// needing operator attention, overdue first, then longest-waiting.
func BuildSLAEntries(ctx context.Context, applications []*models.Application, now time.Time) []SLAEntry {
	var entries []SLAEntry
	for _, app := range applications {
		if app.Status.IsTerminal() {
			continue
		}
		elapsed := app.ElapsedDaysInStatus(now)
		budget := BudgetForStatus(ctx, app.Status)
		urgency := ClassifyUrgency(elapsed, budget)
		if urgency == models.SLAUrgencyOnTrack {
			continue
		}
		entries = append(entries, SLAEntry{
			ApplicationId:     app.ID,
			ApplicationNumber: app.ApplicationNumber,
			Status:            app.Status,
			ElapsedDays:       elapsed,
			BudgetDays:        budget,
			Urgency:           urgency,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Urgency != entries[j].Urgency {
			return entries[i].Urgency == models.SLAUrgencyOverdue
		}
		return entries[i].ElapsedDays > entries[j].ElapsedDays
	})
	return entries
}
