package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// Pipeline error taxonomy. Data-missing and not-found conditions surface to the
// caller of an engine; expected business outcomes (refused transitions, thin
// cohorts) are folded into result structs instead.
var (
	// ErrorMissingData: a required input attribute is absent. The engine stage is
	// blocked and the application stays in its current status.
	ErrorMissingData = errors.New("required input data is missing")

	// ErrorInsufficientComparables: no comparable property found; LTV stays unset
	// and valuation confidence is reported low.
	ErrorInsufficientComparables = errors.New("insufficient comparable properties")

	// ErrorInsufficientCohort: fair-lending cohort below the minimum size.
	ErrorInsufficientCohort = errors.New("insufficient fair lending cohort")

	// ErrorScanTimeout: a bounded graph scan exceeded its time budget.
	ErrorScanTimeout = errors.New("scan exceeded time budget")

	// ErrorScanResultCap: a bounded graph scan hit the result cap.
	ErrorScanResultCap = errors.New("scan exceeded result cap")

	// ErrorFrozenMetrics: metric write attempted against a terminal application.
	ErrorFrozenMetrics = errors.New("derived metrics are frozen for terminal applications")

	// ErrorImmutableRule: published business rules cannot be updated, only superseded.
	ErrorImmutableRule = errors.New("published business rules are immutable")
)

// MissingDataError wraps ErrorMissingData with the field that was absent.
func MissingDataError(field string) error {
	return fmt.Errorf("%w: %s", ErrorMissingData, field)
}

// RuleEvaluationError marks a malformed or unhandled BusinessRule entry. The rule
// is skipped and logged; evaluation of the remaining rules continues.
type RuleEvaluationError struct {
	RuleId   string
	RuleType string
	Reason   string
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %s (%s): %s", e.RuleId, e.RuleType, e.Reason)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
