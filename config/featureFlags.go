package config

import (
	"os"
	"strings"
)

// StateRulesFailOpen restores the legacy evaluator behavior where a state rule
// with an unknown rule_type counts as passed. Default is fail-closed: unknown
// rule types mark the application state-noncompliant until triaged.
//
// Set via env:
// - STATE_RULES_FAIL_OPEN=true
func StateRulesFailOpen() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STATE_RULES_FAIL_OPEN")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictMetricsImmutability refuses metric writes against applications in a
// terminal status (approved, denied, closed, withdrawn); corrections must go
// through a supervised path instead of a pipeline re-run.
//
// Set via env:
// - STRICT_METRICS_IMMUTABLE=false (defaults to enabled)
func StrictMetricsImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_METRICS_IMMUTABLE")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SkipDocumentStorageCheck disables the GCS existence probe on document attach.
// Meant for local development without cloud credentials.
//
// Set via env:
// - SKIP_DOCUMENT_STORAGE_CHECK=true
func SkipDocumentStorageCheck() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SKIP_DOCUMENT_STORAGE_CHECK")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
