package config

import (
	"os"
	"strings"
)

// StrictNonNegativeStock enables fintech-grade guardrails:
// stock adjustments that would take a quantity below zero are rejected instead of clamped.
//
// Set via env:
// - STRICT_NON_NEGATIVE_STOCK=true
func StrictNonNegativeStock() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_NON_NEGATIVE_STOCK")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SkipMovementLogFor disables movement-ledger writes for specific mutation reasons.
// Used only during data backfills where the ledger is rebuilt afterwards.
//
// Set via env:
// - SKIP_MOVEMENT_LOG_REASONS="import,rebuild"
//
// Reason keys are case-insensitive.
func SkipMovementLogFor(reason string) bool {
	reason = strings.ToUpper(strings.TrimSpace(reason))
	if reason == "" {
		return false
	}
	raw := os.Getenv("SKIP_MOVEMENT_LOG_REASONS")
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, part := range strings.Split(raw, ",") {
		if strings.ToUpper(strings.TrimSpace(part)) == reason {
			return true
		}
	}
	return false
}
