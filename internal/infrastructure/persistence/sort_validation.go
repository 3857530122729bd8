package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "ASC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "DESC" {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is invalid, empty, or not in
// the whitelist. Sort fields end up interpolated into ORDER BY, so nothing
// outside the whitelist may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// SnapshotSortFields contains allowed sort fields for the balance listing
var SnapshotSortFields = map[string]bool{
	"project_number":   true,
	"project_code":     true,
	"project_name":     true,
	"customer":         true,
	"group_name":       true,
	"total_credit":     true,
	"total_debit":      true,
	"available_amount": true,
	"net_balance":      true,
	"balance_slnko":    true,
	"balance_payable":  true,
	"balance_required": true,
	"recomputed_at":    true,
	"created_at":       true,
	"updated_at":       true,
}

// PayRequestSortFields contains allowed sort fields for payment request lists
var PayRequestSortFields = map[string]bool{
	"project_number": true,
	"vendor":         true,
	"stage":          true,
	"approved":       true,
	"requested_on":   true,
	"created_at":     true,
	"updated_at":     true,
}
