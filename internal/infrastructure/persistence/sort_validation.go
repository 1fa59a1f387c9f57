package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
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

// InputSortFields contains allowed sort fields for inputs
var InputSortFields = map[string]bool{
	"created_at":        true,
	"updated_at":        true,
	"expires_at":        true,
	"lot":               true,
	"escalarilla":       true,
	"quantity_received": true,
	"quantity_taken":    true,
	"total":             true,
	"status":            true,
}

// OutputSortFields contains allowed sort fields for outputs
var OutputSortFields = map[string]bool{
	"created_at":      true,
	"output_date":     true,
	"quantity_output": true,
}

// ProductionBatchSortFields contains allowed sort fields for production batches
var ProductionBatchSortFields = map[string]bool{
	"created_at":    true,
	"opu_date":      true,
	"transfer_date": true,
	"farm":          true,
}
