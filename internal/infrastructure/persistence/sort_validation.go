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

// SettlementSortFields contains allowed sort columns for settlement history
var SettlementSortFields = map[string]bool{
	"requested_at": true,
	"period_start": true,
	"amount":       true,
	"status":       true,
	"processed_at": true,
}

// settlementOrder builds a safe ORDER BY clause. The id tiebreak keeps pages stable.
func settlementOrder(orderBy, orderDir string) string {
	field := ValidateSortField(orderBy, SettlementSortFields, "requested_at")
	dir := ValidateSortOrder(orderDir)
	return field + " " + dir + ", id " + dir
}
