package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a sort direction to ASC or DESC.
// Anything other than a case-insensitive "asc" yields DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField maps a client-facing sort key to its column through the
// whitelist. Unknown or empty keys yield defaultColumn, so the result is
// always safe to interpolate into ORDER BY.
func ValidateSortField(sortField string, allowed map[string]string, defaultColumn string) string {
	if column, ok := allowed[strings.TrimSpace(sortField)]; ok {
		return column
	}
	return defaultColumn
}

// IntegrationSortFields maps list sort keys to integrations columns
var IntegrationSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"type":      "type",
	"status":    "status",
	"lastSync":  "last_sync",
}
