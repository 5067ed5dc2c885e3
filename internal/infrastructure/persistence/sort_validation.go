package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// SalesRecordSortFields contains allowed sort fields for sales records
var SalesRecordSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"sequence_number": true,
	"client_id":       true,
	"status":          true,
	"total":           true,
	"invoice_date":    true,
	"paid_at":         true,
}

// TransactionSortFields contains allowed sort fields for ledger entries
var TransactionSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
	"amount":     true,
	"type":       true,
	"category":   true,
	"status":     true,
}
