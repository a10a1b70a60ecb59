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

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"po_number":       true,
	"po_number_base":  true,
	"revision_number": true,
	"project_code":    true,
	"amount":          true,
	"amount_myr":      true,
	"currency":        true,
	"status":          true,
	"received_date":   true,
	"due_date":        true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":                    true,
	"created_at":            true,
	"updated_at":            true,
	"invoice_number":        true,
	"project_code":          true,
	"amount":                true,
	"amount_myr":            true,
	"currency":              true,
	"status":                true,
	"invoice_date":          true,
	"due_date":              true,
	"invoice_sequence":      true,
	"percentage_of_total":   true,
	"cumulative_percentage": true,
	"sent_at":               true,
	"paid_at":               true,
}

// ProjectSortFields contains allowed sort fields for projects
var ProjectSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"project_code": true,
	"name":         true,
	"client_name":  true,
	"status":       true,
	"activated_at": true,
	"completed_at": true,
}

// ExchangeRateSortFields contains allowed sort fields for exchange rates
var ExchangeRateSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"from_currency":  true,
	"to_currency":    true,
	"rate":           true,
	"effective_date": true,
	"source":         true,
}

// ActivityLogSortFields contains allowed sort fields for activity logs
var ActivityLogSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"entity_type": true,
	"entity_id":   true,
	"action":      true,
	"actor_id":    true,
}
