package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := map[string]string{
		"":                         "DESC",
		"asc":                      "ASC",
		"  ASC ":                   "ASC",
		"desc":                     "DESC",
		"ASC; DROP TABLE sales;--": "DESC",
	}
	for in, want := range tests {
		assert.Equal(t, want, ValidateSortOrder(in), "input %q", in)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		input    string
		allowed  map[string]bool
		expected string
	}{
		{"", SalesRecordSortFields, "created_at"},
		{"total", SalesRecordSortFields, "total"},
		{" sequence_number ", SalesRecordSortFields, "sequence_number"},
		{"amount", SalesRecordSortFields, "created_at"},
		{"amount", TransactionSortFields, "amount"},
		{"date; DROP TABLE transactions;--", TransactionSortFields, "created_at"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, "created_at"), "input %q", tt.input)
	}
}
