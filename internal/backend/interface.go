package backend

import (
	"context"

	"daromad/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the ledger writer and an optional cleanup function
type Result struct {
	Writer  sheets.LedgerWriter
	Cleanup CleanupFunc
}

// Factory creates the ledger mirror sink from configuration
type Factory interface {
	CreateLedgerWriter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for sink creation
type Config struct {
	Type SinkType

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// SinkType represents where mirrored ledger rows go
type SinkType string

const (
	SheetsSink SinkType = "sheets"
	MemorySink SinkType = "memory"
)

// String implements fmt.Stringer
func (st SinkType) String() string {
	return string(st)
}

// IsValid returns true if the sink type is valid
func (st SinkType) IsValid() bool {
	switch st {
	case SheetsSink, MemorySink:
		return true
	default:
		return false
	}
}
