package backend

import (
	"context"

	"saldo/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SourceResult contains the created source and optional extras. Writer is
// nil for read-only backends; Cleanup is nil when nothing needs closing.
type SourceResult struct {
	Source  source.TransactionSource
	Writer  source.TransactionWriter
	Cleanup CleanupFunc
}

// Factory creates transaction sources based on configuration
type Factory interface {
	// CreateSource creates a source instance based on the provided config
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}

// Config holds configuration for source creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// REST specific
	SourceURL string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of transaction source backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RESTBackend   BackendType = "rest"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RESTBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
