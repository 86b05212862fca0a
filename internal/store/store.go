package store

import (
	"context"
	"errors"

	"github.com/nhle/newsletter-manager/internal/model"
)

// Errors returned by Store implementations. Callers match them with errors.Is.
var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
	ErrLocked   = errors.New("database is in use by another process")
)

// RecordFilter controls filtering, sorting, and pagination for record queries.
type RecordFilter struct {
	Query      string           // search number, title, subject and body
	Completion model.Completion // completed, pending, or all
	Status     *model.Status    // stored status or nil (all)
	SortBy     string           // "number", "title", "subject", "status", "created_at", "updated_at"
	SortDesc   bool
	Limit      int
	Offset     int
}

// ImportSummary reports what an import did to the stored collection.
type ImportSummary struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Store defines the persistence interface for the campaign's records and
// its activity log. It hands the engine raw rows and persists the records
// the engine returns.
type Store interface {
	// === Snapshot ===

	Rows(ctx context.Context) ([]model.Row, error)

	// === Record CRUD ===

	CreateRecord(ctx context.Context, rec model.EmailRecord) error
	UpdateRecord(ctx context.Context, number int, rec model.EmailRecord) error
	SetStatus(ctx context.Context, number int, status model.Status) error
	DeleteRecords(ctx context.Context, numbers ...int) (int, error)
	GetRecord(ctx context.Context, number int) (*model.EmailRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.EmailRecord, error)
	CountRecords(ctx context.Context, filter RecordFilter) (int, error)

	// === Bulk ===

	ImportRecords(ctx context.Context, records []model.EmailRecord, overwrite bool) (ImportSummary, error)
	SaveRecords(ctx context.Context, records []model.EmailRecord) error
	ReplaceAll(ctx context.Context, records []model.EmailRecord) error

	// === Activity ===

	LogActivity(ctx context.Context, action, details string) error
	RecentActivity(ctx context.Context, limit int) ([]model.Activity, error)

	Close() error
}
