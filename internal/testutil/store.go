package testutil

import (
	"testing"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.MemoryPath)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Record returns an authored record with a subject and body long enough to
// pass strict validation.
func Record(number int, title string) model.EmailRecord {
	body := "<html><body><p>"
	for i := 0; i < 60; i++ {
		body += "word "
	}
	body += "</p></body></html>"
	return model.EmailRecord{
		Number:  number,
		Title:   title,
		Subject: title + " weekly update",
		Body:    body,
		Status:  model.StatusActive,
	}
}
