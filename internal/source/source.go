package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/newsletter-manager/internal/model"
)

// AuthError indicates that authentication has failed for a source.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of external row supplier.
type SourceType string

const (
	SourceTypeMailbox SourceType = "mailbox"
)

// FetchOptions limits how much a fetch returns.
type FetchOptions struct {
	// Limit caps the number of items fetched, newest first. Zero means no cap.
	Limit int
}

// FetchResult holds the raw rows read from a source. Items that could not
// be read at all are reported in Failed and do not abort the fetch.
type FetchResult struct {
	Rows   []model.Row
	Failed []error
}

// Source supplies raw tabular rows from outside the local store, for the
// record model to normalize like any other import.
type Source interface {
	Type() SourceType
	ValidateConnection(ctx context.Context) (string, error)
	FetchRows(ctx context.Context, opts FetchOptions) (*FetchResult, error)
}
