package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/source"
)

type fakeSource struct {
	results []error
	calls   int
}

func (f *fakeSource) Type() source.SourceType { return source.SourceTypeMailbox }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) { return "me", nil }

func (f *fakeSource) FetchRows(context.Context, source.FetchOptions) (*source.FetchResult, error) {
	var err error
	if f.calls < len(f.results) {
		err = f.results[f.calls]
	}
	f.calls++
	if err != nil {
		return nil, err
	}
	return &source.FetchResult{Rows: []model.Row{{model.ColNumber: "1"}}}, nil
}

func TestRunRetriesUntilCancelled(t *testing.T) {
	src := &fakeSource{results: []error{errors.New("timeout"), nil}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var batches int
	p := New(src, source.FetchOptions{}, time.Millisecond, func(_ context.Context, rows []model.Row) error {
		batches++
		assert.Len(t, rows, 1)
		if batches == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 2, batches)
	assert.Equal(t, 3, src.calls)

	status := p.Status()
	assert.Equal(t, SyncIdle, status.State)
	assert.Equal(t, 3, status.Runs)
	assert.False(t, status.LastSync.IsZero())
}

func TestRunStopsOnAuthError(t *testing.T) {
	authErr := &source.AuthError{SourceType: source.SourceTypeMailbox, Message: "bad password"}
	src := &fakeSource{results: []error{authErr}}

	p := New(src, source.FetchOptions{}, time.Millisecond, func(context.Context, []model.Row) error {
		t.Fatal("handler must not run")
		return nil
	})

	err := p.Run(context.Background())
	assert.True(t, source.IsAuthError(err))
	assert.Equal(t, SyncError, p.Status().State)
	assert.Equal(t, 1, src.calls)
}

func TestNewDefaultsInterval(t *testing.T) {
	p := New(&fakeSource{}, source.FetchOptions{}, 0, nil)
	assert.Equal(t, DefaultInterval, p.interval)
}
