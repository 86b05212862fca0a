// Package sync re-reads an external source on an interval and hands each
// batch of rows to a handler, for keeping the store in step with a mailbox
// that is still being written to.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/nhle/newsletter-manager/internal/logging"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/source"
)

// SyncState represents the current state of a source sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state of the polled source.
type SyncStatus struct {
	SourceType source.SourceType
	State      SyncState
	LastSync   time.Time
	Runs       int
	Error      error
}

// Handler receives the rows of one successful fetch.
type Handler func(ctx context.Context, rows []model.Row) error

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// DefaultInterval is used when no positive interval is given.
const DefaultInterval = 2 * time.Minute

// Poller polls one source until its context ends.
type Poller struct {
	src      source.Source
	opts     source.FetchOptions
	interval time.Duration
	handle   Handler

	mu     gosync.Mutex
	status SyncStatus
}

// New creates a Poller for src. A non-positive interval uses DefaultInterval.
func New(
	src source.Source,
	opts source.FetchOptions,
	interval time.Duration,
	handle Handler,
) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		src:      src,
		opts:     opts,
		interval: interval,
		handle:   handle,
		status:   SyncStatus{SourceType: src.Type(), State: SyncIdle},
	}
}

// Run fetches immediately and then on every tick. It returns nil when ctx
// is cancelled and the error itself when the source rejects the
// credentials, since retrying cannot fix those. Other failures are logged
// and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		if err := p.poll(ctx); source.IsAuthError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// poll performs a single fetch and passes the rows to the handler.
func (p *Poller) poll(ctx context.Context) error {
	p.setStatus(SyncRunning, nil)
	log := logging.Log.WithField("source", p.status.SourceType)

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	result, err := p.src.FetchRows(fetchCtx, p.opts)
	if err == nil {
		for _, failed := range result.Failed {
			log.WithError(failed).Warn("skipping unreadable item")
		}
		err = p.handle(ctx, result.Rows)
	}
	if err != nil {
		p.setStatus(SyncError, err)
		if !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("sync failed")
		}
		return err
	}

	p.setStatus(SyncIdle, nil)
	log.WithField("rows", len(result.Rows)).Debug("sync finished")
	return nil
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state != SyncRunning {
		p.status.Runs++
	}
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}
