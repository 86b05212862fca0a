// Package mailbox imports newsletters drafted in a mail client. Each
// message in the configured folder becomes one raw row.
package mailbox

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/source"
)

// fetcher is the part of IMAPClient the adapter needs.
type fetcher interface {
	FetchMessages(ctx context.Context, folder string, limit int) ([]Message, error)
}

// Adapter implements source.Source for an IMAP folder.
type Adapter struct {
	client   fetcher
	connect  func(ctx context.Context) error
	folder   string
	username string
}

var _ source.Source = (*Adapter)(nil)

// NewAdapter creates a mailbox source reading folder.
func NewAdapter(cfg model.MailboxConfig, password string) *Adapter {
	client := NewIMAPClient(cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS)
	return &Adapter{
		client: client,
		connect: func(ctx context.Context) error {
			c, err := client.Connect(ctx)
			if err != nil {
				return err
			}
			return c.Logout().Wait()
		},
		folder:   cfg.Folder,
		username: cfg.Username,
	}
}

// Type returns the source type identifier.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeMailbox
}

// ValidateConnection verifies credentials by logging in and out. It
// returns the username on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	if err := a.connect(ctx); err != nil {
		return "", fmt.Errorf("validating mailbox connection: %w", err)
	}
	return a.username, nil
}

// FetchRows reads the folder and converts each message into a row.
func (a *Adapter) FetchRows(
	ctx context.Context,
	opts source.FetchOptions,
) (*source.FetchResult, error) {
	messages, err := a.client.FetchMessages(ctx, a.folder, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", a.folder, err)
	}
	return rowsFromMessages(messages), nil
}

func rowsFromMessages(messages []Message) *source.FetchResult {
	result := &source.FetchResult{}
	for _, m := range messages {
		row, err := interchange.ParseMessage(bytes.NewReader(m.Raw))
		if err != nil {
			result.Failed = append(result.Failed, fmt.Errorf("message UID %d: %w", m.UID, err))
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}
