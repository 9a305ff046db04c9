package purge

import (
	"context"

	"mastogone/internal/mastoclient"
	"mastogone/internal/model"
)

// Paginator walks an account's status history newest-first in fixed-size
// pages. Each page request asks for statuses older than the cursor, which
// advances to the last (oldest) status of the returned page. Not restartable:
// a fresh Paginator starts from the most recent status.
type Paginator struct {
	client    mastoclient.Client
	accountID string
	pageSize  int

	maxID string
	done  bool
	pages int
}

func NewPaginator(client mastoclient.Client, accountID string, pageSize int) *Paginator {
	return &Paginator{client: client, accountID: accountID, pageSize: pageSize}
}

// Next returns the next page, or nil when the history is exhausted.
// A malformed or failed page response ends iteration and is returned as an
// error; the caller proceeds with whatever was collected so far.
func (p *Paginator) Next(ctx context.Context) ([]model.Status, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.client.AccountStatuses(ctx, p.accountID, p.maxID, p.pageSize)
	if err != nil {
		p.done = true
		return nil, err
	}
	if len(page) == 0 {
		p.done = true
		return nil, nil
	}
	p.pages++
	p.maxID = page[len(page)-1].ID
	return page, nil
}

// Pages returns how many non-empty pages have been fetched.
func (p *Paginator) Pages() int { return p.pages }
