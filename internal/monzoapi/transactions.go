package monzoapi

import (
	"context"
	"net/url"
	"strconv"
)

const defaultTransactionsPageSize = 100

// TransactionListOptions supports the list filters in the Monzo docs.
// Callers page forward by passing the last seen transaction's created
// timestamp as Since on the next call.
type TransactionListOptions struct {
	AccountID string
	SinceRFC  string
	BeforeRFC string
	Limit     int
}

// ListTransactions calls GET /transactions with expand[]=merchant.
func (c *Client) ListTransactions(ctx context.Context, opts TransactionListOptions) ([]Transaction, error) {
	query := url.Values{}
	query.Set("expand[]", "merchant")

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTransactionsPageSize
	}
	query.Set("limit", strconv.Itoa(limit))

	if opts.AccountID != "" {
		query.Set("account_id", opts.AccountID)
	}
	if opts.SinceRFC != "" {
		query.Set("since", opts.SinceRFC)
	}
	if opts.BeforeRFC != "" {
		query.Set("before", opts.BeforeRFC)
	}

	var out transactionsResponse
	if err := c.get(ctx, "/transactions", query, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}
