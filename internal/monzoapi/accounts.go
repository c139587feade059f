package monzoapi

import (
	"context"
	"net/url"
)

// ListAccounts calls GET /accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out accountsResponse
	if err := c.get(ctx, "/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// GetBalance calls GET /balance for the given account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	query := url.Values{}
	query.Set("account_id", accountID)

	var out Balance
	if err := c.get(ctx, "/balance", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
