package monzoapi

import (
	"encoding/json"
	"time"
)

// Account is a single entry from GET /accounts.
type Account struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Currency    string    `json:"currency"`
	CountryCode string    `json:"country_code"`
	Created     time.Time `json:"created"`
	Closed      bool      `json:"closed"`
}

// Balance is the response of GET /balance for one account.
// Amounts are in minor units (pence).
type Balance struct {
	Balance      int64  `json:"balance"`
	TotalBalance int64  `json:"total_balance"`
	Currency     string `json:"currency"`
	SpendToday   int64  `json:"spend_today"`
}

// Merchant accepts both shapes Monzo returns for the merchant field:
// a bare ID string, or the expanded object when expand[]=merchant is sent.
type Merchant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (m *Merchant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Merchant{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*m = Merchant{ID: id}
		return nil
	}
	type alias Merchant
	var full alias
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*m = Merchant(full)
	return nil
}

// Counterparty identifies the other side of a peer-to-peer payment.
type Counterparty struct {
	Name      string `json:"name"`
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
}

// Transaction is a single entry from GET /transactions.
// Amount is signed minor units: negative for spend, positive for credits.
type Transaction struct {
	ID            string       `json:"id"`
	AccountID     string       `json:"account_id"`
	Created       time.Time    `json:"created"`
	Description   string       `json:"description"`
	Amount        int64        `json:"amount"`
	Currency      string       `json:"currency"`
	LocalAmount   int64        `json:"local_amount"`
	LocalCurrency string       `json:"local_currency"`
	Merchant      *Merchant    `json:"merchant"`
	Category      string       `json:"category"`
	Notes         string       `json:"notes"`
	IsLoad        bool         `json:"is_load"`
	Settled       string       `json:"settled"`
	DeclineReason string       `json:"decline_reason"`
	Counterparty  Counterparty `json:"counterparty"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}
