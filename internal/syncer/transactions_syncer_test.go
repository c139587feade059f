package syncer

import (
	"testing"
	"time"

	"github.com/tmarsden/sterling/internal/monzoapi"
)

func TestMapTransactionRecord(t *testing.T) {
	created := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	tx := monzoapi.Transaction{
		ID:            "tx_0001",
		AccountID:     "acc_0001",
		Created:       created,
		Description:   "TESCO STORES 3212      LONDON  GBR",
		Amount:        -1250,
		Currency:      "GBP",
		LocalAmount:   -1250,
		LocalCurrency: "GBP",
		Merchant:      &monzoapi.Merchant{ID: "merch_1", Name: "Tesco", Category: "groceries"},
		Category:      "groceries",
		Notes:         "weekly shop",
		Settled:       "2025-07-15T00:00:00Z",
	}

	rec := mapTransactionRecord(tx)

	if rec.ID != "tx_0001" || rec.AccountID != "acc_0001" {
		t.Fatalf("ids = %q/%q", rec.ID, rec.AccountID)
	}
	if rec.CreatedAt != created.Format(time.RFC3339Nano) {
		t.Fatalf("created_at = %q", rec.CreatedAt)
	}
	if rec.AmountMinor != -1250 || rec.Currency != "GBP" {
		t.Fatalf("amount = %d %s", rec.AmountMinor, rec.Currency)
	}
	if rec.MerchantName == nil || *rec.MerchantName != "Tesco" {
		t.Fatalf("merchant name = %v", rec.MerchantName)
	}
	if rec.Notes == nil || *rec.Notes != "weekly shop" {
		t.Fatalf("notes = %v", rec.Notes)
	}
	if rec.SettledAt == nil || *rec.SettledAt != "2025-07-15T00:00:00Z" {
		t.Fatalf("settled_at = %v", rec.SettledAt)
	}
	// Same-currency local amounts are redundant and stay unset.
	if rec.LocalAmountMinor != nil || rec.LocalCurrency != nil {
		t.Fatal("local amount set for same-currency transaction")
	}
	if rec.DeclineReason != nil {
		t.Fatalf("decline reason = %v", rec.DeclineReason)
	}
}

func TestMapTransactionRecordForeignAndDeclined(t *testing.T) {
	tx := monzoapi.Transaction{
		ID:            "tx_0002",
		AccountID:     "acc_0001",
		Created:       time.Date(2025, 8, 2, 18, 0, 0, 0, time.UTC),
		Description:   "CAFE DE FLORE PARIS",
		Amount:        -980,
		Currency:      "GBP",
		LocalAmount:   -1150,
		LocalCurrency: "EUR",
		DeclineReason: "INSUFFICIENT_FUNDS",
		Counterparty:  monzoapi.Counterparty{Name: ""},
	}

	rec := mapTransactionRecord(tx)

	if rec.LocalAmountMinor == nil || *rec.LocalAmountMinor != -1150 {
		t.Fatalf("local amount = %v", rec.LocalAmountMinor)
	}
	if rec.LocalCurrency == nil || *rec.LocalCurrency != "EUR" {
		t.Fatalf("local currency = %v", rec.LocalCurrency)
	}
	if rec.DeclineReason == nil || *rec.DeclineReason != "INSUFFICIENT_FUNDS" {
		t.Fatalf("decline reason = %v", rec.DeclineReason)
	}
	if rec.MerchantName != nil {
		t.Fatalf("merchant name = %v, want nil", rec.MerchantName)
	}
	if rec.CounterpartyName != nil {
		t.Fatalf("counterparty = %v, want nil for empty name", rec.CounterpartyName)
	}
}

func TestMapTransactionRecordPeerPayment(t *testing.T) {
	tx := monzoapi.Transaction{
		ID:           "tx_0003",
		AccountID:    "acc_0001",
		Created:      time.Date(2025, 8, 3, 12, 0, 0, 0, time.UTC),
		Description:  "Faster payment",
		Amount:       2500,
		Currency:     "GBP",
		Counterparty: monzoapi.Counterparty{Name: "Alice Smith", UserID: "user_1"},
	}

	rec := mapTransactionRecord(tx)
	if rec.CounterpartyName == nil || *rec.CounterpartyName != "Alice Smith" {
		t.Fatalf("counterparty = %v", rec.CounterpartyName)
	}
	if rec.AmountMinor != 2500 {
		t.Fatalf("amount = %d, want positive credit", rec.AmountMinor)
	}
}
