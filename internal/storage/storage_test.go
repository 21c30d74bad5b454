package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// gatewayUnderTest runs the same contract checks against every backend.
func gatewayUnderTest(t *testing.T) map[string]Gateway {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Gateway{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func sampleTransaction(id, externalID string, soldDate time.Time) *model.Transaction {
	return &model.Transaction{
		ID:                id,
		EbayTransactionID: externalID,
		EbayItemID:        "item-1",
		Title:             "Charizard Holo",
		SoldPrice:         45.99,
		SoldDate:          soldDate,
		ListedDate:        soldDate.AddDate(0, 0, -5),
		ItemCost:          25.00,
		ShippingCost:      4.50,
		ShippingService:   "USPS First Class",
		Category:          "Trading Cards",
		Condition:         "Near Mint",
		Fees:              model.FeeBreakdown{FinalValueFee: 6.09, PaymentProcessingFee: 0.30, Total: 6.39},
		NetProfit:         10.10,
		ProfitMargin:      21.96,
		DaysListed:        5,
		Notes:             "graded copy",
		Tags:              []string{"pokemon", "holo"},
		SyncedAt:          soldDate.Add(time.Hour),
		SyncStatus:        model.SyncStatusSynced,
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			soldDate := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

			want := sampleTransaction("id-1", "ext-1", soldDate)
			if err := gw.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := gw.GetByExternalID(ctx, "ext-1")
			if err != nil {
				t.Fatalf("GetByExternalID: %v", err)
			}

			if got.ID != want.ID || got.EbayTransactionID != want.EbayTransactionID {
				t.Errorf("ids = %q/%q, want %q/%q", got.ID, got.EbayTransactionID, want.ID, want.EbayTransactionID)
			}
			if got.SoldPrice != want.SoldPrice || got.NetProfit != want.NetProfit {
				t.Errorf("amounts = %v/%v, want %v/%v", got.SoldPrice, got.NetProfit, want.SoldPrice, want.NetProfit)
			}
			if got.Fees != want.Fees {
				t.Errorf("fees = %+v, want %+v", got.Fees, want.Fees)
			}
			if len(got.Tags) != 2 || got.Tags[0] != "pokemon" {
				t.Errorf("tags = %v, want %v", got.Tags, want.Tags)
			}
			if got.SyncStatus != model.SyncStatusSynced {
				t.Errorf("sync status = %q, want synced", got.SyncStatus)
			}
			if !got.SoldDate.UTC().Equal(soldDate) {
				t.Errorf("sold date = %v, want %v", got.SoldDate, soldDate)
			}
		})
	}
}

func TestGatewayGetMissing(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := gw.GetByExternalID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGatewayUpdate(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			soldDate := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

			tx := sampleTransaction("id-1", "ext-1", soldDate)
			if err := gw.Save(ctx, tx); err != nil {
				t.Fatalf("Save: %v", err)
			}

			tx.SoldPrice = 52.00
			tx.Notes = "repriced"
			if err := gw.Update(ctx, tx); err != nil {
				t.Fatalf("Update: %v", err)
			}

			got, err := gw.GetByExternalID(ctx, "ext-1")
			if err != nil {
				t.Fatalf("GetByExternalID: %v", err)
			}
			if got.SoldPrice != 52.00 || got.Notes != "repriced" {
				t.Errorf("after update = %v/%q, want 52.00/repriced", got.SoldPrice, got.Notes)
			}
		})
	}
}

func TestGatewayUpdateMissing(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			tx := sampleTransaction("ghost", "ext-ghost", time.Now())
			if err := gw.Update(context.Background(), tx); !errors.Is(err, ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGatewayListInWindow(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

			// Saved out of order; the listing comes back by sold date.
			for i, day := range []int{20, 5, 10} {
				tx := sampleTransaction(
					"id-"+string(rune('a'+i)),
					"ext-"+string(rune('a'+i)),
					base.AddDate(0, 0, day),
				)
				if err := gw.Save(ctx, tx); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			outside := sampleTransaction("id-z", "ext-z", base.AddDate(0, 2, 0))
			if err := gw.Save(ctx, outside); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := gw.ListInWindow(ctx, base, base.AddDate(0, 1, 0))
			if err != nil {
				t.Fatalf("ListInWindow: %v", err)
			}

			if len(got) != 3 {
				t.Fatalf("listed = %d, want 3 inside the window", len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i].SoldDate.Before(got[i-1].SoldDate) {
					t.Errorf("results out of order: %v before %v", got[i].SoldDate, got[i-1].SoldDate)
				}
			}
		})
	}
}

func TestGatewayLastSyncTime(t *testing.T) {
	for name, gw := range gatewayUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := gw.GetLastSyncTime(ctx)
			if err != nil {
				t.Fatalf("GetLastSyncTime: %v", err)
			}
			if got != nil {
				t.Errorf("last sync = %v, want nil before first sync", got)
			}

			ts := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
			if err := gw.UpdateLastSyncTime(ctx, ts); err != nil {
				t.Fatalf("UpdateLastSyncTime: %v", err)
			}

			got, err = gw.GetLastSyncTime(ctx)
			if err != nil {
				t.Fatalf("GetLastSyncTime: %v", err)
			}
			if got == nil || !got.Equal(ts) {
				t.Errorf("last sync = %v, want %v", got, ts)
			}

			// Overwrites, never appends.
			later := ts.Add(time.Hour)
			if err := gw.UpdateLastSyncTime(ctx, later); err != nil {
				t.Fatalf("UpdateLastSyncTime: %v", err)
			}
			got, _ = gw.GetLastSyncTime(ctx)
			if got == nil || !got.Equal(later) {
				t.Errorf("last sync = %v, want %v", got, later)
			}
		})
	}
}
