package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
	seq  int
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// NextTransactionID generates a sequential eBay transaction ID
func (f *TestDataFactory) NextTransactionID() string {
	f.seq++
	return fmt.Sprintf("txn-%06d", f.seq)
}

// GenerateTestToken generates a random test access token
func (f *TestDataFactory) GenerateTestToken() string {
	return fmt.Sprintf("test-token-%d", f.rand.Int63())
}

// GenerateTestTitle generates a random item title
func (f *TestDataFactory) GenerateTestTitle() string {
	titles := []string{"Test Charizard Holo", "Test Pikachu Promo", "Test Booster Box", "Test Elite Trainer Box", "Test Graded Slab"}
	return titles[f.rand.Intn(len(titles))]
}

// GenerateTestCategory generates a random item category
func (f *TestDataFactory) GenerateTestCategory() string {
	categories := []string{"Trading Cards", "Electronics", "Clothing", "Sneakers", "Musical Instruments"}
	return categories[f.rand.Intn(len(categories))]
}

// GenerateTestPrice generates a random sold price between $5 and $500
func (f *TestDataFactory) GenerateTestPrice() float64 {
	cents := f.rand.Intn(49500) + 500
	return float64(cents) / 100
}

// GenerateTestDate generates a random date within the last year
func (f *TestDataFactory) GenerateTestDate() time.Time {
	days := f.rand.Intn(365)
	return time.Now().UTC().AddDate(0, 0, -days)
}

// Transaction builds a transaction with sensible defaults. Callers mutate
// the result for the fields a test cares about.
func (f *TestDataFactory) Transaction() model.Transaction {
	sold := f.GenerateTestDate()
	return model.Transaction{
		ID:                f.NextTransactionID() + "-id",
		EbayTransactionID: f.NextTransactionID(),
		Title:             f.GenerateTestTitle(),
		Category:          f.GenerateTestCategory(),
		Condition:         "Used",
		SoldPrice:         f.GenerateTestPrice(),
		ShippingCost:      4.50,
		ListedDate:        sold.AddDate(0, 0, -7),
		SoldDate:          sold,
		DaysListed:        7,
		ShippingService:   "Standard Shipping",
		SyncStatus:        model.SyncStatusSynced,
	}
}

// TransactionAt builds a transaction sold at the given time with the given
// price and category, for tests that pin aggregation windows.
func (f *TestDataFactory) TransactionAt(soldDate time.Time, price float64, category string) model.Transaction {
	t := f.Transaction()
	t.SoldDate = soldDate
	t.ListedDate = soldDate.AddDate(0, 0, -7)
	t.SoldPrice = price
	t.Category = category
	return t
}
