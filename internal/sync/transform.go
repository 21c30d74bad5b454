package sync

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guarzo/sellsync/internal/ebay"
)

// Placeholder values for descriptive fields the marketplace left blank or
// mangled. A single bad field never fails a record.
const (
	defaultTitle           = "Untitled Item"
	defaultCategory        = "Other"
	defaultCondition       = "Used"
	defaultShippingService = "Standard Shipping"
)

// TransformError reports a wire record that could not be normalized at
// all. Only two fields are hard requirements: the transaction id and the
// sold price. Everything else degrades to a placeholder.
type TransformError struct {
	TransactionID string
	Reason        string
}

func (e *TransformError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("transform failed: %s", e.Reason)
	}
	return fmt.Sprintf("transform failed for transaction %s: %s", e.TransactionID, e.Reason)
}

// Normalized is the pre-fee view of one marketplace sale. Fee and profit
// fields are computed downstream by the calculator.
type Normalized struct {
	EbayTransactionID string
	EbayItemID        string
	Title             string
	SoldPrice         float64
	SoldDate          time.Time
	ListedDate        time.Time
	ShippingCost      float64
	ShippingService   string
	Category          string
	Condition         string
	DaysListed        int

	// ReportedFinalValueFee carries eBay's own fee figure when the record
	// included one; the calculator's category table is the fallback.
	ReportedFinalValueFee *float64
}

// Normalize converts one raw wire record into the normalized shape.
func Normalize(raw *ebay.RawTransaction, now time.Time) (*Normalized, error) {
	id := strings.TrimSpace(raw.TransactionID)
	if id == "" {
		return nil, &TransformError{Reason: "missing transaction id"}
	}
	if !raw.TransactionPrice.Present {
		return nil, &TransformError{TransactionID: id, Reason: "sold price could not be determined"}
	}

	soldDate := raw.CreatedDate.Time
	if soldDate.IsZero() {
		soldDate = raw.PaidTime.Time
	}
	if soldDate.IsZero() {
		soldDate = now
	}

	listedDate := raw.Item.ListingDetails.StartTime.Time
	if listedDate.IsZero() {
		listedDate = soldDate
	}

	shippingCost := raw.ActualShippingCost.Value
	if !raw.ActualShippingCost.Present {
		shippingCost = raw.ShippingServiceSelected.ShippingServiceCost.Value
	}

	n := &Normalized{
		EbayTransactionID: id,
		EbayItemID:        strings.TrimSpace(raw.Item.ItemID),
		Title:             stringOr(raw.Item.Title, defaultTitle),
		SoldPrice:         raw.TransactionPrice.Value,
		SoldDate:          soldDate,
		ListedDate:        listedDate,
		ShippingCost:      shippingCost,
		ShippingService:   stringOr(raw.ShippingServiceSelected.ShippingService, defaultShippingService),
		Category:          stringOr(raw.Item.PrimaryCategory.CategoryName, defaultCategory),
		Condition:         stringOr(raw.Item.ConditionDisplayName, defaultCondition),
		DaysListed:        daysListed(soldDate, listedDate),
	}

	if raw.FinalValueFee.Present {
		fee := raw.FinalValueFee.Value
		n.ReportedFinalValueFee = &fee
	}

	return n, nil
}

// daysListed is the calendar span between listing and sale, rounded up,
// floored at zero so clock skew never produces a negative duration.
func daysListed(soldDate, listedDate time.Time) int {
	days := math.Ceil(soldDate.Sub(listedDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

func stringOr(s, fallback string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return fallback
}
