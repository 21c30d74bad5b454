package model

import "time"

// FeeBreakdown itemizes marketplace fees for a single sale.
// All amounts are non-negative and rounded to cents.
type FeeBreakdown struct {
	FinalValueFee        float64 `json:"finalValueFee"`
	PaymentProcessingFee float64 `json:"paymentProcessingFee"`
	InsertionFee         float64 `json:"insertionFee,omitempty"`
	Total                float64 `json:"total"`
}

// SyncStatus tracks where a transaction stands relative to the remote marketplace.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusError   SyncStatus = "error"
)

// Transaction is a normalized marketplace sale. EbayTransactionID is the
// dedup key: re-syncing the same id updates the stored row in place.
type Transaction struct {
	ID                string       `json:"id"`
	EbayTransactionID string       `json:"ebayTransactionId"`
	EbayItemID        string       `json:"ebayItemId"`
	Title             string       `json:"title"`
	SoldPrice         float64      `json:"soldPrice"`
	SoldDate          time.Time    `json:"soldDate"`
	ListedDate        time.Time    `json:"listedDate"`
	ItemCost          float64      `json:"itemCost,omitempty"` // user-entered, preserved across syncs
	ShippingCost      float64      `json:"shippingCost"`
	ShippingService   string       `json:"shippingService"`
	Category          string       `json:"category"`
	Condition         string       `json:"condition"`
	Fees              FeeBreakdown `json:"fees"`
	NetProfit         float64      `json:"netProfit"`
	ProfitMargin      float64      `json:"profitMargin"`
	DaysListed        int          `json:"daysListed"`
	Notes             string       `json:"notes,omitempty"` // user-entered, preserved across syncs
	Tags              []string     `json:"tags,omitempty"`  // user-entered, preserved across syncs
	SyncedAt          time.Time    `json:"syncedAt"`
	SyncStatus        SyncStatus   `json:"syncStatus"`
	SyncError         string       `json:"syncError,omitempty"`
}

// ProgressStatus is the sync run state machine.
type ProgressStatus string

const (
	StatusStarting   ProgressStatus = "starting"
	StatusFetching   ProgressStatus = "fetching"
	StatusProcessing ProgressStatus = "processing"
	StatusCompleted  ProgressStatus = "completed"
	StatusError      ProgressStatus = "error"
)

// SyncProgress is the mutable state of the single in-flight sync run.
type SyncProgress struct {
	Status      ProgressStatus `json:"status"`
	Total       int            `json:"total"`
	Processed   int            `json:"processed"`
	Errors      int            `json:"errors"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	StartedAt   time.Time      `json:"startedAt"`
}

// SyncResult summarizes a finished sync run. Immutable after return.
type SyncResult struct {
	Success             bool      `json:"success"`
	NewTransactions     int       `json:"newTransactions"`
	UpdatedTransactions int       `json:"updatedTransactions"`
	Errors              []string  `json:"errors"`
	SyncedAt            time.Time `json:"syncedAt"`
}

// DashboardMetrics is the derived overview aggregate. Recomputed on demand
// from stored transactions, never persisted as authoritative state.
type DashboardMetrics struct {
	TotalProfit       float64       `json:"totalProfit"`
	MonthlyProfit     float64       `json:"monthlyProfit"`
	TotalTransactions int           `json:"totalTransactions"`
	AverageProfit     float64       `json:"averageProfit"`
	ProfitMargin      float64       `json:"profitMargin"`
	TopCategory       string        `json:"topCategory"`
	Trends            TrendSnapshot `json:"trends"`
}

// TrendSnapshot carries month-over-month percentage changes for the dashboard.
type TrendSnapshot struct {
	Profit       float64 `json:"profit"`
	Transactions float64 `json:"transactions"`
	Margin       float64 `json:"margin"`
}

// MonthlyAnalytics aggregates one calendar month of sales.
type MonthlyAnalytics struct {
	TotalProfit       float64 `json:"totalProfit"`
	AverageProfit     float64 `json:"averageProfit"`
	TotalItems        int     `json:"totalItems"`
	AverageDaysListed float64 `json:"averageDaysListed"`
	ProfitMargin      float64 `json:"profitMargin"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalCosts        float64 `json:"totalCosts"`
}

// TrendAnalysis compares two periods as percentage changes.
type TrendAnalysis struct {
	ProfitChange  float64 `json:"profitChange"`
	VolumeChange  float64 `json:"volumeChange"`
	MarginChange  float64 `json:"marginChange"`
	RevenueChange float64 `json:"revenueChange"`
}

// CategoryAnalysis aggregates sales for a single category.
type CategoryAnalysis struct {
	Category      string  `json:"category"`
	TotalProfit   float64 `json:"totalProfit"`
	ItemCount     int     `json:"itemCount"`
	AverageProfit float64 `json:"averageProfit"`
	AverageMargin float64 `json:"averageMargin"`
}

// MonthlyTrendPoint is one month in a trailing profit-trend series.
// Months with no sales are present and zero-valued so charts stay aligned.
type MonthlyTrendPoint struct {
	Month        string  `json:"month"` // e.g. "2024-03"
	Label        string  `json:"label"` // e.g. "Mar 2024"
	Profit       float64 `json:"profit"`
	Transactions int     `json:"transactions"`
	Margin       float64 `json:"margin"`
}

// RiskLevel buckets an opportunity's heuristic risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)
