package ebay

import (
	"context"
	"time"
)

// TransactionSource is the slice of the client the sync pipeline consumes.
type TransactionSource interface {
	GetSellerTransactions(ctx context.Context, accessToken string, from, to time.Time, pageNumber, pageSize int) (*TransactionsPage, error)
}

// Ensure Client implements TransactionSource
var _ TransactionSource = (*Client)(nil)
