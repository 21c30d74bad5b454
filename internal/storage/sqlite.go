package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/guarzo/sellsync/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id                  TEXT PRIMARY KEY,
	ebay_transaction_id TEXT NOT NULL UNIQUE,
	ebay_item_id        TEXT NOT NULL,
	title               TEXT NOT NULL,
	sold_price          REAL NOT NULL,
	sold_date           TIMESTAMP NOT NULL,
	listed_date         TIMESTAMP NOT NULL,
	item_cost           REAL NOT NULL DEFAULT 0,
	shipping_cost       REAL NOT NULL DEFAULT 0,
	shipping_service    TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL DEFAULT '',
	condition           TEXT NOT NULL DEFAULT '',
	final_value_fee     REAL NOT NULL DEFAULT 0,
	payment_fee         REAL NOT NULL DEFAULT 0,
	insertion_fee       REAL NOT NULL DEFAULT 0,
	fee_total           REAL NOT NULL DEFAULT 0,
	net_profit          REAL NOT NULL DEFAULT 0,
	profit_margin       REAL NOT NULL DEFAULT 0,
	days_listed         INTEGER NOT NULL DEFAULT 0,
	notes               TEXT NOT NULL DEFAULT '',
	tags                TEXT NOT NULL DEFAULT '[]',
	synced_at           TIMESTAMP NOT NULL,
	sync_status         TEXT NOT NULL DEFAULT 'pending',
	sync_error          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_sold_date ON transactions(sold_date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);

CREATE TABLE IF NOT EXISTS sync_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLite is the persistent Gateway backend.
type SQLite struct {
	db *sql.DB
}

var _ Gateway = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path and bootstraps
// the schema. WAL mode keeps the status poller from blocking the sync
// writer.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return &SQLite{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const txColumns = `id, ebay_transaction_id, ebay_item_id, title, sold_price,
	sold_date, listed_date, item_cost, shipping_cost, shipping_service,
	category, condition, final_value_fee, payment_fee, insertion_fee,
	fee_total, net_profit, profit_margin, days_listed, notes, tags,
	synced_at, sync_status, sync_error`

func (s *SQLite) GetByExternalID(ctx context.Context, ebayTransactionID string) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE ebay_transaction_id = ?`,
		ebayTransactionID)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying transaction: %w", err)
	}
	return tx, nil
}

func (s *SQLite) Save(ctx context.Context, tx *model.Transaction) error {
	tags, err := json.Marshal(tx.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.EbayTransactionID, tx.EbayItemID, tx.Title, tx.SoldPrice,
		tx.SoldDate, tx.ListedDate, tx.ItemCost, tx.ShippingCost, tx.ShippingService,
		tx.Category, tx.Condition, tx.Fees.FinalValueFee, tx.Fees.PaymentProcessingFee,
		tx.Fees.InsertionFee, tx.Fees.Total, tx.NetProfit, tx.ProfitMargin,
		tx.DaysListed, tx.Notes, string(tags), tx.SyncedAt, string(tx.SyncStatus), tx.SyncError)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, tx *model.Transaction) error {
	tags, err := json.Marshal(tx.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			ebay_transaction_id = ?, ebay_item_id = ?, title = ?, sold_price = ?,
			sold_date = ?, listed_date = ?, item_cost = ?, shipping_cost = ?,
			shipping_service = ?, category = ?, condition = ?, final_value_fee = ?,
			payment_fee = ?, insertion_fee = ?, fee_total = ?, net_profit = ?,
			profit_margin = ?, days_listed = ?, notes = ?, tags = ?, synced_at = ?,
			sync_status = ?, sync_error = ?
		WHERE id = ?`,
		tx.EbayTransactionID, tx.EbayItemID, tx.Title, tx.SoldPrice,
		tx.SoldDate, tx.ListedDate, tx.ItemCost, tx.ShippingCost,
		tx.ShippingService, tx.Category, tx.Condition, tx.Fees.FinalValueFee,
		tx.Fees.PaymentProcessingFee, tx.Fees.InsertionFee, tx.Fees.Total, tx.NetProfit,
		tx.ProfitMargin, tx.DaysListed, tx.Notes, string(tags), tx.SyncedAt,
		string(tx.SyncStatus), tx.SyncError, tx.ID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListInWindow(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE sold_date >= ? AND sold_date <= ?
		 ORDER BY sold_date ASC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying window: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateLastSyncTime(ctx context.Context, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (key, value) VALUES ('last_sync_time', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording last sync time: %w", err)
	}
	return nil
}

func (s *SQLite) GetLastSyncTime(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_meta WHERE key = 'last_sync_time'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last sync time: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parsing last sync time: %w", err)
	}
	return &ts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var tx model.Transaction
	var tags, status string

	err := row.Scan(
		&tx.ID, &tx.EbayTransactionID, &tx.EbayItemID, &tx.Title, &tx.SoldPrice,
		&tx.SoldDate, &tx.ListedDate, &tx.ItemCost, &tx.ShippingCost, &tx.ShippingService,
		&tx.Category, &tx.Condition, &tx.Fees.FinalValueFee, &tx.Fees.PaymentProcessingFee,
		&tx.Fees.InsertionFee, &tx.Fees.Total, &tx.NetProfit, &tx.ProfitMargin,
		&tx.DaysListed, &tx.Notes, &tags, &tx.SyncedAt, &status, &tx.SyncError)
	if err != nil {
		return nil, err
	}

	tx.SyncStatus = model.SyncStatus(status)
	if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
		tx.Tags = nil
	}
	return &tx, nil
}
