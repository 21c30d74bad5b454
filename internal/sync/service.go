// Package sync owns the transaction sync pipeline: paging through the
// seller's history, normalizing records, pricing them out, and persisting
// the results. One run is live at a time, process-wide.
package sync

import (
	"context"
	"errors"
	"fmt"
	"math"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guarzo/sellsync/internal/calc"
	"github.com/guarzo/sellsync/internal/ebay"
	"github.com/guarzo/sellsync/internal/model"
	"github.com/guarzo/sellsync/internal/storage"
)

// ErrSyncInProgress is returned when a run is requested while another is
// active and the caller did not set Force.
var ErrSyncInProgress = errors.New("sync already in progress")

// RunError wraps a failure outside the per-record loop; it aborts the run
// with partial counts preserved.
type RunError struct {
	Page int
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("sync run failed at page %d: %v", e.Page, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Options tune one sync run.
type Options struct {
	DaysBack   int  // fetch window size, default 30
	BatchSize  int  // page size, default 200
	MaxRetries int  // attempts per page fetch, default 3
	Force      bool // proceed even if another run is active
}

func (o Options) withDefaults() Options {
	if o.DaysBack <= 0 {
		o.DaysBack = 30
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 200
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return o
}

const interPageDelay = 250 * time.Millisecond

// Service is the sync orchestrator. Construct one per process and share
// it; the single-flight guarantee lives in its mutex, not in package
// state.
type Service struct {
	client ebay.TransactionSource
	store  storage.Gateway
	log    zerolog.Logger

	mu       stdsync.Mutex
	active   bool
	progress *model.SyncProgress

	// Injection points for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string
}

// NewService wires the orchestrator with its collaborators.
func NewService(client ebay.TransactionSource, store storage.Gateway, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		log:    log.With().Str("component", "sync").Logger(),
		sleep:  sleepCtx,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// IsActive reports whether a run is currently live.
func (s *Service) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Progress returns a snapshot of the live run's progress and whether a
// run is active. The snapshot of a finished run remains readable until
// the next run starts.
func (s *Service) Progress() (model.SyncProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress == nil {
		return model.SyncProgress{}, s.active
	}
	return *s.progress, s.active
}

// Run executes one sync over the window [now - daysBack, now]. A second
// concurrent call fails fast with ErrSyncInProgress unless opts.Force is
// set, in which case the new run proceeds and the superseded run's state
// is abandoned.
func (s *Service) Run(ctx context.Context, accessToken string, opts Options) (*model.SyncResult, error) {
	opts = opts.withDefaults()

	progress := &model.SyncProgress{
		Status:      model.StatusStarting,
		CurrentPage: 1,
		TotalPages:  1,
		StartedAt:   s.now(),
	}

	s.mu.Lock()
	if s.active && !opts.Force {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.active = true
	s.progress = progress
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		// A forced restart installs its own progress; only the run that
		// still owns the slot clears the active flag.
		if s.progress == progress {
			s.active = false
		}
		s.mu.Unlock()
	}()

	to := s.now()
	from := to.Add(-time.Duration(opts.DaysBack) * 24 * time.Hour)

	s.log.Info().
		Time("from", from).
		Time("to", to).
		Int("pageSize", opts.BatchSize).
		Msg("starting transaction sync")

	var (
		newCount     int
		updatedCount int
		errs         []string
	)

	result := func(success bool) *model.SyncResult {
		return &model.SyncResult{
			Success:             success,
			NewTransactions:     newCount,
			UpdatedTransactions: updatedCount,
			Errors:              errs,
			SyncedAt:            s.now(),
		}
	}

	for page := 1; ; page++ {
		s.setProgress(progress, func(p *model.SyncProgress) {
			p.Status = model.StatusFetching
			p.CurrentPage = page
		})

		resp, err := s.fetchPageWithRetry(ctx, accessToken, from, to, page, opts)
		if err != nil {
			runErr := &RunError{Page: page, Err: err}
			errs = append(errs, runErr.Error())
			s.setProgress(progress, func(p *model.SyncProgress) { p.Status = model.StatusError })
			s.log.Error().Err(err).Int("page", page).Msg("sync run aborted")
			return result(false), nil
		}

		if page == 1 {
			s.setProgress(progress, func(p *model.SyncProgress) {
				p.Total = resp.TotalEntries
				p.TotalPages = resp.TotalPages
			})
		}

		s.setProgress(progress, func(p *model.SyncProgress) { p.Status = model.StatusProcessing })

		for i := range resp.Transactions {
			raw := &resp.Transactions[i]
			created, err := s.processRecord(ctx, raw)
			if err != nil {
				errs = append(errs, fmt.Sprintf("failed to process transaction %s: %v", raw.TransactionID, err))
				s.setProgress(progress, func(p *model.SyncProgress) { p.Errors++ })
				s.log.Warn().Err(err).Str("transactionID", raw.TransactionID).Msg("skipping record")
				continue
			}
			if created {
				newCount++
			} else {
				updatedCount++
			}
			s.setProgress(progress, func(p *model.SyncProgress) { p.Processed++ })
		}

		if page >= resp.TotalPages {
			break
		}

		// Politeness delay between pages; the upstream rate limit is the
		// reason pages are fetched strictly sequentially.
		if err := s.sleep(ctx, interPageDelay); err != nil {
			errs = append(errs, (&RunError{Page: page + 1, Err: err}).Error())
			s.setProgress(progress, func(p *model.SyncProgress) { p.Status = model.StatusError })
			return result(false), nil
		}
	}

	s.setProgress(progress, func(p *model.SyncProgress) { p.Status = model.StatusCompleted })

	if err := s.store.UpdateLastSyncTime(ctx, s.now()); err != nil {
		errs = append(errs, fmt.Sprintf("failed to record sync time: %v", err))
	}

	s.log.Info().
		Int("new", newCount).
		Int("updated", updatedCount).
		Int("errors", len(errs)).
		Msg("sync completed")

	return result(len(errs) == 0), nil
}

// fetchPageWithRetry wraps one page fetch in the retry policy: up to
// MaxRetries attempts with 2^(attempt-1) seconds of backoff. Failures
// signaling 400/401/403 are terminal immediately.
func (s *Service) fetchPageWithRetry(ctx context.Context, accessToken string, from, to time.Time, page int, opts Options) (*ebay.TransactionsPage, error) {
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		resp, err := s.client.GetSellerTransactions(ctx, accessToken, from, to, page, opts.BatchSize)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var apiErr *ebay.APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		var authErr *ebay.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}

		if attempt < opts.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			s.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("maxRetries", opts.MaxRetries).
				Dur("backoff", backoff).
				Msg("page fetch failed, retrying")
			if err := s.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("page fetch failed after %d attempts: %w", opts.MaxRetries, lastErr)
}

// processRecord normalizes, prices, and persists one raw record. Returns
// whether a new row was created (false means an existing row was updated
// in place, preserving the user-entered cost, notes, and tags).
func (s *Service) processRecord(ctx context.Context, raw *ebay.RawTransaction) (created bool, err error) {
	n, err := Normalize(raw, s.now())
	if err != nil {
		return false, err
	}

	existing, err := s.store.GetByExternalID(ctx, n.EbayTransactionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("looking up transaction: %w", err)
	}

	itemCost := 0.0
	if existing != nil {
		itemCost = existing.ItemCost
	}

	fees := s.feesFor(n)
	netProfit, margin := calc.ComputeProfit(n.SoldPrice, itemCost, n.ShippingCost, fees)

	tx := &model.Transaction{
		EbayTransactionID: n.EbayTransactionID,
		EbayItemID:        n.EbayItemID,
		Title:             n.Title,
		SoldPrice:         n.SoldPrice,
		SoldDate:          n.SoldDate,
		ListedDate:        n.ListedDate,
		ItemCost:          itemCost,
		ShippingCost:      n.ShippingCost,
		ShippingService:   n.ShippingService,
		Category:          n.Category,
		Condition:         n.Condition,
		Fees:              fees,
		NetProfit:         netProfit,
		ProfitMargin:      margin,
		DaysListed:        n.DaysListed,
		SyncedAt:          s.now(),
		SyncStatus:        model.SyncStatusSynced,
	}

	if existing != nil {
		tx.ID = existing.ID
		tx.Notes = existing.Notes
		tx.Tags = existing.Tags
		if err := s.store.Update(ctx, tx); err != nil {
			return false, fmt.Errorf("updating transaction: %w", err)
		}
		return false, nil
	}

	tx.ID = s.newID()
	if err := s.store.Save(ctx, tx); err != nil {
		return false, fmt.Errorf("saving transaction: %w", err)
	}
	return true, nil
}

// feesFor prefers eBay's own reported final value fee and falls back to
// the category table when the record carried none.
func (s *Service) feesFor(n *Normalized) model.FeeBreakdown {
	if n.ReportedFinalValueFee == nil {
		return calc.ComputeFees(n.SoldPrice, n.Category)
	}
	fvf := calc.Round2(*n.ReportedFinalValueFee)
	return model.FeeBreakdown{
		FinalValueFee:        fvf,
		PaymentProcessingFee: calc.PaymentProcessingFee,
		Total:                calc.Round2(fvf + calc.PaymentProcessingFee),
	}
}

func (s *Service) setProgress(owner *model.SyncProgress, mutate func(*model.SyncProgress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A forced restart may have replaced the progress slot; the abandoned
	// run must not scribble over the new run's state.
	if s.progress != owner {
		return
	}
	mutate(s.progress)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
