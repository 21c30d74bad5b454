package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// ProgressView is the progress slice of the status surface.
type ProgressView struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
	Errors     int `json:"errors"`
}

// PaginationView reports where the paging loop stands.
type PaginationView struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// StatusReport is the poller-facing view of the sync state, consumed by
// the UI.
type StatusReport struct {
	IsActive            bool            `json:"isActive"`
	Progress            ProgressView    `json:"progress"`
	CurrentStep         string          `json:"currentStep"`
	Status              string          `json:"status"`
	Pagination          *PaginationView `json:"pagination,omitempty"`
	LastSyncTime        *time.Time      `json:"lastSyncTime,omitempty"`
	EstimatedCompletion *time.Time      `json:"estimatedCompletion,omitempty"`
}

// Status assembles the report from the live progress snapshot and the
// stored last-sync marker.
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	progress, active := s.Progress()

	lastSync, err := s.store.GetLastSyncTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading last sync time: %w", err)
	}

	report := &StatusReport{
		IsActive:     active,
		Status:       "idle",
		CurrentStep:  "idle",
		LastSyncTime: lastSync,
	}

	if progress.Status == "" {
		return report, nil
	}

	report.Status = string(progress.Status)
	report.Progress = ProgressView{
		Current: progress.Processed,
		Total:   progress.Total,
		Errors:  progress.Errors,
	}
	if progress.Total > 0 {
		report.Progress.Percentage = progress.Processed * 100 / progress.Total
	}
	report.Pagination = &PaginationView{
		CurrentPage: progress.CurrentPage,
		TotalPages:  progress.TotalPages,
	}

	if active {
		report.CurrentStep = stepDescription(progress)
		if eta := estimateCompletion(progress, s.now()); eta != nil {
			report.EstimatedCompletion = eta
		}
	}

	return report, nil
}

func stepDescription(p model.SyncProgress) string {
	switch p.Status {
	case model.StatusStarting:
		return "Initializing sync..."
	case model.StatusFetching:
		return fmt.Sprintf("Fetching transactions (Page %d/%d)", p.CurrentPage, p.TotalPages)
	case model.StatusProcessing:
		return fmt.Sprintf("Processing transactions (%d/%d)", p.Processed, p.Total)
	case model.StatusCompleted:
		return "Sync completed"
	case model.StatusError:
		return "Sync encountered errors"
	default:
		return "Syncing..."
	}
}

// estimateCompletion projects the finish time from observed throughput.
// Nothing useful can be said before the first record lands.
func estimateCompletion(p model.SyncProgress, now time.Time) *time.Time {
	if p.Processed == 0 || p.Total <= p.Processed || p.StartedAt.IsZero() {
		return nil
	}
	elapsed := now.Sub(p.StartedAt)
	if elapsed <= 0 {
		return nil
	}
	perItem := elapsed / time.Duration(p.Processed)
	eta := now.Add(perItem * time.Duration(p.Total-p.Processed))
	return &eta
}
