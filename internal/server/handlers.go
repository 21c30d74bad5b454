package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guarzo/sellsync/internal/ebay"
	"github.com/guarzo/sellsync/internal/model"
	"github.com/guarzo/sellsync/internal/sync"
)

type apiError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	RequiresReauth bool   `json:"requiresReauth,omitempty"`
}

type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *apiError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

func (s *Server) respondError(w http.ResponseWriter, status int, apiErr apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiErr, Timestamp: time.Now().UTC()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type syncTriggerRequest struct {
	DaysBack int  `json:"daysBack"`
	Force    bool `json:"force"`
}

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	var req syncTriggerRequest
	// An empty body means defaults; malformed JSON is a client error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, apiError{
			Code:    "VALIDATION_ERROR",
			Message: "invalid request body",
		})
		return
	}
	if req.DaysBack < 0 || req.DaysBack > 365 {
		s.respondError(w, http.StatusBadRequest, apiError{
			Code:    "VALIDATION_ERROR",
			Message: "daysBack must be between 1 and 365",
		})
		return
	}

	accessToken, err := s.tokens.AccessToken(r.Context())
	if err != nil {
		var authErr *ebay.AuthError
		requiresReauth := errors.Is(err, ebay.ErrNoTokens) ||
			(errors.As(err, &authErr) && authErr.RequiresReauth)
		s.respondError(w, http.StatusUnauthorized, apiError{
			Code:           "NOT_AUTHENTICATED",
			Message:        "eBay authentication required",
			RequiresReauth: requiresReauth,
		})
		return
	}

	job, err := s.runner.Trigger(accessToken, sync.Options{DaysBack: req.DaysBack, Force: req.Force})
	if err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			s.respondError(w, http.StatusConflict, apiError{
				Code:    "SYNC_IN_PROGRESS",
				Message: "sync is already in progress; set force to override",
			})
			return
		}
		s.respondError(w, http.StatusInternalServerError, apiError{
			Code:    "SYNC_TRIGGER_ERROR",
			Message: err.Error(),
		})
		return
	}

	s.respond(w, http.StatusAccepted, job)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.sync.Status(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, apiError{
			Code:    "SYNC_STATUS_ERROR",
			Message: err.Error(),
		})
		return
	}
	s.respond(w, http.StatusOK, report)
}

func (s *Server) handleSyncJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.runner.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, apiError{
			Code:    "JOB_NOT_FOUND",
			Message: "no sync job with that id",
		})
		return
	}
	s.respond(w, http.StatusOK, job)
}

type analyticsOverview struct {
	Metrics    model.DashboardMetrics    `json:"metrics"`
	Categories []model.CategoryAnalysis  `json:"categories"`
	Trend      []model.MonthlyTrendPoint `json:"trend"`
}

func (s *Server) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	months := 12
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 36 {
			months = n
		}
	}

	end := time.Now()
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	transactions, err := s.store.ListInWindow(r.Context(), start, end)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, apiError{
			Code:    "ANALYTICS_ERROR",
			Message: err.Error(),
		})
		return
	}

	s.respond(w, http.StatusOK, analyticsOverview{
		Metrics:    s.analytics.DashboardMetrics(transactions),
		Categories: s.analytics.CategoryAnalysis(transactions),
		Trend:      s.analytics.MonthlyProfitTrend(transactions, months),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, apiError{
				Code:    "VALIDATION_ERROR",
				Message: "start must be RFC 3339",
			})
			return
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, apiError{
				Code:    "VALIDATION_ERROR",
				Message: "end must be RFC 3339",
			})
			return
		}
		end = parsed
	}

	transactions, err := s.store.ListInWindow(r.Context(), start, end)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, apiError{
			Code:    "TRANSACTIONS_ERROR",
			Message: err.Error(),
		})
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}

	s.respond(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}
