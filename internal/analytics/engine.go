// Package analytics derives dashboard metrics, trends, and category
// rankings from stored transactions. Everything here is recomputed on
// demand; the normalized transactions are the source of truth.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/guarzo/sellsync/internal/calc"
	"github.com/guarzo/sellsync/internal/model"
)

// Engine computes aggregates over a transaction set. It holds a clock so
// "current month" is testable.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an analytics engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt creates an engine with a fixed clock. Test constructor.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// DashboardMetrics computes the overview aggregate: totals, current-month
// profit, overall margin, top category, and month-over-month trends.
func (e *Engine) DashboardMetrics(transactions []model.Transaction) model.DashboardMetrics {
	if len(transactions) == 0 {
		return model.DashboardMetrics{TopCategory: "No data"}
	}

	var totalProfit, totalRevenue float64
	for _, t := range transactions {
		totalProfit += t.NetProfit
		totalRevenue += t.SoldPrice
	}

	now := e.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var monthlyProfit float64
	for _, t := range transactions {
		if !t.SoldDate.UTC().Before(monthStart) {
			monthlyProfit += t.NetProfit
		}
	}

	overallMargin := 0.0
	if totalRevenue > 0 {
		overallMargin = totalProfit / totalRevenue * 100
	}

	topCategory := "No category"
	if categories := e.CategoryAnalysis(transactions); len(categories) > 0 {
		topCategory = categories[0].Category
	}

	return model.DashboardMetrics{
		TotalProfit:       calc.Round2(totalProfit),
		MonthlyProfit:     calc.Round2(monthlyProfit),
		TotalTransactions: len(transactions),
		AverageProfit:     calc.Round2(totalProfit / float64(len(transactions))),
		ProfitMargin:      calc.Round2(overallMargin),
		TopCategory:       topCategory,
		Trends:            e.monthlyTrends(transactions),
	}
}

// MonthlyMetrics aggregates one calendar month. An empty month yields the
// zero value; nothing here divides by zero.
func (e *Engine) MonthlyMetrics(transactions []model.Transaction, year int, month time.Month) model.MonthlyAnalytics {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var (
		count           int
		daysListedTotal int
		profit          float64
		revenue         float64
		costs           float64
	)
	for _, t := range transactions {
		d := t.SoldDate.UTC()
		if d.Before(start) || !d.Before(end) {
			continue
		}
		count++
		profit += t.NetProfit
		revenue += t.SoldPrice
		costs += t.ItemCost + t.Fees.Total + t.ShippingCost
		daysListedTotal += t.DaysListed
	}

	if count == 0 {
		return model.MonthlyAnalytics{}
	}

	margin := 0.0
	if revenue > 0 {
		margin = profit / revenue * 100
	}

	return model.MonthlyAnalytics{
		TotalProfit:       calc.Round2(profit),
		AverageProfit:     calc.Round2(profit / float64(count)),
		TotalItems:        count,
		AverageDaysListed: calc.Round2(float64(daysListedTotal) / float64(count)),
		ProfitMargin:      calc.Round2(margin),
		TotalRevenue:      calc.Round2(revenue),
		TotalCosts:        calc.Round2(costs),
	}
}

// Trend compares two periods. A climb out of zero reads as +100%, and two
// zero periods read as flat; no metric ever comes back infinite.
func Trend(current, previous model.MonthlyAnalytics) model.TrendAnalysis {
	return model.TrendAnalysis{
		ProfitChange:  percentChange(current.TotalProfit, previous.TotalProfit),
		VolumeChange:  percentChange(float64(current.TotalItems), float64(previous.TotalItems)),
		MarginChange:  percentChange(current.ProfitMargin, previous.ProfitMargin),
		RevenueChange: percentChange(current.TotalRevenue, previous.TotalRevenue),
	}
}

func percentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return calc.Round2((current - previous) / previous * 100)
}

// CategoryAnalysis groups by category (blank categories land in "Other")
// and ranks by total profit, descending.
func (e *Engine) CategoryAnalysis(transactions []model.Transaction) []model.CategoryAnalysis {
	type bucket struct {
		profit  float64
		revenue float64
		count   int
	}
	buckets := make(map[string]*bucket)

	for _, t := range transactions {
		category := t.Category
		if category == "" {
			category = "Other"
		}
		b := buckets[category]
		if b == nil {
			b = &bucket{}
			buckets[category] = b
		}
		b.profit += t.NetProfit
		b.revenue += t.SoldPrice
		b.count++
	}

	out := make([]model.CategoryAnalysis, 0, len(buckets))
	for category, b := range buckets {
		margin := 0.0
		if b.revenue > 0 {
			margin = b.profit / b.revenue * 100
		}
		out = append(out, model.CategoryAnalysis{
			Category:      category,
			TotalProfit:   calc.Round2(b.profit),
			ItemCount:     b.count,
			AverageProfit: calc.Round2(b.profit / float64(b.count)),
			AverageMargin: calc.Round2(margin),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProfit != out[j].TotalProfit {
			return out[i].TotalProfit > out[j].TotalProfit
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyProfitTrend builds a fixed-length trailing series, oldest month
// first. Months with no sales stay in the series zero-valued so chart
// axes line up.
func (e *Engine) MonthlyProfitTrend(transactions []model.Transaction, monthsBack int) []model.MonthlyTrendPoint {
	if monthsBack <= 0 {
		monthsBack = 12
	}

	now := e.now()
	out := make([]model.MonthlyTrendPoint, 0, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		target := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		m := e.MonthlyMetrics(transactions, target.Year(), target.Month())
		out = append(out, model.MonthlyTrendPoint{
			Month:        fmt.Sprintf("%04d-%02d", target.Year(), int(target.Month())),
			Label:        target.Format("Jan 2006"),
			Profit:       m.TotalProfit,
			Transactions: m.TotalItems,
			Margin:       m.ProfitMargin,
		})
	}
	return out
}

func (e *Engine) monthlyTrends(transactions []model.Transaction) model.TrendSnapshot {
	now := e.now()
	current := e.MonthlyMetrics(transactions, now.Year(), now.Month())

	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	previous := e.MonthlyMetrics(transactions, prev.Year(), prev.Month())

	t := Trend(current, previous)
	return model.TrendSnapshot{
		Profit:       t.ProfitChange,
		Transactions: t.VolumeChange,
		Margin:       t.MarginChange,
	}
}
