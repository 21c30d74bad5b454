package calc

import (
	"math"
	"testing"
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

func TestFeePctForCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     float64
	}{
		{"trading cards", "Trading Cards", TradingCardsFeePct},
		{"sports cards", "Sports Trading Cards", TradingCardsFeePct},
		{"sneakers", "Sneakers", SneakersFeePct},
		{"instruments", "Musical Instruments & Gear", InstrumentsFeePct},
		{"electronics", "Consumer Electronics", ElectronicsFeePct},
		{"clothing", "Clothing, Shoes & Accessories", ClothingFeePct},
		{"unknown falls back to trading cards", "Garden Gnomes", TradingCardsFeePct},
		{"empty falls back to trading cards", "", TradingCardsFeePct},
		{"whitespace and case insensitive", "  trading CARDS  ", TradingCardsFeePct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FeePctForCategory(tt.category); got != tt.want {
				t.Errorf("FeePctForCategory(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestComputeFees(t *testing.T) {
	fees := ComputeFees(45.99, "Trading Cards")

	if fees.FinalValueFee != 6.09 {
		t.Errorf("FinalValueFee = %v, want 6.09", fees.FinalValueFee)
	}
	if fees.PaymentProcessingFee != 0.30 {
		t.Errorf("PaymentProcessingFee = %v, want 0.30", fees.PaymentProcessingFee)
	}
	if fees.Total != 6.39 {
		t.Errorf("Total = %v, want 6.39", fees.Total)
	}
}

func TestComputeFeesTotalIsSumOfParts(t *testing.T) {
	prices := []float64{0.99, 10.005, 45.99, 123.45, 999.99}
	for _, p := range prices {
		fees := ComputeFees(p, "Consumer Electronics")
		sum := Round2(fees.FinalValueFee + fees.PaymentProcessingFee + fees.InsertionFee)
		if fees.Total != sum {
			t.Errorf("price %v: Total = %v, want sum of parts %v", p, fees.Total, sum)
		}
	}
}

func TestComputeProfit(t *testing.T) {
	fees := ComputeFees(45.99, "Trading Cards")
	netProfit, margin := ComputeProfit(45.99, 25.00, 4.50, fees)

	if netProfit != 10.10 {
		t.Errorf("netProfit = %v, want 10.10", netProfit)
	}
	if margin != 21.96 {
		t.Errorf("profitMargin = %v, want 21.96", margin)
	}
}

func TestComputeProfitZeroSoldPrice(t *testing.T) {
	netProfit, margin := ComputeProfit(0, 10.00, 2.00, model.FeeBreakdown{Total: 0.30})

	if margin != 0 {
		t.Errorf("margin for zero sold price = %v, want 0", margin)
	}
	if math.IsNaN(margin) || math.IsInf(margin, 0) {
		t.Errorf("margin must be finite, got %v", margin)
	}
	if netProfit != -12.30 {
		t.Errorf("netProfit = %v, want -12.30", netProfit)
	}
}

func TestComputeROI(t *testing.T) {
	tests := []struct {
		name      string
		netProfit float64
		buyCost   float64
		want      float64
	}{
		{"positive", 10.10, 25.00, 40.40},
		{"negative", -5.00, 20.00, -25.00},
		{"zero cost", 10.00, 0, 0},
		{"negative cost", 10.00, -1.00, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeROI(tt.netProfit, tt.buyCost); got != tt.want {
				t.Errorf("ComputeROI(%v, %v) = %v, want %v", tt.netProfit, tt.buyCost, got, tt.want)
			}
		})
	}
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name           string
		salesCount     int
		volatilityPct  float64
		daysSinceSale  int
		wantLevel      model.RiskLevel
		wantConfidence int
	}{
		{"all low factors", 10, 15, 14, model.RiskLow, 85},
		{"all mid factors", 3, 15.1, 15, model.RiskMedium, 55},
		{"all high factors", 2, 30.1, 31, model.RiskHigh, 10},
		{"boundary stays low", 10, 15.0, 14, model.RiskLow, 85},
		{"one high factor is medium", 10, 50, 0, model.RiskMedium, 60},
		{"two high factors tips to high", 0, 50, 0, model.RiskHigh, 35},
		{"sales boundary at 3 is mid", 3, 0, 0, model.RiskLow, 75},
		{"sales below 3 is high", 2, 0, 0, model.RiskMedium, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, confidence := AssessRisk(tt.salesCount, tt.volatilityPct, tt.daysSinceSale)
			if level != tt.wantLevel {
				t.Errorf("level = %v, want %v", level, tt.wantLevel)
			}
			if confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", confidence, tt.wantConfidence)
			}
		})
	}
}

func TestScoreOpportunity(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	stats := SoldStats{
		AvgPrice:         45.99,
		LowPrice:         40.00,
		HighPrice:        52.00,
		RecentSalesCount: 12,
		LastSoldAt:       now.AddDate(0, 0, -5),
	}

	opp := ScoreOpportunity(20.00, 5.00, 4.50, "Trading Cards", stats, now)

	if opp.TotalBuyCost != 25.00 {
		t.Errorf("TotalBuyCost = %v, want 25.00", opp.TotalBuyCost)
	}
	if opp.EstimatedSalePrice != 45.99 {
		t.Errorf("EstimatedSalePrice = %v, want 45.99", opp.EstimatedSalePrice)
	}
	if opp.NetProfit != 10.10 {
		t.Errorf("NetProfit = %v, want 10.10", opp.NetProfit)
	}
	if opp.ROI != 40.40 {
		t.Errorf("ROI = %v, want 40.40", opp.ROI)
	}
	// (52 - 40) / 45.99 * 100 = 26.09
	if opp.PriceVolatilityPct != 26.09 {
		t.Errorf("PriceVolatilityPct = %v, want 26.09", opp.PriceVolatilityPct)
	}
	// 5 pts sales + 15 pts volatility + 5 pts recency = 25
	if opp.RiskLevel != model.RiskLow {
		t.Errorf("RiskLevel = %v, want low", opp.RiskLevel)
	}
	if opp.Confidence != 75 {
		t.Errorf("Confidence = %v, want 75", opp.Confidence)
	}
}

func TestScoreOpportunityNoHistory(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	opp := ScoreOpportunity(20.00, 0, 0, "Trading Cards", SoldStats{}, now)

	if opp.PriceVolatilityPct != unknownVolatilityPct {
		t.Errorf("PriceVolatilityPct = %v, want %v", opp.PriceVolatilityPct, unknownVolatilityPct)
	}
	if opp.RiskLevel != model.RiskHigh {
		t.Errorf("RiskLevel = %v, want high", opp.RiskLevel)
	}
	if opp.NetProfit >= 0 {
		t.Errorf("NetProfit = %v, want negative for zero estimated sale", opp.NetProfit)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{6.093675, 6.09},
		{2.344, 2.34},
		{2.346, 2.35},
		{-2.346, -2.35},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
