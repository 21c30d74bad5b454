// Package calc holds the pure fee, profit, and risk math. Every function
// here is deterministic so the sync pipeline and the opportunity scorer
// can share it without caring about ordering.
package calc

import (
	"math"
	"strings"

	"github.com/guarzo/sellsync/internal/model"
)

// Final value fee percentages by category. eBay publishes these per
// category group; trading cards is our default because unknown categories
// are overwhelmingly card sales for this user base.
const (
	TradingCardsFeePct = 0.1325
	SneakersFeePct     = 0.08
	InstrumentsFeePct  = 0.0635
	ElectronicsFeePct  = 0.1255
	ClothingFeePct     = 0.15

	// Flat per-order managed payments fee.
	PaymentProcessingFee = 0.30
)

var categoryFeePct = map[string]float64{
	"trading cards":                 TradingCardsFeePct,
	"collectible card games":        TradingCardsFeePct,
	"sports trading cards":          TradingCardsFeePct,
	"athletic shoes":                SneakersFeePct,
	"sneakers":                      SneakersFeePct,
	"musical instruments":           InstrumentsFeePct,
	"musical instruments & gear":    InstrumentsFeePct,
	"consumer electronics":          ElectronicsFeePct,
	"cameras & photo":               ElectronicsFeePct,
	"clothing, shoes & accessories": ClothingFeePct,
}

// FeePctForCategory returns the final value fee percentage for a category,
// falling back to the trading cards rate for anything unrecognized.
func FeePctForCategory(category string) float64 {
	if pct, ok := categoryFeePct[strings.ToLower(strings.TrimSpace(category))]; ok {
		return pct
	}
	return TradingCardsFeePct
}

// ComputeFees builds the fee breakdown for a sale. Amounts are rounded to
// cents; total is the sum of the rounded parts so the invariant
// total == finalValueFee + paymentProcessingFee + insertionFee holds exactly.
func ComputeFees(soldPrice float64, category string) model.FeeBreakdown {
	fvf := Round2(soldPrice * FeePctForCategory(category))
	return model.FeeBreakdown{
		FinalValueFee:        fvf,
		PaymentProcessingFee: PaymentProcessingFee,
		Total:                Round2(fvf + PaymentProcessingFee),
	}
}

// ComputeProfit applies the canonical profit formula:
// netProfit = soldPrice - itemCost - fees.total - shippingCost.
// Margin is defined as 0 for a zero sold price, never NaN or Inf.
func ComputeProfit(soldPrice, itemCost, shippingCost float64, fees model.FeeBreakdown) (netProfit, profitMargin float64) {
	netProfit = Round2(soldPrice - itemCost - fees.Total - shippingCost)
	if soldPrice > 0 {
		profitMargin = Round2(netProfit / soldPrice * 100)
	}
	return netProfit, profitMargin
}

// ComputeROI returns net profit as a percentage of total buy-side
// investment, 0 when there is no investment.
func ComputeROI(netProfit, totalBuyCost float64) float64 {
	if totalBuyCost <= 0 {
		return 0
	}
	return Round2(netProfit / totalBuyCost * 100)
}

// Risk factor points. Each factor contributes one of three fixed values;
// the bucket boundaries are pinned by tests, do not re-derive them.
const (
	riskPointsHigh = 30
	riskPointsMid  = 15
	riskPointsLow  = 5
)

// AssessRisk scores an opportunity on three independent factors: thin
// recent sales, wide price volatility (range as a percentage of the mean),
// and stale data. The total maps to a level and confidence = 100 - score.
func AssessRisk(recentSalesCount int, priceVolatilityPct float64, daysSinceLastSale int) (model.RiskLevel, int) {
	score := 0

	switch {
	case recentSalesCount < 3:
		score += riskPointsHigh
	case recentSalesCount < 10:
		score += riskPointsMid
	default:
		score += riskPointsLow
	}

	switch {
	case priceVolatilityPct > 30:
		score += riskPointsHigh
	case priceVolatilityPct > 15:
		score += riskPointsMid
	default:
		score += riskPointsLow
	}

	switch {
	case daysSinceLastSale > 30:
		score += riskPointsHigh
	case daysSinceLastSale > 14:
		score += riskPointsMid
	default:
		score += riskPointsLow
	}

	var level model.RiskLevel
	switch {
	case score <= 30:
		level = model.RiskLow
	case score <= 60:
		level = model.RiskMedium
	default:
		level = model.RiskHigh
	}

	confidence := 100 - score
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}

	return level, confidence
}

// Round2 rounds to cents using standard half-away-from-zero rounding.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
