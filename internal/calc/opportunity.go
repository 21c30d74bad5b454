package calc

import (
	"time"

	"github.com/guarzo/sellsync/internal/model"
)

// SoldStats summarizes observed sold prices for a candidate item.
type SoldStats struct {
	AvgPrice         float64
	LowPrice         float64
	HighPrice        float64
	RecentSalesCount int
	LastSoldAt       time.Time
}

// Opportunity is a scored buy candidate: what it costs to acquire, what it
// should sell for, and the profit left after fees and shipping.
type Opportunity struct {
	BuyPrice           float64            `json:"buyPrice"`
	BuyShipping        float64            `json:"buyShipping"`
	TotalBuyCost       float64            `json:"totalBuyCost"`
	EstimatedSalePrice float64            `json:"estimatedSalePrice"`
	Category           string             `json:"category"`
	OutboundShipping   float64            `json:"outboundShipping"`
	Fees               model.FeeBreakdown `json:"fees"`
	NetProfit          float64            `json:"netProfit"`
	ROI                float64            `json:"roi"`
	ProfitMargin       float64            `json:"profitMargin"`
	PriceVolatilityPct float64            `json:"priceVolatilityPct"`
	RiskLevel          model.RiskLevel    `json:"riskLevel"`
	Confidence         int                `json:"confidence"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// When no sales history exists we can't measure volatility; assume the
// middle of the high-volatility band rather than pretending it's stable.
const unknownVolatilityPct = 50

// ScoreOpportunity prices out a buy candidate. The average observed sold
// price is taken as the estimated sale price, and volatility is the
// observed price range as a percentage of that average.
func ScoreOpportunity(buyPrice, buyShipping, outboundShipping float64, category string, stats SoldStats, now time.Time) Opportunity {
	estimatedSale := stats.AvgPrice
	fees := ComputeFees(estimatedSale, category)

	totalBuyCost := Round2(buyPrice + buyShipping)
	netProfit, margin := ComputeProfit(estimatedSale, totalBuyCost, outboundShipping, fees)

	volatility := float64(unknownVolatilityPct)
	if stats.AvgPrice > 0 {
		volatility = Round2((stats.HighPrice - stats.LowPrice) / stats.AvgPrice * 100)
	}

	daysSinceLastSale := 0
	if !stats.LastSoldAt.IsZero() {
		daysSinceLastSale = int(now.Sub(stats.LastSoldAt).Hours() / 24)
	}

	level, confidence := AssessRisk(stats.RecentSalesCount, volatility, daysSinceLastSale)

	return Opportunity{
		BuyPrice:           buyPrice,
		BuyShipping:        buyShipping,
		TotalBuyCost:       totalBuyCost,
		EstimatedSalePrice: estimatedSale,
		Category:           category,
		OutboundShipping:   outboundShipping,
		Fees:               fees,
		NetProfit:          netProfit,
		ROI:                ComputeROI(netProfit, totalBuyCost),
		ProfitMargin:       margin,
		PriceVolatilityPct: volatility,
		RiskLevel:          level,
		Confidence:         confidence,
		CreatedAt:          now,
	}
}
