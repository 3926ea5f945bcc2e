// src/models/trade.go
package models

// Direction is the side of an imported trade.
type Direction string

const (
	DirectionBuy  Direction = "Buy"
	DirectionSell Direction = "Sell"
)

// ImportedTrade is the normalized record produced by the import engine.
// Dates are YYYY-MM-DD and times HH:MM. Optional numeric fields are nil when
// the source had no usable value.
type ImportedTrade struct {
	Pair         string    `json:"pair" validate:"required"`
	Direction    Direction `json:"direction" validate:"oneof=Buy Sell"`
	OpenDate     string    `json:"openDate" validate:"required,datetime=2006-01-02"`
	OpenTime     string    `json:"openTime" validate:"required,datetime=15:04"`
	CloseDate    string    `json:"closeDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CloseTime    string    `json:"closeTime,omitempty" validate:"omitempty,datetime=15:04"`
	LotSize      float64   `json:"lotSize" validate:"gt=0"`
	EntryPrice   float64   `json:"entryPrice" validate:"required"`
	ClosingPrice float64   `json:"closingPrice" validate:"required"`
	StopLoss     *float64  `json:"stopLoss,omitempty"`
	TakeProfit   *float64  `json:"takeProfit,omitempty"`
	Note         string    `json:"note,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
	Commission   *float64  `json:"commission,omitempty"`
	Swap         *float64  `json:"swap,omitempty"`
}
