package heuristic

import (
	"bytes"
	"encoding/json"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// exportedTrade is the application's own trade export. Metrics are derived
// downstream; the engine only checks that the object is there.
type exportedTrade struct {
	Pair         string          `json:"pair"`
	Direction    string          `json:"direction"`
	OpenDate     string          `json:"openDate"`
	OpenTime     string          `json:"openTime"`
	CloseDate    string          `json:"closeDate,omitempty"`
	CloseTime    string          `json:"closeTime,omitempty"`
	Size         float64         `json:"size"`
	EntryPrice   float64         `json:"entryPrice"`
	ClosingPrice float64         `json:"closingPrice"`
	StopLoss     *float64        `json:"stopLoss,omitempty"`
	TakeProfit   *float64        `json:"takeProfit,omitempty"`
	Note         string          `json:"note,omitempty"`
	Strategy     string          `json:"strategy,omitempty"`
	Commission   *float64        `json:"commission,omitempty"`
	Swap         *float64        `json:"swap,omitempty"`
	Metrics      json.RawMessage `json:"metrics"`
}

type exportEnvelope struct {
	Trades []json.RawMessage `json:"trades"`
}

// decodeExport recognizes a previous export of this application: an array of
// trade objects, or an object with a "trades" array, where every element
// carries a metrics object and a size. ok is false for any other JSON.
func decodeExport(raw []byte) (trades []models.ImportedTrade, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	var elements []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &elements); err != nil {
			return nil, false
		}
	case '{':
		var env exportEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Trades == nil {
			return nil, false
		}
		elements = env.Trades
	default:
		return nil, false
	}
	if len(elements) == 0 {
		return nil, false
	}

	trades = make([]models.ImportedTrade, 0, len(elements))
	for _, el := range elements {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(el, &keys); err != nil {
			return nil, false
		}
		metrics, hasMetrics := keys["metrics"]
		_, hasSize := keys["size"]
		if !hasMetrics || !hasSize || !isJSONObject(metrics) {
			return nil, false
		}
		var et exportedTrade
		if err := json.Unmarshal(el, &et); err != nil {
			return nil, false
		}
		trades = append(trades, et.toImported())
	}
	return trades, true
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func (et exportedTrade) toImported() models.ImportedTrade {
	openTime := et.OpenTime
	if openTime == "" {
		openTime = defaultTime
	}
	// Clocks are only re-padded; anything else is left for validation to reject.
	if clock, ok := normalizeClock(openTime); ok {
		openTime = clock
	}
	closeTime := et.CloseTime
	if clock, ok := normalizeClock(closeTime); ok {
		closeTime = clock
	}
	return models.ImportedTrade{
		Pair:         NormalizePair(et.Pair),
		Direction:    NormalizeDirection(et.Direction),
		OpenDate:     et.OpenDate,
		OpenTime:     openTime,
		CloseDate:    et.CloseDate,
		CloseTime:    closeTime,
		LotSize:      et.Size,
		EntryPrice:   et.EntryPrice,
		ClosingPrice: et.ClosingPrice,
		StopLoss:     et.StopLoss,
		TakeProfit:   et.TakeProfit,
		Note:         et.Note,
		Strategy:     et.Strategy,
		Commission:   et.Commission,
		Swap:         et.Swap,
	}
}

// validExported keeps the records that satisfy the required-field invariant.
func validExported(trades []models.ImportedTrade) []models.ImportedTrade {
	kept := make([]models.ImportedTrade, 0, len(trades))
	for i, t := range trades {
		if err := ValidateTrade(t); err != nil {
			logger.L.Debug("Dropping incomplete exported trade", "index", i, "error", err)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

// ExportJSON writes trades in the export shape that the JSON path reads back.
func ExportJSON(trades []models.ImportedTrade) ([]byte, error) {
	out := struct {
		Trades []exportedTrade `json:"trades"`
	}{Trades: make([]exportedTrade, len(trades))}

	for i, t := range trades {
		out.Trades[i] = exportedTrade{
			Pair:         t.Pair,
			Direction:    string(t.Direction),
			OpenDate:     t.OpenDate,
			OpenTime:     t.OpenTime,
			CloseDate:    t.CloseDate,
			CloseTime:    t.CloseTime,
			Size:         t.LotSize,
			EntryPrice:   t.EntryPrice,
			ClosingPrice: t.ClosingPrice,
			StopLoss:     t.StopLoss,
			TakeProfit:   t.TakeProfit,
			Note:         t.Note,
			Strategy:     t.Strategy,
			Commission:   t.Commission,
			Swap:         t.Swap,
			Metrics:      json.RawMessage(`{}`),
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
