package heuristic

// CanonicalField is a normalized trade attribute, independent of how a given
// report words its header. Declaration order is the generic matching priority:
// prices resolve before dates so a bare "Close" column stays a price.
type CanonicalField int

const (
	FieldPair CanonicalField = iota
	FieldDirection
	FieldLotSize
	FieldEntryPrice
	FieldClosingPrice
	FieldOpenDate // combined open date/time column
	FieldOpenTime
	FieldCloseDate // combined close date/time column
	FieldCloseTime
	// FieldProfit only claims the broker's Profit column so it is never taken
	// for take-profit. Its value is not emitted.
	FieldProfit
	FieldStopLoss
	FieldTakeProfit
	FieldCommission
	FieldSwap
	FieldNote
	FieldStrategy

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldPair:         "pair",
	FieldDirection:    "direction",
	FieldOpenDate:     "openDate",
	FieldOpenTime:     "openTime",
	FieldCloseDate:    "closeDate",
	FieldCloseTime:    "closeTime",
	FieldLotSize:      "lotSize",
	FieldEntryPrice:   "entryPrice",
	FieldClosingPrice: "closingPrice",
	FieldProfit:       "profit",
	FieldStopLoss:     "stopLoss",
	FieldTakeProfit:   "takeProfit",
	FieldCommission:   "commission",
	FieldSwap:         "swap",
	FieldNote:         "note",
	FieldStrategy:     "strategy",
}

func (f CanonicalField) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// AllFields lists every canonical field in matching priority order.
func AllFields() []CanonicalField {
	fields := make([]CanonicalField, 0, fieldCount)
	for f := CanonicalField(0); f < fieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// exactOnlyFields only accept a header that matches one of their spellings
// exactly. A separate time column or a Profit column must never be guessed.
var exactOnlyFields = map[CanonicalField]bool{
	FieldOpenTime:  true,
	FieldCloseTime: true,
	FieldProfit:    true,
}

// requiredFields must all be mapped for a document to be parseable.
var requiredFields = []CanonicalField{
	FieldPair,
	FieldDirection,
	FieldOpenDate,
	FieldEntryPrice,
	FieldClosingPrice,
	FieldLotSize,
}

// headerSynonyms holds the known spellings of each canonical field. It is built
// once at package init and only ever read. Within a field, an exact match on an
// earlier spelling wins, so "Date" beats "Time" for the open date.
var headerSynonyms = [fieldCount][]string{
	FieldPair:         {"symbol", "pair", "instrument", "ticker", "asset", "market", "currency pair", "item"},
	FieldDirection:    {"type", "direction", "side", "action", "buy/sell", "order type", "deal type"},
	FieldOpenDate:     {"open date", "date", "entry date", "open time", "time", "entry time", "open datetime"},
	FieldCloseDate:    {"close date", "exit date", "close time", "exit time", "close datetime"},
	FieldOpenTime:     {"open time", "time", "entry time", "open hour"},
	FieldCloseTime:    {"close time", "exit time", "close hour"},
	FieldLotSize:      {"volume", "lots", "lot", "lot size", "size", "quantity", "qty", "units"},
	FieldEntryPrice:   {"price", "open price", "entry price", "entry", "opening price"},
	FieldClosingPrice: {"close price", "closing price", "exit price", "exit", "close"},
	FieldProfit:       {"profit", "p/l", "pnl", "net profit", "gross profit"},
	FieldStopLoss:     {"s/l", "sl", "stop loss", "stop", "stoploss"},
	FieldTakeProfit:   {"t/p", "tp", "take profit", "target", "takeprofit"},
	FieldCommission:   {"commission", "commissions", "fee", "fees"},
	FieldSwap:         {"swap", "swaps", "rollover", "financing"},
	FieldNote:         {"comment", "comments", "note", "notes", "remark"},
	FieldStrategy:     {"strategy", "setup", "system", "magic"},
}

// Synonyms returns a copy of the known header spellings for f.
func Synonyms(f CanonicalField) []string {
	if f < 0 || f >= fieldCount {
		return nil
	}
	return append([]string(nil), headerSynonyms[f]...)
}
