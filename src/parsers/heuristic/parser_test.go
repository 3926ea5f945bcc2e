package heuristic

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradejournal/backend/src/models"
)

const metaTraderExport = "Time\tSymbol\tType\tVolume\tPrice\tS/L\tT/P\tTime\tPrice\tCommission\n" +
	"2024.01.15 09:30\tEURUSD\tbuy\t1.0\t1.0950\t1.0900\t1.1050\t2024.01.15 10:15\t1.0980\t-5\n"

func ptr(v float64) *float64 { return &v }

func eurusdTrade() models.ImportedTrade {
	return models.ImportedTrade{
		Pair:         "EURUSD",
		Direction:    models.DirectionBuy,
		OpenDate:     "2024-01-15",
		OpenTime:     "09:30",
		CloseDate:    "2024-01-15",
		CloseTime:    "10:15",
		LotSize:      1.0,
		EntryPrice:   1.0950,
		ClosingPrice: 1.0980,
		StopLoss:     ptr(1.0900),
		TakeProfit:   ptr(1.1050),
		Commission:   ptr(-5),
	}
}

func TestParseTradeData_MetaTraderTabExport(t *testing.T) {
	trades, err := ParseTradeData(metaTraderExport)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, eurusdTrade(), trades[0])
}

func TestParseTradeData_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t\r\n"} {
		_, err := ParseTradeData(raw)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.ErrorIs(t, err, ErrFormat)
	}
}

func TestParseTradeData_Idempotent(t *testing.T) {
	first, err := ParseTradeData(metaTraderExport)
	require.NoError(t, err)
	second, err := ParseTradeData(metaTraderExport)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseTradeData_ConcurrentCallsAgree(t *testing.T) {
	want, err := ParseTradeData(metaTraderExport)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]models.ImportedTrade, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = ParseTradeData(metaTraderExport)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestParseTradeData_HeaderOrderDoesNotMatter(t *testing.T) {
	reordered := "Symbol\tType\tVolume\tTime\tPrice\tS/L\tT/P\tTime\tPrice\tCommission\n" +
		"EURUSD\tbuy\t1.0\t2024.01.15 09:30\t1.0950\t1.0900\t1.1050\t2024.01.15 10:15\t1.0980\t-5\n"

	trades, err := ParseTradeData(reordered)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, eurusdTrade(), trades[0])
}

func TestParseTradeData_CommaSeparated(t *testing.T) {
	csv := "Time,Symbol,Type,Volume,Price,S/L,T/P,Time,Price,Commission\r\n" +
		"2024.01.15 09:30,EURUSD,buy,1.0,1.0950,1.0900,1.1050,2024.01.15 10:15,1.0980,-5\r\n"

	trades, err := ParseTradeData(csv)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, eurusdTrade(), trades[0])
}

func TestParseTradeData_FixedWidth(t *testing.T) {
	text := "Open Time         Symbol    Type    Volume    Price     Close Price\n" +
		"2024.01.15 09:30  EURUSD    sell    0.50      1.0950    1.0920\n"

	trades, err := ParseTradeData(text)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, "EURUSD", got.Pair)
	assert.Equal(t, models.DirectionSell, got.Direction)
	assert.Equal(t, "2024-01-15", got.OpenDate)
	assert.Equal(t, "09:30", got.OpenTime)
	assert.Equal(t, 0.5, got.LotSize)
	assert.Equal(t, 1.0950, got.EntryPrice)
	assert.Equal(t, 1.0920, got.ClosingPrice)
	assert.Nil(t, got.StopLoss)
	assert.Empty(t, got.CloseDate)
}

func TestParseTradeData_IndentedColumns(t *testing.T) {
	text := "\t\tTime\tSymbol\tType\tVolume\tPrice\tTime\tPrice\n" +
		"\t\t2024.01.15 09:30\tEURUSD\tbuy\t1.0\t1.0950\t2024.01.15 10:15\t1.0980\n"

	trades, err := ParseTradeData(text)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "EURUSD", trades[0].Pair)
	assert.Equal(t, 1.0980, trades[0].ClosingPrice)
}

func TestParseTradeData_BadRowsAreSkipped(t *testing.T) {
	text := "Time\tSymbol\tType\tVolume\tPrice\tS/L\tT/P\tTime\tPrice\tCommission\n" +
		"2024.01.15 09:30\tEURUSD\tbuy\t1.0\t1.0950\t1.0900\t1.1050\t2024.01.15 10:15\t1.0980\t-5\n" +
		"garbage\n" +
		"2024.01.15 11:00\tEURUSD\tbuy\tabc\t1.0950\t1.0900\t1.1050\t2024.01.15 12:00\t1.0980\t-5\n" +
		"2024.01.15 11:00\t\tbuy\t1.0\t1.0950\t1.0900\t1.1050\t2024.01.15 12:00\t1.0980\t-5\n" +
		"\n" +
		"2024.01.16 08:00\tgbp/usd\tsell\t0.2\t1.2700\t\t\t2024.01.16 09:00\t1.2650\t\n"

	trades, err := ParseTradeData(text)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, eurusdTrade(), trades[0])

	second := trades[1]
	assert.Equal(t, "GBPUSD", second.Pair)
	assert.Equal(t, models.DirectionSell, second.Direction)
	assert.Equal(t, 0.2, second.LotSize)
	assert.Nil(t, second.StopLoss)
	assert.Nil(t, second.TakeProfit)
	assert.Nil(t, second.Commission)
}

func TestParseTradeData_NoValidRows(t *testing.T) {
	text := "Time\tSymbol\tType\tVolume\tPrice\tS/L\tT/P\tTime\tPrice\tCommission\n" +
		"2024.01.15 09:30\t\tbuy\t1.0\t1.0950\t1.0900\t1.1050\t2024.01.15 10:15\t1.0980\t-5\n"

	_, err := ParseTradeData(text)
	assert.ErrorIs(t, err, ErrNoValidRows)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestParseTradeData_MissingRequiredColumns(t *testing.T) {
	text := "Time\tSymbol\tType\tPrice\tS/L\tT/P\tComment\tMagic\n" +
		"2024.01.15 09:30\tEURUSD\tbuy\t1.0950\t1.0900\t1.1050\tscalp\t42\n"

	_, err := ParseTradeData(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMapping)

	var mappingErr *MappingError
	require.True(t, errors.As(err, &mappingErr))
	assert.ElementsMatch(t, []CanonicalField{FieldClosingPrice, FieldLotSize}, mappingErr.Missing)
	assert.Contains(t, err.Error(), "closingPrice")
	assert.Contains(t, err.Error(), "lotSize")
}

func TestParseTradeData_TakeProfitColumnStaysTakeProfit(t *testing.T) {
	text := "Open Time,Symbol,Type,Volume,Open Price,Close Rate,S/L,T/P,Profit\n" +
		"2024.01.15 09:30,EURUSD,buy,1.0,1.0950,1.0980,1.0900,1.1050,30\n"

	trades, err := ParseTradeData(text)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	assert.Equal(t, 1.0980, trades[0].ClosingPrice)
	assert.Equal(t, ptr(1.0900), trades[0].StopLoss)
	assert.Equal(t, ptr(1.1050), trades[0].TakeProfit)
}

func TestParseTradeData_NoHeader(t *testing.T) {
	_, err := ParseTradeData("just some notes\nnothing tabular here at all\n")
	assert.ErrorIs(t, err, ErrNoHeader)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseTradeData_PositionsSectionInText(t *testing.T) {
	text := strings.Join([]string{
		"Trade History Report",
		"Positions",
		"Time\tPosition\tSymbol\tType\tVolume\tPrice\tS / L\tT / P\tTime\tPrice\tCommission\tSwap\tProfit",
		"2024.03.01 08:00:00\t1001\tGBPUSD\tsell\t0.10\t1.2650\t1.2700\t1.2550\t2024.03.01 12:30:00\t1.2600\t-0.70\t0.00\t50.00",
		"\t\t\t\t\t\t\t\t\t\t-0.70\t0.00\t50.00",
		"Deals",
		"Time\tDeal\tSymbol\tType\tDirection\tVolume\tPrice\tOrder\tCommission\tSwap\tProfit",
		"2024.03.01 08:00:00\t5001\tGBPUSD\tsell\tin\t0.10\t1.2650\t2001\t0\t0\t0",
	}, "\n")

	trades, err := ParseTradeData(text)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, "GBPUSD", got.Pair)
	assert.Equal(t, models.DirectionSell, got.Direction)
	assert.Equal(t, "2024-03-01", got.OpenDate)
	assert.Equal(t, "08:00", got.OpenTime)
	assert.Equal(t, "12:30", got.CloseTime)
	assert.Equal(t, 0.1, got.LotSize)
	assert.Equal(t, ptr(1.27), got.StopLoss)
	assert.Equal(t, ptr(1.255), got.TakeProfit)
	assert.Equal(t, ptr(-0.7), got.Commission)
	assert.Equal(t, ptr(0), got.Swap)
}

func TestParseTradeData_JSONRoundTrip(t *testing.T) {
	original, err := ParseTradeData(metaTraderExport)
	require.NoError(t, err)

	exported, err := ExportJSON(original)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, DetectFormat(string(exported)))

	reimported, err := ParseTradeData(string(exported))
	require.NoError(t, err)
	assert.Equal(t, original, reimported)
}

func TestParseTradeData_JSONArrayExport(t *testing.T) {
	raw := `[
		{"pair":"eur/usd","direction":"buy","openDate":"2024-01-15","size":1,"entryPrice":1.095,"closingPrice":1.098,"metrics":{"pips":30}},
		{"pair":"","direction":"sell","openDate":"2024-01-16","size":1,"entryPrice":1.1,"closingPrice":1.09,"metrics":{}}
	]`

	trades, err := ParseTradeData(raw)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "EURUSD", trades[0].Pair)
	assert.Equal(t, models.DirectionBuy, trades[0].Direction)
	assert.Equal(t, "00:00", trades[0].OpenTime)
}

func TestParseTradeData_JSONExportDatesMustBeCanonical(t *testing.T) {
	raw := `{"trades":[
		{"pair":"EURUSD","direction":"buy","openDate":"15/01/2024","openTime":"9h","size":1,"entryPrice":1.095,"closingPrice":1.098,"metrics":{}},
		{"pair":"GBPUSD","direction":"sell","openDate":"2024-01-16","openTime":"9:05","closeDate":"2024-01-16","closeTime":"17:40:12","size":1,"entryPrice":1.27,"closingPrice":1.26,"metrics":{}},
		{"pair":"USDJPY","direction":"buy","openDate":"2024-01-17","openTime":"25:00","size":1,"entryPrice":148.2,"closingPrice":148.9,"metrics":{}},
		{"pair":"AUDUSD","direction":"buy","openDate":"2024-01-18","closeDate":"18.01.2024","size":1,"entryPrice":0.66,"closingPrice":0.67,"metrics":{}}
	]}`

	trades, err := ParseTradeData(raw)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "GBPUSD", trades[0].Pair)
	assert.Equal(t, "09:05", trades[0].OpenTime)
	assert.Equal(t, "17:40", trades[0].CloseTime)

	_, err = ParseTradeData(`{"trades":[{"pair":"EURUSD","direction":"buy","openDate":"15/01/2024","openTime":"9h","size":1,"entryPrice":1.095,"closingPrice":1.098,"metrics":{}}]}`)
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestParseTradeData_ForeignJSONIsNotAnExport(t *testing.T) {
	raw := `[{"pair":"EURUSD","size":1}]`
	assert.Equal(t, FormatDelimited, DetectFormat(raw))

	_, err := ParseTradeData(raw)
	assert.ErrorIs(t, err, ErrFormat)

	_, err = ParseAs(raw, FormatJSON)
	assert.ErrorIs(t, err, ErrUnrecognizedJSON)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatHTML, DetectFormat("<!DOCTYPE html><HTML><body></body></HTML>"))
	assert.Equal(t, FormatDelimited, DetectFormat(metaTraderExport))
	assert.Equal(t, "html", FormatHTML.String())
	assert.Equal(t, "unknown", FormatKind(42).String())
}

func TestParser_Parse(t *testing.T) {
	trades, err := NewParser().Parse(strings.NewReader(metaTraderExport))
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	_, err = NewParserFor(FormatHTML).Parse(strings.NewReader(metaTraderExport))
	assert.ErrorIs(t, err, ErrNoTable)
}
