package xlsx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/heuristic"
)

func workbook(t *testing.T, sheets map[string][][]interface{}, order ...string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			if name != "Sheet1" {
				require.NoError(t, f.SetSheetName("Sheet1", name))
			}
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

var tradeRows = [][]interface{}{
	{"Time", "Symbol", "Type", "Volume", "Price", "Time", "Price", "Profit"},
	{"2024.01.15 09:30", "EURUSD", "buy", 1.0, 1.095, "2024.01.15 10:15", 1.098, 30},
	{"2024.01.16 11:00", "usd/jpy", "sell", 0.5, 148.2, "2024.01.16 15:45", 147.9, 101.4},
}

func TestParse_PrefersTradeSheet(t *testing.T) {
	buf := workbook(t, map[string][][]interface{}{
		"Summary": {{"Account", "12345"}, {"Balance", 10000}},
		"Trades":  tradeRows,
	}, "Summary", "Trades")

	trades, err := NewParser().Parse(buf)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "EURUSD", trades[0].Pair)
	assert.Equal(t, models.DirectionBuy, trades[0].Direction)
	assert.Equal(t, "2024-01-15", trades[0].OpenDate)
	assert.Equal(t, "10:15", trades[0].CloseTime)
	assert.Equal(t, 1.0, trades[0].LotSize)
	assert.Equal(t, 1.098, trades[0].ClosingPrice)

	assert.Equal(t, "USDJPY", trades[1].Pair)
	assert.Equal(t, models.DirectionSell, trades[1].Direction)
	assert.Equal(t, 0.5, trades[1].LotSize)
}

func TestParse_FallsBackToFirstSheetWithRows(t *testing.T) {
	rows := [][]interface{}{
		{"Open Time", "Symbol", "Type", "Volume", "Price", "Close Price"},
		{"2024.01.15 09:30", "EURUSD", "buy", 2, 1.095, 1.098},
	}
	buf := workbook(t, map[string][][]interface{}{
		"Empty":   nil,
		"History": rows,
	}, "Empty", "History")

	trades, err := NewParser().Parse(buf)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 2.0, trades[0].LotSize)
}

func TestParse_EmptyWorkbook(t *testing.T) {
	buf := workbook(t, map[string][][]interface{}{"Sheet1": nil}, "Sheet1")

	_, err := NewParser().Parse(buf)
	assert.ErrorIs(t, err, ErrNoSheet)
	assert.ErrorIs(t, err, heuristic.ErrFormat)
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("Time\tSymbol\tType"))
	assert.ErrorIs(t, err, heuristic.ErrFormat)
}

func TestParse_BlankTrailingCellsKeepTheRow(t *testing.T) {
	buf := workbook(t, map[string][][]interface{}{
		"Trades": {
			{"Time", "Symbol", "Type", "Volume", "Price", "S/L", "T/P", "Time", "Price", "Commission", "Swap", "Profit"},
			{"2024.01.15 09:30", "EURUSD", "buy", 1.0, 1.095, 1.09, 1.105, "2024.01.15 10:15"},
			{"2024.01.16 11:00", "GBPUSD", "sell", 0.5, 1.27, 1.28, 1.25, "2024.01.16 15:45", 1.26, -0.7, 0, 50},
		},
	}, "Trades")

	trades, err := NewParser().Parse(buf)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "GBPUSD", trades[0].Pair)

	buf = workbook(t, map[string][][]interface{}{
		"Trades": {
			{"Time", "Symbol", "Type", "Volume", "Price", "S/L", "T/P", "Time", "Price", "Commission", "Swap", "Profit"},
			{"2024.01.15 09:30", "EURUSD", "buy", 1.0, 1.095, 1.09, 1.105, "2024.01.15 10:15", 1.098},
			{"2024.01.16 11:00", "GBPUSD", "sell", 0.5, 1.27, 1.28, 1.25, "2024.01.16 15:45", 1.26, -0.7, 0, 50},
		},
	}, "Trades")

	trades, err = NewParser().Parse(buf)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "EURUSD", trades[0].Pair)
	assert.Equal(t, 1.098, trades[0].ClosingPrice)
	assert.Nil(t, trades[0].Commission)
	assert.Nil(t, trades[0].Swap)
	assert.Equal(t, "GBPUSD", trades[1].Pair)
}

func TestRowsToTSV(t *testing.T) {
	got := rowsToTSV([][]string{
		{"a", "b\tc", "d"},
		{"multi\nline"},
		{},
		{"x", ""},
	})
	assert.Equal(t, "a\tb c\td\nmulti line\t\t\n\nx\t\t", got)
}
