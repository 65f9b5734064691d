package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	"github.com/FrankPreci/capitol-shill/pkg/util"
)

// TradeFile is a parsed trades CSV. Original header and rows are kept so
// the augmented output can pass unrecognized columns through untouched.
type TradeFile struct {
	Header []string
	Rows   [][]string
	Trades []models.TradeRecord
}

// Column aliases accepted in the input header, matched case-insensitively.
var (
	tickerCols = []string{"ticker", "symbol"}
	dateCols   = []string{"transaction_date", "date"}
	repCols    = []string{"representative", "member", "name"}
	typeCols   = []string{"transaction", "type", "transaction_type"}
	amountCols = []string{"amount", "range"}
)

// ReadTrades parses a trades CSV. The first row must be a header naming at
// least a ticker column and a transaction date column. Rows with missing
// or unparseable dates are kept; the engine reports them as unstudiable.
func ReadTrades(r io.Reader) (*TradeFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tickerIdx := findColumn(header, tickerCols)
	dateIdx := findColumn(header, dateCols)
	if tickerIdx < 0 {
		return nil, fmt.Errorf("no ticker column in header %v", header)
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("no transaction date column in header %v", header)
	}
	repIdx := findColumn(header, repCols)
	typeIdx := findColumn(header, typeCols)
	amountIdx := findColumn(header, amountCols)

	file := &TradeFile{Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(file.Rows)+2, err)
		}

		trade := models.TradeRecord{
			Ticker:         field(row, tickerIdx),
			Representative: field(row, repIdx),
			Transaction:    field(row, typeIdx),
			Amount:         field(row, amountIdx),
		}
		if d, ok := util.ParseDate(field(row, dateIdx)); ok {
			trade.TransactionDate = d
		}
		file.Rows = append(file.Rows, row)
		file.Trades = append(file.Trades, trade)
	}
	return file, nil
}

// WriteResults writes the original rows with study columns appended:
// the CAR for the window, then asset name, sector, industry and market cap.
func WriteResults(w io.Writer, f *TradeFile, results []models.StudyResult, windowDays int) error {
	if len(results) != len(f.Rows) {
		return fmt.Errorf("got %d results for %d rows", len(results), len(f.Rows))
	}

	cw := csv.NewWriter(w)
	header := append(append([]string{}, f.Header...),
		fmt.Sprintf("car_%dd", windowDays), "name", "sector", "industry", "market_cap")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range f.Rows {
		res := results[i]
		car := ""
		if res.CAR != nil {
			car = strconv.FormatFloat(*res.CAR, 'f', -1, 64)
		}
		asset := res.Asset
		if asset == nil {
			asset = models.UnknownAsset()
		}
		marketCap := ""
		if asset.MarketCap > 0 {
			marketCap = strconv.FormatFloat(asset.MarketCap, 'f', -1, 64)
		}
		out := append(append([]string{}, row...),
			car, asset.Name, asset.Sector, asset.Industry, marketCap)
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
