package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/kittyapp/kitty/internal/encoding"
	"github.com/kittyapp/kitty/internal/expense"
)

// Parser reads expense sheet exports and produces import entries. It
// auto-detects which layout is being used by matching column headers
// against known profiles, trying both ',' and ';' as field separators.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]expense.ImportEntry, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	for _, comma := range []rune{',', ';'} {
		rows, err := readAll(bytes.NewReader(data), comma)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
	}

	return nil, fmt.Errorf("no matching sheet format found: expected name and amount columns")
}

func readAll(r io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts entries from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]expense.ImportEntry, error) {
	nameIdx := cols[p.NameCol]
	amountIdx := cols[p.AmountCol]

	categoryIdx := -1
	if p.CategoryCol != "" {
		if i, ok := cols[p.CategoryCol]; ok {
			categoryIdx = i
		}
	}

	dateIdx := -1
	if p.DateCol != "" {
		if i, ok := cols[p.DateCol]; ok {
			dateIdx = i
		}
	}

	var entries []expense.ImportEntry

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		amountStr := cellValue(row, amountIdx)
		if amountStr == "" {
			// Blank and summary rows at the bottom of exports.
			continue
		}

		amount, err := parseAmount(amountStr)
		if err != nil || amount.IsZero() {
			continue
		}

		name := cellValue(row, nameIdx)
		if name == "" {
			return nil, fmt.Errorf("row %d: missing expense name", rowNum)
		}

		entries = append(entries, expense.ImportEntry{
			Name:        name,
			Amount:      amount.Abs().Round(2),
			Category:    cellValue(row, categoryIdx),
			PurchasedAt: parseDate(p, row, dateIdx),
		})
	}

	return entries, nil
}

// parseDate tries each of the profile's layouts against the date cell.
// Returns the zero time for missing or unparseable values.
func parseDate(p *Profile, row []string, idx int) time.Time {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range p.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
