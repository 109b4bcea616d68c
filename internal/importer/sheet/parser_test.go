package sheet_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/kittyapp/kitty/internal/importer/sheet"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Splitwise(t *testing.T) {
	csv := `Date,Description,Category,Cost,Currency
2026-07-12,Cabin rental,Accommodation,"1,250.00",EUR
2026-07-13,Groceries,Food,86.40,EUR
,Total balance,,-431.20,EUR
`

	p := sheet.NewParser()
	entries, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "Cabin rental", entries[0].Name)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("1250.00")), entries[0].Amount)
	assert.Equal(t, "Accommodation", entries[0].Category)
	assert.Equal(t, date(2026, 7, 12), entries[0].PurchasedAt)

	assert.Equal(t, "Groceries", entries[1].Name)
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("86.40")), entries[1].Amount)

	// Footer rows keep their absolute amount and zero date.
	assert.Equal(t, "Total balance", entries[2].Name)
	assert.True(t, entries[2].Amount.Equal(decimal.RequireFromString("431.20")), entries[2].Amount)
	assert.True(t, entries[2].PurchasedAt.IsZero())
}

func TestParser_LedgerSemicolons(t *testing.T) {
	csv := `Exported 31-01-2026

Name;Amount;Category;Date
Ski passes;1.234,56;Activities;30-01-2026
Fondue night;86,40;Food;29-01-2026
;;;
`

	p := sheet.NewParser()
	entries, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Ski passes", entries[0].Name)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("1234.56")), entries[0].Amount)
	assert.Equal(t, "Activities", entries[0].Category)
	assert.Equal(t, date(2026, 1, 30), entries[0].PurchasedAt)

	assert.Equal(t, "Fondue night", entries[1].Name)
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("86.40")), entries[1].Amount)
}

func TestParser_Simple(t *testing.T) {
	csv := `Item,Price
Beers,24.50
Taxi,18
`

	p := sheet.NewParser()
	entries, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Beers", entries[0].Name)
	assert.Empty(t, entries[0].Category)
	assert.True(t, entries[0].PurchasedAt.IsZero())
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("18")), entries[1].Amount)
}

func TestParser_Windows1252(t *testing.T) {
	utf8 := "Name;Amount\nCrêpes café;12,50\n"

	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8))
	require.NoError(t, err)

	p := sheet.NewParser()
	entries, err := p.Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "Crêpes café", entries[0].Name)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("12.50")), entries[0].Amount)
}

func TestParser_MissingName(t *testing.T) {
	csv := `Name,Amount
,45.00
`

	p := sheet.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParser_NoMatchingFormat(t *testing.T) {
	csv := `Foo,Bar
1,2
`

	p := sheet.NewParser()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching sheet format")
}

func TestParseAmountFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"45,50", "45.50"},
		{"45.50", "45.50"},
		{"1,234", "1234"},
		{"€ 12,00", "12.00"},
		{"$1,250.00", "1250.00"},
		{"-588,74", "-588.74"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			csv := "Name,Amount\nthing,\"" + tt.in + "\"\n"

			p := sheet.NewParser()
			entries, err := p.Parse(strings.NewReader(csv))
			require.NoError(t, err)
			require.Len(t, entries, 1)

			want := decimal.RequireFromString(tt.want).Abs().Round(2)
			assert.True(t, entries[0].Amount.Equal(want), entries[0].Amount)
		})
	}
}
