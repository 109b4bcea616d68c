package portion_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kittyapp/kitty/internal/portion"
)

func TestResolve(t *testing.T) {
	type testCase struct {
		name  string
		total string
		typ   portion.Type
		value string
		want  string
	}

	tests := []testCase{
		{
			name:  "AmountPassesThrough",
			total: "100",
			typ:   portion.TypeAmount,
			value: "25",
			want:  "25",
		},
		{
			name:  "AmountMayExceedTotal",
			total: "10",
			typ:   portion.TypeAmount,
			value: "999.99",
			want:  "999.99",
		},
		{
			name:  "PercentageOfTotal",
			total: "100",
			typ:   portion.TypePercentage,
			value: "25",
			want:  "25",
		},
		{
			name:  "PercentageRoundsToCents",
			total: "90.00",
			typ:   portion.TypePercentage,
			value: "33.33",
			want:  "30",
		},
		{
			name:  "PercentageOfOddTotal",
			total: "33.35",
			typ:   portion.TypePercentage,
			value: "10",
			want:  "3.34",
		},
		{
			name:  "UnknownTypeResolvesToZero",
			total: "100",
			typ:   portion.Type("bogus"),
			value: "25",
			want:  "0",
		},
		{
			name:  "EmptyTypeResolvesToZero",
			total: "100",
			typ:   portion.Type(""),
			value: "25",
			want:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := portion.Resolve(
				decimal.RequireFromString(tt.total),
				tt.typ,
				decimal.RequireFromString(tt.value),
			)

			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"Resolve() = %s, want %s", got, tt.want)
		})
	}
}

func TestResolve_PercentageMatchesExactFormula(t *testing.T) {
	// For a grid of totals and percentages the result must equal
	// round(total * pct / 100, 2) computed with exact decimals.
	totals := []string{"0.01", "1", "9.99", "90.00", "1234.56"}
	pcts := []string{"0", "1", "12.5", "33.33", "50", "100"}

	for _, a := range totals {
		for _, p := range pcts {
			total := decimal.RequireFromString(a)
			pct := decimal.RequireFromString(p)

			want := total.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
			got := portion.Resolve(total, portion.TypePercentage, pct)

			assert.True(t, got.Equal(want), "Resolve(%s, percentage, %s) = %s, want %s", a, p, got, want)
		}
	}
}

func TestType_Valid(t *testing.T) {
	assert.True(t, portion.TypeAmount.Valid())
	assert.True(t, portion.TypePercentage.Valid())
	assert.False(t, portion.Type("split").Valid())
	assert.False(t, portion.Type("").Valid())
}
