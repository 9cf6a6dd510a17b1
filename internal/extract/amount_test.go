package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "1234.50", "1234.50"},
		{"us thousands", "1,234.50", "1234.50"},
		{"dollar sign", "$1,234.50", "1234.50"},
		{"euro sign with space", "€ 1.234,56", "1234.56"},
		{"european decimal comma", "1234,56", "1234.56"},
		{"comma thousands only", "1,234", "1234"},
		{"multiple comma groups", "1,234,567", "1234567"},
		{"decimal comma short", "12,34", "12.34"},
		{"multiple dot groups", "1.234.567", "1234567"},
		{"swiss apostrophe", "1'234.50", "1234.50"},
		{"currency code", "USD 99.95", "99.95"},
		{"negative", "-42.00", "-42"},
		{"accounting negative", "(1,234.50)", "-1234.50"},
		{"yen no decimals", "¥ 12000", "12000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			want, _ := decimal.NewFromString(tt.want)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestParseAmountCanonicalEquality(t *testing.T) {
	// "$1,234.50" and "1234.50" must normalize to the same canonical value.
	a, err := ParseAmount("$1,234.50")
	require.NoError(t, err)
	b, err := ParseAmount("1234.50")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestParseAmountErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "12.3x", "--5", "$"} {
		_, err := ParseAmount(input)
		assert.Error(t, err, "input %q", input)
	}
}
