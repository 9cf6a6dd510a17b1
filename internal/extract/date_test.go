package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		locale  Locale
		want    time.Time
		wantLow bool
	}{
		{"iso", "2024-03-05", LocaleDMY, day(2024, time.March, 5), false},
		{"forced dmy", "31/12/2024", LocaleMDY, day(2024, time.December, 31), false},
		{"forced mdy", "12/31/2024", LocaleDMY, day(2024, time.December, 31), false},
		{"ambiguous dmy", "03/05/2024", LocaleDMY, day(2024, time.May, 3), true},
		{"ambiguous mdy", "03/05/2024", LocaleMDY, day(2024, time.March, 5), true},
		{"equal components", "04/04/2024", LocaleDMY, day(2024, time.April, 4), false},
		{"dotted german", "02.01.2024", LocaleDMY, day(2024, time.January, 2), true},
		{"two digit year", "2.1.06", LocaleDMY, day(2006, time.January, 2), true},
		{"textual long", "5 March 2024", LocaleDMY, day(2024, time.March, 5), false},
		{"textual us", "Mar 5, 2024", LocaleMDY, day(2024, time.March, 5), false},
		{"textual dashes", "05-Mar-2024", LocaleDMY, day(2024, time.March, 5), false},
		{"extra whitespace", "  5   March  2024 ", LocaleDMY, day(2024, time.March, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, low, err := ParseDate(tt.input, tt.locale, nil)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, tt.wantLow, low)
		})
	}
}

func TestParseDateExtraLayouts(t *testing.T) {
	_, _, err := ParseDate("2024/065", LocaleDMY, nil)
	require.Error(t, err)

	got, low, err := ParseDate("2024/065", LocaleDMY, []string{"2006/002"})
	require.NoError(t, err)
	assert.False(t, low)
	assert.True(t, day(2024, time.March, 5).Equal(got))
}

func TestParseDateErrors(t *testing.T) {
	for _, input := range []string{"", "not a date", "13/13/2024", "31/02/2024", "99.99.99"} {
		_, _, err := ParseDate(input, LocaleDMY, nil)
		assert.Error(t, err, "input %q", input)
	}
}
