package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"level1", Level1, true},
		{"Level2", Level2, true},
		{" 3 ", Level3, true},
		{"level4", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestLevelOf(t *testing.T) {
	r := SpendRecord{Level1: "Travel", Level2: "Air", Level3: "Economy"}
	assert.Equal(t, "Travel", Level1.Of(r))
	assert.Equal(t, "Air", Level2.Of(r))
	assert.Equal(t, "Economy", Level3.Of(r))
	assert.Equal(t, "Travel", Level("bogus").Of(r))
}

func TestRecordYear(t *testing.T) {
	y, ok := SpendRecord{Date: "2024-03-15"}.Year()
	require.True(t, ok)
	assert.Equal(t, 2024, y)

	_, ok = SpendRecord{Date: "not a date"}.Year()
	assert.False(t, ok)

	_, ok = SpendRecord{}.Year()
	assert.False(t, ok)
}

func TestFilterSelectionWithCopies(t *testing.T) {
	picked := []string{"Acme"}
	base := FilterSelection{}
	sel := base.WithCompanies(picked...).WithYears(2024)
	picked[0] = "changed"

	assert.True(t, base.IsEmpty())
	assert.False(t, sel.IsEmpty())
	assert.Equal(t, []string{"Acme"}, sel.Companies)
	assert.Equal(t, []int{2024}, sel.Years)
}

func TestFilterSelectionKeyIgnoresOrder(t *testing.T) {
	a := FilterSelection{}.WithSuppliers("b", "a").WithYears(2025, 2024)
	b := FilterSelection{}.WithSuppliers("a", "b", "a").WithYears(2024, 2025)
	assert.Equal(t, a.Key(), b.Key())

	c := FilterSelection{}.WithCountries("a", "b").WithYears(2024, 2025)
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestFilterSelectionKeyIsUnambiguous(t *testing.T) {
	cases := []struct {
		name string
		a, b FilterSelection
	}{
		{
			name: "separator inside a value",
			a:    FilterSelection{Companies: []string{"a;s=b"}},
			b:    FilterSelection{Companies: []string{"a"}, Suppliers: []string{"b;s="}},
		},
		{
			name: "unit separator inside a value",
			a:    FilterSelection{Companies: []string{"a\x1fb"}},
			b:    FilterSelection{Companies: []string{"a", "b"}},
		},
		{
			name: "empty value versus no filter",
			a:    FilterSelection{Companies: []string{""}},
			b:    FilterSelection{},
		},
		{
			name: "year digits",
			a:    FilterSelection{Years: []int{20, 24}},
			b:    FilterSelection{Years: []int{2024}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, tc.a.Key(), tc.b.Key())
		})
	}

	assert.Equal(t, FilterSelection{}.Key(), FilterSelection{Companies: []string{}}.Key())
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2024-01-03", 2024, time.January, 3},
		{"1/10/2024", 2024, time.January, 10},
		{"Jan 31, 2024", 2024, time.January, 31},
		{"2023-12-05T10:00:00Z", 2023, time.December, 5},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.year, got.Year(), tc.in)
		assert.Equal(t, tc.month, got.Month(), tc.in)
		assert.Equal(t, tc.day, got.Day(), tc.in)
	}

	for _, bad := range []string{"", "   ", "garbage", "1.1", "1/", "12/", "oct 7"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestWeekOfMonth(t *testing.T) {
	cases := map[int]int{1: 1, 7: 1, 8: 2, 14: 2, 15: 3, 22: 4, 28: 4, 29: 5, 31: 5}
	for day, want := range cases {
		d := time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, WeekOfMonth(d), "day %d", day)
	}
}

func TestMonthLabel(t *testing.T) {
	d := time.Date(2024, time.September, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sep 2024", MonthLabel(d))
}
