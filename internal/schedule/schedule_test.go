package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.AnchorDateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeKeysOffNumber(t *testing.T) {
	records := []model.EmailRecord{{Number: 7}, {Number: 1}, {Number: 3}}

	for _, interval := range []int{1, 3, 7, 14} {
		entries, err := Compute(records, day("2025-03-01"), interval)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, 1, entries[0].Number)
		assert.Equal(t, 0, entries[0].DaysFromAnchor)
		assert.Equal(t, 3, entries[1].Number)
		assert.Equal(t, 2*interval, entries[1].DaysFromAnchor)
		assert.Equal(t, 7, entries[2].Number)
		assert.Equal(t, 6*interval, entries[2].DaysFromAnchor)
	}
	assert.Equal(t, 7, records[0].Number, "input is not reordered")
}

func TestComputeWeeklyFromMonday(t *testing.T) {
	records := []model.EmailRecord{
		{Number: 1, Title: "A", Subject: "Hi"},
		{Number: 2, Title: "B", Subject: "Hello there"},
	}

	entries, err := Compute(records, day("2025-01-06"), 7)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Number: 1, Subject: "Hi", SendDate: day("2025-01-06"), DayOfWeek: "Monday", DaysFromAnchor: 0},
		{Number: 2, Subject: "Hello there", SendDate: day("2025-01-13"), DayOfWeek: "Monday", DaysFromAnchor: 7},
	}, entries)
}

func TestComputeWithGapFromMonday(t *testing.T) {
	records := []model.EmailRecord{{Number: 1}, {Number: 3}}

	entries, err := Compute(records, day("2025-01-06"), 7)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-06", entries[0].Date())
	assert.Equal(t, "2025-01-20", entries[1].Date())
	assert.Equal(t, "Monday", entries[1].DayOfWeek)
	assert.Equal(t, 14, entries[1].DaysFromAnchor)
}

func TestComputeIsDeterministic(t *testing.T) {
	records := []model.EmailRecord{{Number: 4}, {Number: 2}, {Number: 9}}
	anchor := time.Date(2025, 6, 30, 18, 45, 0, 0, time.FixedZone("X", 5*3600))

	a, err := Compute(records, anchor, 5)
	require.NoError(t, err)
	b, err := Compute(records, anchor, 5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, a[0].Number)
	assert.Equal(t, "2025-07-05", a[0].Date(), "anchor's own calendar date is used")
}

func TestComputeRejectsInterval(t *testing.T) {
	for _, interval := range []int{0, -7} {
		_, err := Compute([]model.EmailRecord{{Number: 1}}, day("2025-01-06"), interval)
		var intervalErr *InvalidIntervalError
		require.ErrorAs(t, err, &intervalErr)
		assert.Equal(t, interval, intervalErr.Days)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	}
}

func TestComputeEmpty(t *testing.T) {
	entries, err := Compute(nil, day("2025-01-06"), 7)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTiered(t *testing.T) {
	policy := Tiered()
	tests := []struct {
		n    int
		want int
	}{
		{1, 0}, {2, 1}, {5, 4}, {6, 10}, {10, 18}, {11, 30}, {21, 60}, {22, 147}, {52, 357},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, policy(tt.n), "number %d", tt.n)
	}
}

func TestApplyDelays(t *testing.T) {
	records := []model.EmailRecord{{Number: 2}, {Number: 1}, {Number: 40, DelayDays: 3}}
	entries := ComputeWithPolicy(records[:2], day("2025-01-06"), Fixed(7))

	out := ApplyDelays(records, entries)
	assert.Equal(t, 7, out[0].DelayDays)
	assert.Equal(t, 0, out[1].DelayDays)
	assert.Equal(t, 3, out[2].DelayDays)
	assert.Zero(t, records[0].DelayDays)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("", 3)
	require.NoError(t, err)
	assert.Equal(t, 6, p(3))

	p, err = ParsePolicy("tiered", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, p(5))

	_, err = ParsePolicy("fixed", 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = ParsePolicy("monthly", 7)
	assert.Error(t, err)
}

func TestEntryJSONUsesPlainDate(t *testing.T) {
	entries := ComputeWithPolicy([]model.EmailRecord{{Number: 3, Subject: "Third"}}, day("2025-01-06"), Fixed(7))

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"number": 3,
		"subject": "Third",
		"send_date": "2025-01-20",
		"day_of_week": "Monday",
		"days_from_anchor": 14
	}]`, string(data))
}
