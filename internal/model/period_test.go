package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPeriod(t *testing.T) {
	tests := []struct {
		period string
		want   bool
	}{
		{"2026-Q1", true},
		{"2026-Q4", true},
		{"2026-Q5", false},
		{"2026-q1", false},
		{"26-Q1", false},
		{"2026-Q1 ", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPeriod(tt.period))
			if tt.want {
				require.NoError(t, CheckPeriod(tt.period))
			} else {
				require.Error(t, CheckPeriod(tt.period))
			}
		})
	}
}

func TestSortPeriods(t *testing.T) {
	periods := []string{"2025-Q4", "2026-Q2", "2026-Q1", "2024-Q3"}
	SortPeriods(periods)
	assert.Equal(t, []string{"2026-Q2", "2026-Q1", "2025-Q4", "2024-Q3"}, periods)
}

func TestPreviousPeriod(t *testing.T) {
	known := []string{"2025-Q4", "2026-Q1", "2026-Q2"}

	assert.Equal(t, "2026-Q1", PreviousPeriod("2026-Q2", known))
	assert.Equal(t, "2025-Q4", PreviousPeriod("2026-Q1", known))
	assert.Equal(t, "", PreviousPeriod("2025-Q4", known))
	assert.Equal(t, "", PreviousPeriod("2020-Q1", known))
	assert.Equal(t, "", PreviousPeriod("2026-Q1", nil))
}

func TestMetricRecordFieldHelpers(t *testing.T) {
	rec := &MetricRecord{
		Fields: map[string]any{
			"electricity_kwh": float64(50000),
			"renewable_pct":   float64(0),
			"posh_policy":     false,
			"env_policy":      "",
			"notes":           nil,
		},
	}

	assert.True(t, rec.Has("electricity_kwh"))
	assert.True(t, rec.Has("renewable_pct"), "reported zero is data")
	assert.True(t, rec.Has("posh_policy"), "an answered no is data")
	assert.False(t, rec.Has("env_policy"), "empty string is missing")
	assert.False(t, rec.Has("notes"))
	assert.False(t, rec.Has("absent"))

	v, ok := rec.Float("electricity_kwh")
	require.True(t, ok)
	assert.Equal(t, 50000.0, v)

	_, ok = rec.Float("posh_policy")
	assert.False(t, ok)

	b, ok := rec.Bool("posh_policy")
	require.True(t, ok)
	assert.False(t, b)

	var nilRec *MetricRecord
	assert.False(t, nilRec.Has("anything"))
	_, ok = nilRec.Float("anything")
	assert.False(t, ok)
}
