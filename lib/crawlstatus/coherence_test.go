package crawlstatus

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterCoherent(t *testing.T) {
	cases := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{name: "empty", values: []float64{}, expected: []float64{}},
		{name: "single", values: []float64{42}, expected: []float64{42}},
		{name: "identical", values: []float64{7, 7, 7, 7}, expected: []float64{7, 7, 7, 7}},
		{
			name:     "interrupted crawl outlier",
			values:   []float64{18.2, 17.9, 18.5, 3.0},
			expected: []float64{18.2, 17.9, 18.5},
		},
		{
			name:     "exact bound is coherent",
			values:   []float64{90, 95},
			expected: []float64{90, 95},
		},
		{
			name:     "ties keep the first group found",
			values:   []float64{0, 4, 8, 5},
			expected: []float64{0, 4, 5},
		},
		{
			name:     "greedy growth depends on test order",
			values:   []float64{10, 6, 14, 12},
			expected: []float64{14, 10, 12},
		},
		{
			name:     "two values too far apart",
			values:   []float64{12, 95},
			expected: []float64{12},
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, FilterCoherent(test.values, DefaultMaxDeviation))
		})
	}
}

func TestFilterCoherentProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		values := make([]float64, rng.Intn(DayCount+1))
		for j := range values {
			// clustered readings with the occasional anomaly
			if rng.Intn(4) == 0 {
				values[j] = float64(rng.Intn(10001)) / 100
			} else {
				values[j] = 80 + float64(rng.Intn(1001))/100
			}
		}

		out := FilterCoherent(values, DefaultMaxDeviation)
		if len(values) > 0 {
			require.NotEmpty(t, out)
		}
		require.LessOrEqual(t, len(out), len(values))

		if len(out) > 1 {
			require.LessOrEqual(t, slices.Max(out)-slices.Min(out), DefaultMaxDeviation)
		}

		again := FilterCoherent(out, DefaultMaxDeviation)
		require.ElementsMatch(t, out, again)

		for _, v := range out {
			require.Contains(t, values, v)
		}
	}
}

func TestAverage(t *testing.T) {
	require.Equal(t, 0.0, Average(nil))
	require.Equal(t, 0.0, Average([]float64{}))
	require.Equal(t, 42.0, Average([]float64{42}))
	require.InDelta(t, 18.2, Average([]float64{18.2, 17.9, 18.5}), 1e-9)
}

func TestCountZeroDays(t *testing.T) {
	require.Equal(t, 0, CountZeroDays(nil))
	require.Equal(t, 3, CountZeroDays([]float64{0, 0, 0}))
	require.Equal(t, 1, CountZeroDays([]float64{0, 0.1, 12}))
}
