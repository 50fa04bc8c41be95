package crawlstatus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySimple(t *testing.T) {
	threshold := NewThreshold(95)

	cases := []struct {
		value    float64
		expected Status
	}{
		{value: 100, expected: Success},
		{value: 95.0, expected: Success},
		{value: 94.9, expected: Warning},
		{value: 90.0, expected: Warning},
		{value: 89.9, expected: Error},
		{value: 0, expected: Error},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, PolicySimple.Classify(test.value, threshold, 0), "value %v", test.value)
	}
}

func TestClassifyWarningBand(t *testing.T) {
	threshold := NewThreshold(30)
	threshold.WarningBand = 10

	require.Equal(t, Warning, PolicySimple.Classify(20, threshold, 0))
	require.Equal(t, Error, PolicySimple.Classify(19.99, threshold, 0))

	threshold.WarningBand = 0
	require.Equal(t, Error, PolicySimple.Classify(29.99, threshold, 0))
}

func TestClassifyNullThreshold(t *testing.T) {
	for _, policy := range []Policy{PolicySimple, PolicyCritical} {
		for _, value := range []float64{0, 50, 100} {
			require.Equal(t, NA, policy.Classify(value, Threshold{WarningBand: DefaultWarningBand}, 6))
		}
	}
}

func TestClassifyCritical(t *testing.T) {
	threshold := NewThreshold(95)

	require.Equal(t, CriticalError, PolicyCritical.Classify(0, threshold, 3))
	require.Equal(t, CriticalError, PolicyCritical.Classify(0, threshold, 6))
	require.Equal(t, Error, PolicyCritical.Classify(0, threshold, 1))
	require.Equal(t, Error, PolicyCritical.Classify(0, threshold, 0))

	// non zero averages follow the simple policy whatever the zero days
	require.Equal(t, Success, PolicyCritical.Classify(96, threshold, 3))
	require.Equal(t, Warning, PolicyCritical.Classify(92, threshold, 3))
	require.Equal(t, Error, PolicyCritical.Classify(0.5, threshold, 5))

	// the simple policy never escalates
	require.Equal(t, Error, PolicySimple.Classify(0, threshold, 6))
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("simple")
	require.NoError(t, err)
	require.Equal(t, PolicySimple, policy)

	policy, err = ParsePolicy(" Critical ")
	require.NoError(t, err)
	require.Equal(t, PolicyCritical, policy)

	policy, err = ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, PolicyCritical, policy)

	_, err = ParsePolicy("strict")
	require.Error(t, err)
}
