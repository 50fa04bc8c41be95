package crawlstatus

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type mapThresholds map[string]RetailerThresholds

func (m mapThresholds) Lookup(retailer string) RetailerThresholds {
	t, ok := m[retailer]
	if !ok {
		return RetailerThresholds(DefaultThresholds())
	}
	return t
}

func TestAnalyzeProgressOutlier(t *testing.T) {
	aggregator := NewAggregator(DefaultThresholds(), PolicyCritical)

	analysis := aggregator.Analyze(Record{
		Name: "Carrefour",
		Days: []string{
			"{'progress': 18.2, 'successPercent': 99}",
			"{'progress': 17.9, 'successPercent': 98}",
			"{'progress': '18.5', 'successPercent': 97}",
			"{'progress': 3.0, 'successPercent': 96}",
			"",
			"0",
		},
	})

	require.Equal(t, "Carrefour", analysis.Retailer)
	require.Len(t, analysis.Days, 6)
	require.True(t, analysis.Days[4].Empty())
	require.True(t, analysis.Days[5].Empty())

	require.Equal(t, []float64{18.2, 17.9, 18.5, 3.0}, analysis.Progress.Values)
	require.Equal(t, []float64{18.2, 17.9, 18.5}, analysis.Progress.Coherent)
	require.InDelta(t, 18.2, analysis.Progress.Average, 1e-9)
	// 18.2 is below 30 - 5
	require.Equal(t, Error, analysis.Progress.Status)

	require.InDelta(t, 97.5, analysis.Success.Average, 1e-9)
	require.Equal(t, Success, analysis.Success.Status)

	require.Equal(t, Error, analysis.Global)
}

func TestAnalyzePersistentOutage(t *testing.T) {
	aggregator := NewAggregator(DefaultThresholds(), PolicyCritical)

	analysis := aggregator.Analyze(Record{
		Name: "Casino",
		Days: []string{
			"{'progress': 45, 'successPercent': 0.0}",
			"{'progress': 44, 'successPercent': 0}",
			"{'progress': 46, 'successPercent': '0'}",
			"", "", "",
		},
	})

	require.Equal(t, []float64{0, 0, 0}, analysis.Success.Coherent)
	require.Equal(t, 0.0, analysis.Success.Average)
	require.Equal(t, 3, analysis.Success.ZeroDays)
	require.Equal(t, CriticalError, analysis.Success.Status)
	require.Equal(t, Success, analysis.Progress.Status)
	require.Equal(t, CriticalError, analysis.Global)

	simple := NewAggregator(DefaultThresholds(), PolicySimple).Analyze(Record{
		Name: "Casino",
		Days: []string{"{'progress': 45, 'successPercent': 0}"},
	})
	require.Equal(t, Error, simple.Success.Status)
}

func TestAnalyzeNoData(t *testing.T) {
	aggregator := NewAggregator(DefaultThresholds(), PolicyCritical)

	analysis := aggregator.Analyze(Record{Name: "Cora", Days: []string{"", "0", "garbage", "", "", ""}})
	require.Empty(t, analysis.Progress.Values)
	require.Equal(t, 0.0, analysis.Progress.Average)
	// no readings at all is not a persistent zero
	require.Equal(t, Error, analysis.Progress.Status)
	require.Equal(t, Error, analysis.Global)
}

func TestAnalyzeUsesCurrentReadingWithoutHistory(t *testing.T) {
	aggregator := NewAggregator(DefaultThresholds(), PolicyCritical)

	analysis := aggregator.Analyze(Record{
		Name:               "Monoprix",
		Current:            DaySnapshot{Progress: ptr(27), SuccessPercent: ptr(99)},
		HistoryUnavailable: true,
	})
	require.True(t, analysis.Progress.FromCurrent)
	require.Equal(t, Warning, analysis.Progress.Status)
	require.Equal(t, Success, analysis.Success.Status)
	require.Equal(t, Warning, analysis.Global)

	withHistory := aggregator.Analyze(Record{
		Name:               "Monoprix",
		Days:               []string{"{'progress': 80, 'successPercent': 99}"},
		Current:            DaySnapshot{Progress: ptr(2)},
		HistoryUnavailable: true,
	})
	require.False(t, withHistory.Progress.FromCurrent)
	require.Equal(t, Success, withHistory.Progress.Status)
}

func TestAnalyzeEmptyHistoryIgnoresLiveReading(t *testing.T) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal([]byte(`{
		"domainDealerName": "Monoprix",
		"day0": "", "day1": "0", "day2": "", "day3": "0", "day4": "", "day5": "",
		"crawlProgress": 98,
		"crawlSuccessProgress": 99
	}`), &fields)
	require.NoError(t, err)

	record := RecordFromJSON(fields)
	require.False(t, record.HistoryUnavailable)

	analysis := NewAggregator(DefaultThresholds(), PolicyCritical).Analyze(record)
	require.False(t, analysis.Progress.FromCurrent)
	require.False(t, analysis.Success.FromCurrent)
	require.Empty(t, analysis.Progress.Values)
	require.Equal(t, 0.0, analysis.Progress.Average)
	require.Equal(t, 0.0, analysis.Success.Average)
	require.Equal(t, Error, analysis.Progress.Status)
	require.Equal(t, Error, analysis.Success.Status)
	require.Equal(t, Error, analysis.Global)
}

func TestAnalyzeRetailerThresholds(t *testing.T) {
	thresholds := mapThresholds{
		"Franprix": {
			Progress: Threshold{WarningBand: DefaultWarningBand},
			Success:  NewThreshold(80),
		},
	}
	aggregator := NewAggregator(thresholds, PolicySimple)

	analysis := aggregator.Analyze(Record{
		Name: "Franprix",
		Days: []string{"{'progress': 1, 'successPercent': 76}"},
	})
	require.Equal(t, NA, analysis.Progress.Status)
	require.Equal(t, Warning, analysis.Success.Status)
	require.Equal(t, Warning, analysis.Global)

	other := aggregator.Analyze(Record{
		Name: "Leclerc",
		Days: []string{"{'progress': 1, 'successPercent': 76}"},
	})
	require.Equal(t, Error, other.Global)
}

func TestAnalyzeAllIsOrderIndependent(t *testing.T) {
	aggregator := NewAggregator(DefaultThresholds(), PolicyCritical)
	records := []Record{
		{Name: "A", Days: []string{"{'progress': 35, 'successPercent': 96}"}},
		{Name: "B", Days: []string{"{'progress': 0, 'successPercent': 0}", "{'progress': 0, 'successPercent': 0}", "{'progress': 0, 'successPercent': 0}"}},
		{Name: "C", Days: []string{"{'progress': 28, 'successPercent': 91}"}},
	}

	sequential := aggregator.AnalyzeAll(records)
	require.Equal(t, Success, sequential[0].Global)
	require.Equal(t, CriticalError, sequential[1].Global)
	require.Equal(t, Warning, sequential[2].Global)

	parallel := make([]Analysis, len(records))
	wg := sync.WaitGroup{}
	for i := len(records) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			parallel[i] = aggregator.Analyze(records[i])
		}(i)
	}
	wg.Wait()

	require.Equal(t, sequential, parallel)
}
