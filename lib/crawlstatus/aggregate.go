package crawlstatus

// RetailerThresholds holds the rules of every metric of a retailer.
type RetailerThresholds struct {
	Progress Threshold
	Success  Threshold
}

// Thresholds resolves the rules that apply to a retailer.
type Thresholds interface {
	Lookup(retailer string) RetailerThresholds
}

// StaticThresholds applies the same rules to every retailer.
type StaticThresholds RetailerThresholds

func (s StaticThresholds) Lookup(string) RetailerThresholds {
	return RetailerThresholds(s)
}

// DefaultThresholds are the baselines of the daily dealer report: 30%
// progress and 95% success.
func DefaultThresholds() StaticThresholds {
	return StaticThresholds{
		Progress: NewThreshold(30),
		Success:  NewThreshold(95),
	}
}

// MetricAnalysis is the outcome of aggregating one metric.
type MetricAnalysis struct {
	// Values are the readings that were present, in day order.
	Values   []float64
	Coherent []float64
	Average  float64
	ZeroDays int
	// FromCurrent is set when the record carried no day history and the
	// live reading of the ongoing crawl was used instead.
	FromCurrent bool
	Threshold   Threshold
	Status      Status
}

// Analysis is everything a report needs to render one retailer.
type Analysis struct {
	Retailer string
	Days     []DaySnapshot
	Progress MetricAnalysis
	Success  MetricAnalysis
	Global   Status
}

// Aggregator turns raw retailer records into classified analyses. It holds
// no mutable state and is safe for concurrent use.
type Aggregator struct {
	Thresholds   Thresholds
	Policy       Policy
	MaxDeviation float64
}

func NewAggregator(thresholds Thresholds, policy Policy) Aggregator {
	return Aggregator{
		Thresholds:   thresholds,
		Policy:       policy,
		MaxDeviation: DefaultMaxDeviation,
	}
}

func (a Aggregator) Analyze(record Record) Analysis {
	days := make([]DaySnapshot, len(record.Days))
	var progress, success []float64
	for i, raw := range record.Days {
		day := ParseDay(raw)
		days[i] = day
		if day.Progress != nil {
			progress = append(progress, *day.Progress)
		}
		if day.SuccessPercent != nil {
			success = append(success, *day.SuccessPercent)
		}
	}

	var currentProgress, currentSuccess *float64
	if record.HistoryUnavailable {
		currentProgress = record.Current.Progress
		currentSuccess = record.Current.SuccessPercent
	}

	thresholds := a.thresholdsFor(record.Name)
	result := Analysis{
		Retailer: record.Name,
		Days:     days,
		Progress: a.analyzeMetric(progress, currentProgress, thresholds.Progress),
		Success:  a.analyzeMetric(success, currentSuccess, thresholds.Success),
	}
	result.Global = WorstOf(result.Progress.Status, result.Success.Status)
	return result
}

// AnalyzeAll analyzes every record, keeping input order.
func (a Aggregator) AnalyzeAll(records []Record) []Analysis {
	out := make([]Analysis, len(records))
	for i, r := range records {
		out[i] = a.Analyze(r)
	}
	return out
}

func (a Aggregator) thresholdsFor(retailer string) RetailerThresholds {
	if a.Thresholds == nil {
		return RetailerThresholds(DefaultThresholds())
	}
	return a.Thresholds.Lookup(retailer)
}

func (a Aggregator) analyzeMetric(values []float64, current *float64, threshold Threshold) MetricAnalysis {
	m := MetricAnalysis{
		Values:    values,
		Threshold: threshold,
	}
	if len(values) == 0 && current != nil {
		m.Values = []float64{*current}
		m.FromCurrent = true
	}

	maxDeviation := a.MaxDeviation
	if maxDeviation <= 0 {
		maxDeviation = DefaultMaxDeviation
	}

	m.Coherent = FilterCoherent(m.Values, maxDeviation)
	m.Average = Average(m.Coherent)
	m.ZeroDays = CountZeroDays(m.Values)
	m.Status = a.Policy.Classify(m.Average, threshold, m.ZeroDays)
	return m
}
