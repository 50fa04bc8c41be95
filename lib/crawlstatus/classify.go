package crawlstatus

import (
	"fmt"
	"strings"
)

// DefaultWarningBand is how far below the success minimum a value can fall
// and still be a Warning.
const DefaultWarningBand = 5.0

// CriticalZeroDays is the number of zero readings that turns a zero average
// into a CriticalError under PolicyCritical.
const CriticalZeroDays = 3

// Threshold is the rule for one metric. A nil Min means no rule applies.
type Threshold struct {
	Min         *float64
	WarningBand float64
}

// NewThreshold returns a threshold with the default warning band.
func NewThreshold(minimum float64) Threshold {
	return Threshold{Min: &minimum, WarningBand: DefaultWarningBand}
}

// Policy selects how an average is mapped to a Status.
type Policy int

const (
	// PolicySimple yields Success, Warning or Error.
	PolicySimple Policy = iota
	// PolicyCritical behaves like PolicySimple except that a zero average is
	// always an Error, and a CriticalError once CriticalZeroDays or more of
	// the underlying readings were zero.
	PolicyCritical
)

func (p Policy) String() string {
	switch p {
	case PolicySimple:
		return "simple"
	case PolicyCritical:
		return "critical"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy reads a policy name, case insensitive. An empty name is PolicyCritical.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return PolicySimple, nil
	case "critical", "":
		return PolicyCritical, nil
	}
	return PolicySimple, fmt.Errorf("unknown classification policy %q", name)
}

// Classify maps an average against a threshold. zeroDays is the number of
// raw (pre coherence filter) readings that were exactly zero and only
// matters to PolicyCritical.
func (p Policy) Classify(value float64, threshold Threshold, zeroDays int) Status {
	if threshold.Min == nil {
		return NA
	}

	if p == PolicyCritical && value == 0 {
		if zeroDays >= CriticalZeroDays {
			return CriticalError
		}
		return Error
	}

	minimum := *threshold.Min
	switch {
	case value >= minimum:
		return Success
	case value >= minimum-threshold.WarningBand:
		return Warning
	default:
		return Error
	}
}
