package crawlstatus

import (
	"fmt"
)

// Status is the health of a retailer metric. Higher values are more severe.
type Status int

const (
	NA Status = iota
	Success
	Warning
	Error
	CriticalError
)

var statusNames = map[Status]string{
	NA:            "N/A",
	Success:       "Success",
	Warning:       "Warning",
	Error:         "Error",
	CriticalError: "Critical-Error",
}

var statusClasses = map[Status]string{
	NA:            "na",
	Success:       "success",
	Warning:       "warning",
	Error:         "error",
	CriticalError: "error-critical",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return name
}

// Class is the css class the report templates use for a status.
func (s Status) Class() string {
	class, ok := statusClasses[s]
	if !ok {
		return statusClasses[NA]
	}
	return class
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return NA, fmt.Errorf("unknown status %q", name)
}

// WorstOf returns the more severe of a and b, a wins ties.
func WorstOf(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Worst folds WorstOf over every status, an empty list is NA.
func Worst(statuses ...Status) Status {
	result := NA
	for i, s := range statuses {
		if i == 0 {
			result = s
			continue
		}
		result = WorstOf(result, s)
	}
	return result
}

// Statuses lists every status from least to most severe.
func Statuses() []Status {
	return []Status{NA, Success, Warning, Error, CriticalError}
}
