package timezone

import (
	"fmt"
	"time"
)

// DefaultLocation is where the crawl team reads the daily report.
const DefaultLocation = "Europe/Paris"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation(DefaultLocation)
	if err != nil {
		panic(err)
	}
}

// Set changes the report timezone, an empty name keeps the current one.
func Set(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	Location = loc
	return nil
}

// report dates are computed in the report timezone because the scheduler may
// run in UTC, which shifts the report day around midnight.
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay truncates t to midnight in the report timezone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
