package crawlstatus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DayCount is the size of the day window the dashboard exposes (day0..day5).
const DayCount = 6

// Record is the raw overview row of one retailer.
type Record struct {
	Name string
	// Days holds the raw text of each day field, most recent first.
	Days []string
	// Current holds the live progress / success percentages of the
	// ongoing crawl, when the source exposes them.
	Current DaySnapshot
	// HistoryUnavailable is set by sources that carry no day window at all,
	// such as the html dashboard. Only then is Current classified in place of
	// the history. An empty history otherwise averages to 0.
	HistoryUnavailable bool
}

var nameKeys = []string{"domainDealerName", "name", "dealer", "domain_dealer", "store_name"}

// RecordFromJSON builds a Record out of the fields of one overview row. Day
// fields may be strings holding a serialized mapping, inline objects, numbers
// or null.
func RecordFromJSON(fields map[string]json.RawMessage) Record {
	record := Record{Name: "Unknown"}
	for _, key := range nameKeys {
		name := jsonText(fields[key])
		if strings.TrimSpace(name) != "" {
			record.Name = strings.TrimSpace(name)
			break
		}
	}

	for i := 0; i < DayCount; i++ {
		record.Days = append(record.Days, jsonText(fields[fmt.Sprintf("day%d", i)]))
	}

	record.Current = DaySnapshot{
		Progress:       jsonPercent(fields["crawlProgress"]),
		SuccessPercent: jsonPercent(fields["crawlSuccessProgress"]),
	}
	return record
}

// jsonText returns the contents of a JSON string, or the raw JSON text for
// any other value. null and missing fields are "".
func jsonText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return text
}

func jsonPercent(raw json.RawMessage) *float64 {
	text := strings.TrimSpace(jsonText(raw))
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
	if err != nil || f < 0 || f > 100 {
		return nil
	}
	return &f
}
