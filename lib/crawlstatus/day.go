package crawlstatus

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// DaySnapshot is one day of crawl metrics for a retailer. A nil field means
// nothing was collected that day, which is not the same as a 0% reading.
type DaySnapshot struct {
	Progress       *float64
	SuccessPercent *float64
}

func (d DaySnapshot) Empty() bool {
	return d.Progress == nil && d.SuccessPercent == nil
}

// the dashboard sometimes serializes day blobs as python dict literals
var pythonLiteralRegex = regexp.MustCompile(`\b(None|True|False)\b`)

var pythonLiterals = map[string]string{
	"None":  "null",
	"True":  "true",
	"False": "false",
}

// ParseDay decodes the raw text of a day field. The blob is expected to be a
// mapping holding `progress` and `successPercent`, in JSON, JSON5 or python
// dict syntax. "" and "0" are the dashboard's "no data" sentinels.
//
// ParseDay never fails: any shape mismatch yields an empty snapshot.
func ParseDay(raw string) DaySnapshot {
	text := strings.TrimSpace(raw)
	if text == "" || text == "0" {
		return DaySnapshot{}
	}

	var fields map[string]any
	err := json5.Unmarshal([]byte(text), &fields)
	if err != nil {
		normalized := pythonLiteralRegex.ReplaceAllStringFunc(text, func(lit string) string {
			return pythonLiterals[lit]
		})
		fields = nil
		err = json5.Unmarshal([]byte(normalized), &fields)
		if err != nil {
			return DaySnapshot{}
		}
	}
	if fields == nil {
		return DaySnapshot{}
	}

	progress, ok := percentField(fields, "progress")
	if !ok {
		return DaySnapshot{}
	}
	success, ok := percentField(fields, "successPercent")
	if !ok {
		return DaySnapshot{}
	}
	return DaySnapshot{
		Progress:       progress,
		SuccessPercent: success,
	}
}

// percentField reads a percentage that may be encoded as a number or as
// numeric text. ok is false when the field has the wrong type or is outside
// [0, 100].
func percentField(fields map[string]any, key string) (value *float64, ok bool) {
	v, present := fields[key]
	if !present || v == nil {
		return nil, true
	}

	var f float64
	switch typed := v.(type) {
	case float64:
		f = typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		return nil, false
	}

	if math.IsNaN(f) || f < 0 || f > 100 {
		return nil, false
	}
	return &f, true
}
