package thresholds

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"spidervision-report/lib/configutil"
	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/textutil"

	"github.com/antzucaro/matchr"
)

// MinSimilarity is the lowest Jaro-Winkler similarity at which a retailer
// name is considered to be a spelling variant of a configured one.
const MinSimilarity = 0.92

var ErrInvalidEntry = errors.New("invalid threshold entry")

// File is the shape of thresholds.json5. Entries are kept as loose maps so
// that an explicit null ("no rule") can be told apart from an unset key
// ("inherit the default").
//
//	{
//	  policy: "critical",
//	  max_deviation: 5,
//	  default: {progress_min: 30, success_min: 95, warning_band: 5},
//	  retailers: {
//	    "Intermarché": {progress_min: 10},
//	    "Cora": {progress_min: null},
//	  },
//	}
type File struct {
	Policy       string                    `json:"policy"`
	MaxDeviation float64                   `json:"max_deviation"`
	Default      map[string]any            `json:"default"`
	Retailers    map[string]map[string]any `json:"retailers"`
}

type override struct {
	progressSet bool
	progress    *float64
	successSet  bool
	success     *float64
	band        *float64
}

type entry struct {
	name     string
	override override
}

// Table resolves retailer thresholds from a loaded File.
type Table struct {
	Policy       crawlstatus.Policy
	MaxDeviation float64

	defaults crawlstatus.RetailerThresholds
	entries  map[string]entry
	keys     []string
}

func Load(path string) (Table, error) {
	file, err := configutil.ReadConfig[File](path)
	if err != nil {
		return Table{}, err
	}
	return FromFile(file)
}

// LoadOrDefault is Load, falling back to the default table when the file
// does not exist.
func LoadOrDefault(path string) (Table, error) {
	table, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no thresholds file, using default thresholds", "path", path)
		return Default(), nil
	}
	return table, err
}

// Default is the table used when nothing is configured.
func Default() Table {
	return Table{
		Policy:       crawlstatus.PolicyCritical,
		MaxDeviation: crawlstatus.DefaultMaxDeviation,
		defaults:     crawlstatus.RetailerThresholds(crawlstatus.DefaultThresholds()),
		entries:      map[string]entry{},
	}
}

func FromFile(file File) (Table, error) {
	table := Default()

	policy, err := crawlstatus.ParsePolicy(file.Policy)
	if err != nil {
		return Table{}, err
	}
	table.Policy = policy

	if file.MaxDeviation < 0 {
		return Table{}, fmt.Errorf("max_deviation must be positive, got %v", file.MaxDeviation)
	}
	if file.MaxDeviation > 0 {
		table.MaxDeviation = file.MaxDeviation
	}

	defaults, err := parseOverride(file.Default)
	if err != nil {
		return Table{}, fmt.Errorf("default: %w", err)
	}
	table.defaults = defaults.apply(table.defaults)

	for name, fields := range file.Retailers {
		o, err := parseOverride(fields)
		if err != nil {
			return Table{}, fmt.Errorf("retailer %q: %w", name, err)
		}
		key := textutil.NormalizeName(name)
		if _, exists := table.entries[key]; exists {
			return Table{}, fmt.Errorf("retailer %q is configured more than once", name)
		}
		table.entries[key] = entry{name: name, override: o}
		table.keys = append(table.keys, key)
	}
	sort.Strings(table.keys)

	return table, nil
}

// Defaults are the thresholds applied to retailers without an entry.
func (t Table) Defaults() crawlstatus.RetailerThresholds {
	return t.defaults
}

// Lookup resolves the thresholds of a retailer: an exact match on the
// normalized name, else the closest configured name above MinSimilarity,
// else the defaults.
func (t Table) Lookup(retailer string) crawlstatus.RetailerThresholds {
	e, ok := t.match(retailer)
	if !ok {
		return t.defaults
	}
	return e.override.apply(t.defaults)
}

func (t Table) match(retailer string) (entry, bool) {
	key := textutil.NormalizeName(retailer)
	if e, ok := t.entries[key]; ok {
		return e, true
	}
	if key == "" {
		return entry{}, false
	}

	var best string
	var bestSimilarity float64
	for _, candidate := range t.keys {
		similarity := matchr.JaroWinkler(key, candidate, false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = candidate
		}
	}
	if bestSimilarity < MinSimilarity {
		return entry{}, false
	}

	e := t.entries[best]
	slog.Debug(
		"matched retailer thresholds by similarity",
		"retailer", retailer,
		"configured", e.name,
		"similarity", bestSimilarity,
	)
	return e, true
}

func (o override) apply(base crawlstatus.RetailerThresholds) crawlstatus.RetailerThresholds {
	out := base
	if o.progressSet {
		out.Progress.Min = o.progress
	}
	if o.successSet {
		out.Success.Min = o.success
	}
	if o.band != nil {
		out.Progress.WarningBand = *o.band
		out.Success.WarningBand = *o.band
	}
	return out
}

func parseOverride(fields map[string]any) (override, error) {
	var o override
	for key, value := range fields {
		switch key {
		case "progress_min":
			v, err := percent(key, value)
			if err != nil {
				return o, err
			}
			o.progressSet = true
			o.progress = v
		case "success_min":
			v, err := percent(key, value)
			if err != nil {
				return o, err
			}
			o.successSet = true
			o.success = v
		case "warning_band":
			v, err := percent(key, value)
			if err != nil {
				return o, err
			}
			if v == nil {
				return o, fmt.Errorf("%w: warning_band cannot be null", ErrInvalidEntry)
			}
			o.band = v
		default:
			return o, fmt.Errorf("%w: unknown key %q", ErrInvalidEntry, key)
		}
	}
	return o, nil
}

func percent(key string, value any) (*float64, error) {
	if value == nil {
		return nil, nil
	}
	f, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number or null, got %T", ErrInvalidEntry, key, value)
	}
	if f < 0 || f > 100 {
		return nil, fmt.Errorf("%w: %s must be within [0, 100], got %v", ErrInvalidEntry, key, f)
	}
	return &f, nil
}
