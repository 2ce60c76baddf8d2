package listmanager

import (
	"slices"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type DatePreset string

const (
	PresetAllTime   DatePreset = "All Time"
	PresetToday     DatePreset = "Today"
	PresetThisWeek  DatePreset = "This Week"
	PresetThisMonth DatePreset = "This Month"
)

// DateRange is either a named preset or explicit inclusive bounds; a nil
// bound leaves that side open. Explicit bounds win over the preset.
type DateRange struct {
	Preset DatePreset
	From   *time.Time
	To     *time.Time
}

func (r DateRange) IsZero() bool {
	return (r.Preset == "" || r.Preset == PresetAllTime) && r.From == nil && r.To == nil
}

// Window resolves the range against now. bounded is false when every
// record passes regardless of its date.
func (r DateRange) Window(now time.Time) (from, to time.Time, bounded bool) {
	if r.From != nil || r.To != nil {
		if r.From != nil {
			from = *r.From
		}
		if r.To != nil {
			to = *r.To
		}
		return from, to, true
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r.Preset {
	case PresetToday:
		return startOfDay, endOf(startOfDay, 0, 0, 1), true
	case PresetThisWeek:
		offset := (int(now.Weekday()) + 6) % 7 // Monday == 0
		monday := startOfDay.AddDate(0, 0, -offset)
		return monday, endOf(monday, 0, 0, 7), true
	case PresetThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, endOf(first, 0, 1, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func endOf(start time.Time, years, months, days int) time.Time {
	return start.AddDate(years, months, days).Add(-time.Nanosecond)
}

func (r DateRange) contains(t time.Time, ok bool, now time.Time) bool {
	from, to, bounded := r.Window(now)
	if !bounded {
		return true
	}
	if !ok || t.IsZero() {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// FilterState is the set of active filters. The zero value filters nothing.
type FilterState struct {
	Query      string
	Categories map[string][]string
	DateRange  DateRange
}

func (f FilterState) IsZero() bool {
	if strings.TrimSpace(f.Query) != "" || !f.DateRange.IsZero() {
		return false
	}
	for _, selected := range f.Categories {
		if len(selected) > 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two filter states select the same records.
func (f FilterState) Equal(other FilterState) bool {
	if strings.TrimSpace(f.Query) != strings.TrimSpace(other.Query) {
		return false
	}
	if !sameBound(f.DateRange.From, other.DateRange.From) || !sameBound(f.DateRange.To, other.DateRange.To) {
		return false
	}
	if presetOrAll(f.DateRange.Preset) != presetOrAll(other.DateRange.Preset) {
		return false
	}
	keys := make(map[string]struct{})
	for k := range f.Categories {
		keys[k] = struct{}{}
	}
	for k := range other.Categories {
		keys[k] = struct{}{}
	}
	for k := range keys {
		a, b := slices.Clone(f.Categories[k]), slices.Clone(other.Categories[k])
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}

func presetOrAll(p DatePreset) DatePreset {
	if p == "" {
		return PresetAllTime
	}
	return p
}

func sameBound(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func containsFold(value, query string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}

func fuzzyFold(value, query string) bool {
	return fuzzy.MatchNormalizedFold(query, value)
}

func inSelection(value string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	return slices.Contains(selected, value)
}
