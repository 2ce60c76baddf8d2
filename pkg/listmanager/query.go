package listmanager

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type QueryOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	Location        *time.Location
}

// ParseQuery builds a State from list query parameters:
//
//	q, category.<key> (repeatable or comma separated), range (preset),
//	from/to (YYYY-MM-DD, inclusive), sort, dir, page, per_page.
//
// Malformed values are ignored rather than rejected.
func ParseQuery(values url.Values, opts QueryOptions) State {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	st := NewState(opts.DefaultPageSize)

	st.Filter.Query = strings.TrimSpace(values.Get("q"))

	for key, raw := range values {
		name, ok := strings.CutPrefix(key, "category.")
		if !ok || name == "" {
			continue
		}
		var selected []string
		for _, v := range raw {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					selected = append(selected, part)
				}
			}
		}
		if len(selected) > 0 {
			if st.Filter.Categories == nil {
				st.Filter.Categories = make(map[string][]string)
			}
			st.Filter.Categories[name] = selected
		}
	}

	switch p := DatePreset(values.Get("range")); p {
	case PresetToday, PresetThisWeek, PresetThisMonth:
		st.Filter.DateRange.Preset = p
	}
	if t, err := time.ParseInLocation(dateLayout, values.Get("from"), loc); err == nil {
		st.Filter.DateRange.From = &t
	}
	if t, err := time.ParseInLocation(dateLayout, values.Get("to"), loc); err == nil {
		end := endOf(t, 0, 0, 1)
		st.Filter.DateRange.To = &end
	}

	if key := strings.TrimSpace(values.Get("sort")); key != "" {
		st.Sort = SortState{Key: key, Direction: ParseDirection(values.Get("dir"))}
	}

	if n, err := strconv.Atoi(values.Get("per_page")); err == nil && n > 0 {
		if opts.MaxPageSize > 0 && n > opts.MaxPageSize {
			n = opts.MaxPageSize
		}
		st.Pagination.ItemsPerPage = n
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 0 {
		st.Pagination.CurrentPage = min(n, MaxPage)
	}
	return st
}
