package listmanager

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matter struct {
	ID       int
	Client   string
	Title    string
	Practice string
	Amount   float64
	HasAmt   bool
	Opened   time.Time
}

var fixedNow = time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC) // Wednesday

func newManager(fuzzy bool) *Manager[matter] {
	return New(Config[matter]{
		SearchFields: []func(matter) string{
			func(m matter) string { return m.Client },
			func(m matter) string { return m.Title },
		},
		Fuzzy: fuzzy,
		Categories: map[string]func(matter) string{
			"practice": func(m matter) string { return m.Practice },
		},
		DateField: func(m matter) (time.Time, bool) { return m.Opened, !m.Opened.IsZero() },
		SortFields: map[string]Field[matter]{
			"client": TextField(func(m matter) string { return m.Client }),
			"amount": NumberField(func(m matter) (float64, bool) { return m.Amount, m.HasAmt }),
			"opened": DateField(func(m matter) (time.Time, bool) { return m.Opened, !m.Opened.IsZero() }),
		},
		Now: func() time.Time { return fixedNow },
	})
}

func fixtures() []matter {
	return []matter{
		{ID: 1, Client: "Acme Corp", Title: "Lease dispute", Practice: "litigation", Amount: 300, HasAmt: true, Opened: fixedNow},
		{ID: 2, Client: "beta llc", Title: "Merger", Practice: "corporate", Amount: 100, HasAmt: true, Opened: fixedNow.AddDate(0, 0, -2)},
		{ID: 3, Client: "Acme, Inc.", Title: "Trademark", Practice: "ip", Opened: time.Time{}},
		{ID: 4, Client: "Zeta", Title: "Audit", Practice: "corporate", Amount: 200, HasAmt: true, Opened: fixedNow.AddDate(0, -2, 0)},
		{ID: 5, Client: "alpha", Title: "Employment", Practice: "litigation", Amount: 50, HasAmt: true, Opened: fixedNow.AddDate(0, 0, -6)},
	}
}

func ids(ms []matter) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestApplyFilters_QueryIsTrimmedAndCaseInsensitive(t *testing.T) {
	m := newManager(false)
	for _, q := range []string{"Acme", "acme ", "  ACME"} {
		got := m.ApplyFilters(fixtures(), FilterState{Query: q})
		require.Equal(t, []int{1, 3}, ids(got), "query %q", q)
	}
	require.Equal(t, []int{2}, ids(m.ApplyFilters(fixtures(), FilterState{Query: "merg"})))
}

func TestApplyFilters_ZeroStateIsIdentity(t *testing.T) {
	m := newManager(false)
	got := m.ApplyFilters(fixtures(), FilterState{Categories: map[string][]string{"practice": {}}})
	require.Equal(t, ids(fixtures()), ids(got))
}

func TestApplyFilters_AllPredicatesMustMatch(t *testing.T) {
	m := newManager(false)
	f := FilterState{
		Query:      "a",
		Categories: map[string][]string{"practice": {"litigation", "corporate"}},
		DateRange:  DateRange{Preset: PresetThisWeek},
	}
	require.Equal(t, []int{1, 2}, ids(m.ApplyFilters(fixtures(), f)))
}

func TestApplyFilters_UnknownCategoryKeyMatchesNothing(t *testing.T) {
	m := newManager(false)
	f := FilterState{Categories: map[string][]string{"status": {"open"}}}
	require.Empty(t, m.ApplyFilters(fixtures(), f))
}

func TestApplyFilters_DatePresets(t *testing.T) {
	m := newManager(false)
	cases := map[DatePreset][]int{
		PresetToday:     {1},
		PresetThisWeek:  {1, 2},
		PresetThisMonth: {1, 2, 5},
		PresetAllTime:   {1, 2, 3, 4, 5},
	}
	for preset, want := range cases {
		got := m.ApplyFilters(fixtures(), FilterState{DateRange: DateRange{Preset: preset}})
		assert.Equal(t, want, ids(got), "preset %s", preset)
	}
}

func TestApplyFilters_ExplicitBoundsExcludeUndated(t *testing.T) {
	m := newManager(false)
	from := fixedNow.AddDate(0, 0, -10)
	got := m.ApplyFilters(fixtures(), FilterState{DateRange: DateRange{From: &from}})
	require.Equal(t, []int{1, 2, 5}, ids(got))
}

func TestApplyFilters_Idempotent(t *testing.T) {
	m := newManager(false)
	states := []FilterState{
		{},
		{Query: "acme"},
		{Categories: map[string][]string{"practice": {"corporate"}}},
		{DateRange: DateRange{Preset: PresetThisMonth}, Query: "e"},
	}
	for _, f := range states {
		once := m.ApplyFilters(fixtures(), f)
		twice := m.ApplyFilters(once, f)
		require.Equal(t, ids(once), ids(twice))
	}
}

func TestApplyFilters_Fuzzy(t *testing.T) {
	m := newManager(true)
	require.Equal(t, []int{1}, ids(m.ApplyFilters(fixtures(), FilterState{Query: "lsdisp"})))
}

func TestApplySort_TextCollationIgnoresCase(t *testing.T) {
	m := newManager(false)
	got := m.ApplySort(fixtures(), SortState{Key: "client", Direction: DirectionAsc})
	require.Equal(t, []int{1, 3, 5, 2, 4}, ids(got))

	got = m.ApplySort(fixtures(), SortState{Key: "client", Direction: DirectionDesc})
	require.Equal(t, []int{4, 2, 5, 3, 1}, ids(got))
}

func TestApplySort_NumericAndMissingLast(t *testing.T) {
	m := newManager(false)
	asc := m.ApplySort(fixtures(), SortState{Key: "amount", Direction: DirectionAsc})
	require.Equal(t, []int{5, 2, 4, 1, 3}, ids(asc))
	desc := m.ApplySort(fixtures(), SortState{Key: "amount", Direction: DirectionDesc})
	require.Equal(t, []int{1, 4, 2, 5, 3}, ids(desc))
}

func TestApplySort_UndatedSortsLastBothDirections(t *testing.T) {
	m := newManager(false)
	asc := m.ApplySort(fixtures(), SortState{Key: "opened", Direction: DirectionAsc})
	require.Equal(t, []int{4, 5, 2, 1, 3}, ids(asc))
	desc := m.ApplySort(fixtures(), SortState{Key: "opened", Direction: DirectionDesc})
	require.Equal(t, []int{1, 2, 5, 4, 3}, ids(desc))
}

func TestApplySort_IsStable(t *testing.T) {
	m := newManager(false)
	records := []matter{
		{ID: 1, Client: "same"}, {ID: 2, Client: "SAME"}, {ID: 3, Client: "Same"},
	}
	require.Equal(t, []int{1, 2, 3}, ids(m.ApplySort(records, SortState{Key: "client", Direction: DirectionAsc})))
}

func TestToggleSort_ThreeCyclesRestoreNaturalOrder(t *testing.T) {
	m := newManager(false)
	for _, key := range []string{"client", "amount", "opened"} {
		var s SortState
		s = s.Toggle(key)
		require.Equal(t, DirectionAsc, s.Direction)
		s = s.Toggle(key)
		require.Equal(t, DirectionDesc, s.Direction)
		s = s.Toggle(key)
		require.False(t, s.Active())
		require.Equal(t, ids(fixtures()), ids(m.ApplySort(fixtures(), s)))
	}
}

func TestToggleSort_NewKeyStartsAscending(t *testing.T) {
	s := SortState{Key: "client", Direction: DirectionDesc}
	require.Equal(t, SortState{Key: "amount", Direction: DirectionAsc}, s.Toggle("amount"))
}

func TestPaginate_PagesPartitionCollection(t *testing.T) {
	for total := 0; total <= 23; total++ {
		records := make([]int, total)
		for i := range records {
			records[i] = i
		}
		for per := 1; per <= 7; per++ {
			p := Pagination{ItemsPerPage: per}
			seen := make(map[int]bool)
			sum := 0
			for page := 1; page <= p.TotalPages(total); page++ {
				p.CurrentPage = page
				items, n := Paginate(records, p)
				require.Equal(t, total, n)
				sum += len(items)
				for _, it := range items {
					require.False(t, seen[it], "overlap total=%d per=%d", total, per)
					seen[it] = true
				}
			}
			require.Equal(t, total, sum, fmt.Sprintf("total=%d per=%d", total, per))
		}
	}
}

func TestPaginate_OutOfRangeIsEmpty(t *testing.T) {
	items, total := Paginate([]int{1, 2, 3}, Pagination{CurrentPage: 9, ItemsPerPage: 2})
	require.Empty(t, items)
	require.Equal(t, 3, total)
}

func TestPaginate_HugePageDoesNotOverflow(t *testing.T) {
	items, total := Paginate([]int{1, 2, 3}, Pagination{CurrentPage: math.MaxInt, ItemsPerPage: 100})
	require.Empty(t, items)
	require.Equal(t, 3, total)

	st := ParseQuery(url.Values{"page": {strconv.Itoa(math.MaxInt)}, "per_page": {"100"}}, QueryOptions{DefaultPageSize: 10, MaxPageSize: 100})
	require.Equal(t, MaxPage, st.Pagination.CurrentPage)

	page := New(Config[int]{}).View([]int{1, 2, 3}, st)
	require.Empty(t, page.Items)
	require.Equal(t, 3, page.TotalItems)
}

func TestState_ChangesResetOrClampPage(t *testing.T) {
	st := NewState(10)
	st.SetPage(4, 45)
	require.Equal(t, 4, st.Pagination.CurrentPage)

	st.SetQuery("acme")
	require.Equal(t, 1, st.Pagination.CurrentPage)

	st.SetPage(3, 45)
	st.SetQuery("acme ")
	require.Equal(t, 3, st.Pagination.CurrentPage, "equivalent query keeps the page")

	st.SetCategory("practice", "ip")
	require.Equal(t, 1, st.Pagination.CurrentPage)

	st.SetPage(5, 45)
	st.ToggleSort("client")
	require.Equal(t, 1, st.Pagination.CurrentPage)

	st.SetPage(5, 45)
	st.SetItemsPerPage(20, 45)
	require.Equal(t, 3, st.Pagination.CurrentPage)

	st.SetPage(99, 45)
	require.Equal(t, 3, st.Pagination.CurrentPage)

	st.SetDatePreset(PresetToday)
	require.Equal(t, 1, st.Pagination.CurrentPage)
}

func TestView(t *testing.T) {
	m := newManager(false)
	st := NewState(2)
	st.SetCategory("practice", "litigation", "corporate")
	st.ToggleSort("amount")
	st.SetPage(2, 4)

	page := m.View(fixtures(), st)
	require.Equal(t, 4, page.TotalItems)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, []int{4, 1}, ids(page.Items))
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"q":                 {" acme "},
		"category.practice": {"litigation,ip", "corporate"},
		"category.empty":    {" , "},
		"range":             {"This Week"},
		"from":              {"2025-01-01"},
		"to":                {"2025-01-31"},
		"sort":              {"client"},
		"dir":               {"desc"},
		"page":              {"3"},
		"per_page":          {"500"},
	}
	st := ParseQuery(values, QueryOptions{DefaultPageSize: 10, MaxPageSize: 100})

	require.Equal(t, "acme", st.Filter.Query)
	require.Equal(t, []string{"litigation", "ip", "corporate"}, st.Filter.Categories["practice"])
	require.NotContains(t, st.Filter.Categories, "empty")
	require.Equal(t, PresetThisWeek, st.Filter.DateRange.Preset)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *st.Filter.DateRange.From)
	require.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), *st.Filter.DateRange.To)
	require.Equal(t, SortState{Key: "client", Direction: DirectionDesc}, st.Sort)
	require.Equal(t, Pagination{CurrentPage: 3, ItemsPerPage: 100}, st.Pagination)
}

func TestParseQuery_IgnoresMalformed(t *testing.T) {
	st := ParseQuery(url.Values{"page": {"x"}, "per_page": {"-1"}, "dir": {"sideways"}, "sort": {"client"}, "range": {"Yesterday"}}, QueryOptions{DefaultPageSize: 25})
	require.Equal(t, Pagination{CurrentPage: 1, ItemsPerPage: 25}, st.Pagination)
	require.False(t, st.Sort.Active())
	require.True(t, st.Filter.IsZero())
}
