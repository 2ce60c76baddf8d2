package listmanager

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDate
)

// Field describes how to read a sortable column from a record. Only the
// accessor matching Kind is consulted.
type Field[T any] struct {
	Kind   FieldKind
	Text   func(T) string
	Number func(T) (float64, bool)
	Date   func(T) (time.Time, bool)
}

func TextField[T any](get func(T) string) Field[T] {
	return Field[T]{Kind: KindText, Text: get}
}

func NumberField[T any](get func(T) (float64, bool)) Field[T] {
	return Field[T]{Kind: KindNumber, Number: get}
}

func DateField[T any](get func(T) (time.Time, bool)) Field[T] {
	return Field[T]{Kind: KindDate, Date: get}
}

type Config[T any] struct {
	// SearchFields are matched against FilterState.Query.
	SearchFields []func(T) string
	// Fuzzy switches the text predicate from substring to fuzzy matching.
	Fuzzy bool
	// Categories maps a filter key to the record's value for that key.
	Categories map[string]func(T) string
	DateField  func(T) (time.Time, bool)
	SortFields map[string]Field[T]
	Language   language.Tag
	Now        func() time.Time
}

// Manager applies filter, sort and pagination to in-memory collections.
// It holds no per-list state and is safe for concurrent use.
type Manager[T any] struct {
	cfg Config[T]
}

func New[T any](cfg Config[T]) *Manager[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}
	return &Manager[T]{cfg: cfg}
}

func (m *Manager[T]) HasSortKey(key string) bool {
	_, ok := m.cfg.SortFields[key]
	return ok
}

// ApplyFilters keeps the records that pass every active predicate, in their
// original order.
func (m *Manager[T]) ApplyFilters(records []T, f FilterState) []T {
	if f.IsZero() {
		return slices.Clone(records)
	}
	query := strings.TrimSpace(f.Query)
	now := m.cfg.Now()
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if query != "" && !m.matchesQuery(rec, query) {
			continue
		}
		if !m.matchesCategories(rec, f.Categories) {
			continue
		}
		if !f.DateRange.IsZero() && !m.matchesDate(rec, f.DateRange, now) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (m *Manager[T]) matchesQuery(rec T, query string) bool {
	match := containsFold
	if m.cfg.Fuzzy {
		match = fuzzyFold
	}
	for _, get := range m.cfg.SearchFields {
		if match(get(rec), query) {
			return true
		}
	}
	return false
}

func (m *Manager[T]) matchesCategories(rec T, categories map[string][]string) bool {
	for key, selected := range categories {
		if len(selected) == 0 {
			continue
		}
		get, ok := m.cfg.Categories[key]
		if !ok {
			return false
		}
		if !inSelection(get(rec), selected) {
			return false
		}
	}
	return true
}

func (m *Manager[T]) matchesDate(rec T, r DateRange, now time.Time) bool {
	if m.cfg.DateField == nil {
		return false
	}
	t, ok := m.cfg.DateField(rec)
	return r.contains(t, ok, now)
}

// ApplySort returns a stably sorted copy. An inactive sort or an unknown key
// returns the records in their original order.
func (m *Manager[T]) ApplySort(records []T, s SortState) []T {
	out := slices.Clone(records)
	if !s.Active() {
		return out
	}
	field, ok := m.cfg.SortFields[s.Key]
	if !ok {
		return out
	}
	desc := s.Direction == DirectionDesc

	switch field.Kind {
	case KindNumber:
		slices.SortStableFunc(out, func(a, b T) int {
			av, aok := field.Number(a)
			bv, bok := field.Number(b)
			return compareOptional(av, aok, bv, bok, desc, cmp.Compare[float64])
		})
	case KindDate:
		slices.SortStableFunc(out, func(a, b T) int {
			at, aok := field.Date(a)
			bt, bok := field.Date(b)
			return compareOptional(at, aok && !at.IsZero(), bt, bok && !bt.IsZero(), desc, func(x, y time.Time) int {
				return x.Compare(y)
			})
		})
	default:
		c := collate.New(m.cfg.Language, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b T) int {
			r := c.CompareString(field.Text(a), field.Text(b))
			if desc {
				return -r
			}
			return r
		})
	}
	return out
}

// compareOptional orders present values by cmpFn (reversed when desc) and
// always places absent values last.
func compareOptional[V any](a V, aok bool, b V, bok bool, desc bool, cmpFn func(V, V) int) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	r := cmpFn(a, b)
	if desc {
		return -r
	}
	return r
}

// View runs filter, sort and paginate for the given state.
func (m *Manager[T]) View(records []T, st State) Page[T] {
	filtered := m.ApplyFilters(records, st.Filter)
	sorted := m.ApplySort(filtered, st.Sort)
	p := st.Pagination.normalized()
	items, total := Paginate(sorted, p)
	return Page[T]{
		Items:        items,
		TotalItems:   total,
		TotalPages:   p.TotalPages(total),
		CurrentPage:  p.CurrentPage,
		ItemsPerPage: p.ItemsPerPage,
		Sort:         st.Sort,
	}
}
