package listmanager

import "time"

// State is the per-table list state. Every filter or sort mutation resets
// the page to 1; page size changes clamp the page into range.
type State struct {
	Filter     FilterState
	Sort       SortState
	Pagination Pagination
}

const DefaultItemsPerPage = 10

func NewState(itemsPerPage int) State {
	if itemsPerPage < 1 {
		itemsPerPage = DefaultItemsPerPage
	}
	return State{Pagination: Pagination{CurrentPage: 1, ItemsPerPage: itemsPerPage}}
}

func (s *State) resetPage() {
	s.Pagination.CurrentPage = 1
}

// SetFilter replaces the whole filter state, resetting the page only when
// the selection actually changed.
func (s *State) SetFilter(f FilterState) {
	if s.Filter.Equal(f) {
		return
	}
	s.Filter = f
	s.resetPage()
}

func (s *State) SetQuery(q string) {
	f := s.Filter
	f.Query = q
	s.SetFilter(f)
}

func (s *State) SetCategory(key string, selected ...string) {
	f := s.Filter
	categories := make(map[string][]string, len(f.Categories)+1)
	for k, v := range f.Categories {
		categories[k] = v
	}
	if len(selected) == 0 {
		delete(categories, key)
	} else {
		categories[key] = selected
	}
	f.Categories = categories
	s.SetFilter(f)
}

func (s *State) SetDatePreset(p DatePreset) {
	f := s.Filter
	f.DateRange = DateRange{Preset: p}
	s.SetFilter(f)
}

func (s *State) SetDateBounds(from, to *time.Time) {
	f := s.Filter
	f.DateRange = DateRange{From: from, To: to}
	s.SetFilter(f)
}

func (s *State) ClearFilters() {
	s.SetFilter(FilterState{})
}

func (s *State) ToggleSort(key string) {
	s.Sort = s.Sort.Toggle(key)
	s.resetPage()
}

func (s *State) SetSort(sort SortState) {
	if s.Sort == sort {
		return
	}
	s.Sort = sort
	s.resetPage()
}

// SetItemsPerPage changes the page size and clamps the current page for a
// collection of total items.
func (s *State) SetItemsPerPage(n, total int) {
	s.Pagination.ItemsPerPage = n
	s.Pagination = s.Pagination.Clamp(total)
}

// SetPage moves to page n, clamped into range for total items.
func (s *State) SetPage(n, total int) {
	s.Pagination.CurrentPage = n
	s.Pagination = s.Pagination.Clamp(total)
}
