package listmanager

// MaxPage bounds page numbers accepted from query strings.
const MaxPage = 1 << 20

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

func (p Pagination) normalized() Pagination {
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.ItemsPerPage < 1 {
		p.ItemsPerPage = 1
	}
	return p
}

// TotalPages is ceil(total / ItemsPerPage); zero items still report one page.
func (p Pagination) TotalPages(total int) int {
	p = p.normalized()
	if total <= 0 {
		return 1
	}
	return (total + p.ItemsPerPage - 1) / p.ItemsPerPage
}

// Clamp moves CurrentPage into [1, TotalPages(total)].
func (p Pagination) Clamp(total int) Pagination {
	p = p.normalized()
	if last := p.TotalPages(total); p.CurrentPage > last {
		p.CurrentPage = last
	}
	return p
}

// Paginate returns the slice for the current page and the total count. An
// out-of-range page yields an empty slice, never a panic.
func Paginate[T any](records []T, p Pagination) ([]T, int) {
	p = p.normalized()
	total := len(records)
	if total == 0 || p.CurrentPage > p.TotalPages(total) {
		return []T{}, total
	}
	start := (p.CurrentPage - 1) * p.ItemsPerPage
	end := min(start+p.ItemsPerPage, total)
	return records[start:end], total
}

type Page[T any] struct {
	Items        []T       `json:"items"`
	TotalItems   int       `json:"totalItems"`
	TotalPages   int       `json:"totalPages"`
	CurrentPage  int       `json:"currentPage"`
	ItemsPerPage int       `json:"itemsPerPage"`
	Sort         SortState `json:"sort"`
}
