package collection

// DefaultPerPage is used when a view does not configure its own page size.
const DefaultPerPage = 20

// Pagination mirrors the API's pagination block.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// Cursor selects one page of a collection.
type Cursor struct {
	Page    int
	PerPage int
}

// normalize fills fields the API left out. last_page is derived as ceil(total/per_page) with a
// floor of 1 so an empty collection still has one (empty) page.
func (p Pagination) normalize(cur Cursor) Pagination {
	if p.PerPage <= 0 {
		p.PerPage = cur.PerPage
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.CurrentPage <= 0 {
		p.CurrentPage = cur.Page
	}
	if p.LastPage <= 0 {
		p.LastPage = LastPage(p.Total, p.PerPage)
	}
	return p
}

// LastPage computes the number of pages needed for total records.
func LastPage(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return last
}

// StartRow returns the 1-indexed first row shown, or 0 for an empty page.
func (p Pagination) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return (p.CurrentPage-1)*p.PerPage + 1
}

// EndRow returns the 1-indexed last row shown.
func (p Pagination) EndRow() int {
	end := p.CurrentPage * p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// PageNumbers returns at most five page numbers centred on the current page.
func (p Pagination) PageNumbers() []int {
	const maxButtons = 5
	if p.LastPage < 1 {
		return nil
	}
	start := p.CurrentPage - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.LastPage {
		end = p.LastPage
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
