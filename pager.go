package datagrid

// pageWindow is how many page links are shown on each side of the current page
const pageWindow = 10

// Pager is the navigation state of the footer
type Pager struct {
	Page    int
	Pages   int
	Start   int // first page link shown
	End     int // last page link shown
	HasPrev bool
	HasNext bool
}

// NewPager computes navigation for total rows split into pages of perPage
func NewPager(total, perPage, page int) Pager {
	if perPage < 1 {
		perPage = DefaultResultsPerPage
	}
	page = min(max(page, 1), MaxPage)
	pages := (total + perPage - 1) / perPage
	if total <= 0 {
		pages = 0
	}

	p := Pager{
		Page:    page,
		Pages:   pages,
		Start:   max(1, page-pageWindow),
		End:     min(pages, page+pageWindow),
		HasPrev: page > 1,
		HasNext: page < pages,
	}
	return p
}

// Links returns the page numbers of the visible window
func (p Pager) Links() []int {
	var links []int
	for i := p.Start; i <= p.End; i++ {
		links = append(links, i)
	}
	return links
}

// rowNumber is the 1-based position of the i-th row of the page in the result
func rowNumber(page, perPage, i int) int {
	return (min(page, MaxPage)-1)*perPage + i + 1
}
