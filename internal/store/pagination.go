package store

// PageParams contains offset pagination request parameters.
type PageParams struct {
	Page  int // 1-based page number (defaults to 1)
	Limit int // Items per page (defaults to 20 with a maximum of 100)
}

// DefaultPageParams returns sensible defaults.
func DefaultPageParams() PageParams {
	return PageParams{Page: 1, Limit: 20}
}

// Validate checks and corrects page parameters.
func (p *PageParams) Validate() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// Offset returns the row offset for the current page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page contains one page of results plus enough metadata for clients to
// render pagers without a second query.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
}

// NewPage assembles a result page from items and the total row count.
func NewPage[T any](items []T, total int, params PageParams) *Page[T] {
	if items == nil {
		items = []T{}
	}

	pages := 0
	if params.Limit > 0 {
		pages = (total + params.Limit - 1) / params.Limit
	}

	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
		Pages:   pages,
		HasNext: params.Page*params.Limit < total,
	}
}
