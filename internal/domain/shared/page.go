package shared

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects one page of an ordered listing. Page is 1-based.
type PageRequest struct {
	Page     int
	PageSize int
	OrderBy  string
	Desc     bool
}

// FirstPage lists newest ids first
func FirstPage() PageRequest {
	return PageRequest{Page: 1, PageSize: DefaultPageSize, OrderBy: "id", Desc: true}
}

func (p PageRequest) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Page is one page of a listing plus the size of the whole listing
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	size := req.Limit()
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       max(req.Page, 1),
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}
}
