package admin

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page is one slice of a longer operator list.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int
}

// Paginate returns the 1-based page of items. Out-of-range pages are empty;
// non-positive sizes use DefaultPageSize and sizes above MaxPageSize are capped.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	out := Page[T]{Items: []T{}, Page: page, PageSize: size, Total: len(items)}
	start := (page - 1) * size
	if start >= len(items) {
		return out
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	out.Items = items[start:end]
	return out
}
