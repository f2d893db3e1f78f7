// Package paging provides pagination primitives shared by the dashboard
// controllers: normalized collection pages, a bounded page-number strip
// planner, and client-side slicing over already-fetched sets.
package paging

// CollectionPage describes one page of a remote collection along with the
// pagination metadata the server reported for it.
type CollectionPage[T any] struct {
	Items       []T
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
}

// NewCollectionPage builds a page with normalized metadata:
// TotalPages == ceil(TotalItems/PageSize) with a minimum of 1, and
// CurrentPage clamped into [1, TotalPages].
func NewCollectionPage[T any](items []T, currentPage, pageSize, totalItems int) CollectionPage[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	if totalItems < 0 {
		totalItems = 0
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	return CollectionPage[T]{
		Items:       items,
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
	}
}

// Slice returns the page-th slice of perPage items from an already-fetched
// set. Pages are 1-based. Out-of-range pages return an empty slice.
func Slice[T any](items []T, page, perPage int) []T {
	if page < 1 || perPage <= 0 {
		return nil
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}

	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}
