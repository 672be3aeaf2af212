package githubapi

import (
	"context"
)

const (
	// DefaultPageSize matches the largest page the platform list endpoints allow.
	DefaultPageSize = 100
)

// PageFetcher returns one page of items for the supplied 1-based page number.
type PageFetcher[Item any] func(requestContext context.Context, pageNumber int, pageSize int) ([]Item, error)

// Paginate drains every page of a listing before returning. The sequence is
// restartable per invocation, and callers must not begin dependent
// processing until the full listing is in hand.
func Paginate[Item any](requestContext context.Context, pageSize int, fetchPage PageFetcher[Item]) ([]Item, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	collectedItems := []Item{}
	for pageNumber := 1; ; pageNumber++ {
		pageItems, fetchError := fetchPage(requestContext, pageNumber, pageSize)
		if fetchError != nil {
			return nil, fetchError
		}

		collectedItems = append(collectedItems, pageItems...)
		if len(pageItems) < pageSize {
			return collectedItems, nil
		}
	}
}
