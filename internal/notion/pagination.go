package notion

import "context"

// Envelope is the remote service's list response shape, shared by search,
// database query and block children endpoints.
type Envelope[T any] struct {
	Object     string  `json:"object"`
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// PageFunc fetches one page at the given cursor. An empty cursor requests the
// first page.
type PageFunc[T any] func(ctx context.Context, cursor string) (Envelope[T], error)

// CollectAll drives cursor pagination to exhaustion: results are concatenated
// in server order across pages, and the first page error aborts the whole
// collection. No page size is assumed; the server may return fewer items than
// requested on any page.
func CollectAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var out []T
	cursor := ""
	for {
		envelope, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, envelope.Results...)
		if !envelope.HasMore || envelope.NextCursor == nil || *envelope.NextCursor == "" {
			return out, nil
		}
		cursor = *envelope.NextCursor
	}
}
