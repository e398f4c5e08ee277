package lifecycle

import "context"

// BulkResult is the outcome of one item of a bulk operation. Exactly one of
// Value and Err is set.
type BulkResult[T any] struct {
	ID    string
	Value *T
	Err   error
}

func bulk[T any](ctx context.Context, ids []string, op func(context.Context, string) (*T, error)) []BulkResult[T] {
	results := make([]BulkResult[T], 0, len(ids))
	for _, id := range ids {
		v, err := op(ctx, id)
		results = append(results, BulkResult[T]{ID: id, Value: v, Err: err})
	}
	return results
}

// Failed returns the results that carry an error.
func Failed[T any](results []BulkResult[T]) []BulkResult[T] {
	var out []BulkResult[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
