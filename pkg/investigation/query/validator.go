package query

import (
	"context"
	"fmt"

	"mercator-hq/ganymede/pkg/investigation"
)

const (
	// DefaultLimit is the page size applied when a query carries none.
	DefaultLimit = 100

	// MaxLimit caps a single page.
	MaxLimit = 10000
)

// Validate checks a query's parameters. Scope comes first: a non-admin query
// without tenant_id fails with ErrMissingTenantScope regardless of its other
// fields.
func Validate(q *investigation.Query) error {
	if q == nil {
		return investigation.NewValidationError("query", "query is nil")
	}

	if q.TenantID == "" && !q.AdminScope {
		return investigation.ErrMissingTenantScope
	}

	if q.Limit < 0 {
		return investigation.NewValidationError("limit",
			fmt.Sprintf("must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return investigation.NewValidationError("limit",
			fmt.Sprintf("must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Since != nil && q.Until != nil && q.Since.After(*q.Until) {
		return investigation.NewValidationError("since", "must not be after until")
	}

	return nil
}

// ApplyDefaults fills in the default page size.
func ApplyDefaults(q *investigation.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
}

// Execute validates q, applies defaults, and runs it against the store.
func Execute(ctx context.Context, store investigation.Store, q *investigation.Query) ([]*investigation.Record, uint64, error) {
	if err := Validate(q); err != nil {
		return nil, 0, err
	}
	ApplyDefaults(q)
	return store.Query(ctx, q)
}

// ExecuteStream validates q and opens an unbounded newest-first stream for
// export. Limit is ignored by the stream, so no default is applied.
func ExecuteStream(ctx context.Context, store investigation.Store, q *investigation.Query) (<-chan *investigation.Record, <-chan error, error) {
	if err := Validate(q); err != nil {
		return nil, nil, err
	}
	return store.QueryStream(ctx, q)
}
