package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/fedsql/pkg/core"
)

// ResolveAll resolves independent statements concurrently, at most limit
// at a time; limit <= 0 means no bound. The returned slice holds the
// resolution error of each statement by index. Statements sharing a
// session see each other's temp tables, so they are resolved in order.
// The error result is non-nil only when ctx is done first.
func (r *Resolver) ResolveAll(ctx context.Context, stmts []core.Stmt, env *Environment, limit int) ([]error, error) {
	if env != nil && env.Session != nil {
		limit = 1
	}
	errs := make([]error, len(stmts))
	eg, egctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, stmt := range stmts {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			errs[i] = r.Resolve(stmt, env)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errs, err
	}
	r.logger.Debug("resolved batch", "statements", len(stmts))
	return errs, nil
}
