// Package viewcache signals that rendered views are stale and caches
// rendered listing responses until they are.
package viewcache

import "context"

// Route paths whose renderings are invalidated after mutations.
const (
	ChallengesPath = "/challenges"
	FeedPath       = "/"
)

// Invalidator is notified that the view at path must be recomputed.
// Implementations must not block on slow consumers and must not fail the caller.
type Invalidator interface {
	Invalidate(ctx context.Context, path string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, path string)

func (f InvalidatorFunc) Invalidate(ctx context.Context, path string) { f(ctx, path) }

// Fanout notifies each invalidator in order. Nil entries are skipped.
type Fanout []Invalidator

func (f Fanout) Invalidate(ctx context.Context, path string) {
	for _, inv := range f {
		if inv != nil {
			inv.Invalidate(ctx, path)
		}
	}
}

// Nop discards invalidations.
type Nop struct{}

func (Nop) Invalidate(context.Context, string) {}
