package notion

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ChildrenLister is the single-level children fetch the resolver drives.
// *Client satisfies it.
type ChildrenLister interface {
	BlockChildren(ctx context.Context, token, blockID string) ([]Block, error)
}

var _ ChildrenLister = (*Client)(nil)

type ResolverOptions struct {
	// Concurrency bounds the number of in-flight children requests.
	Concurrency int
	// MaxDepth bounds how many levels of children are materialized.
	// Zero means unlimited.
	MaxDepth int
}

// Resolver materializes block forests. Children are fetched through an
// explicit worklist drained by a bounded worker pool rather than call-stack
// recursion, so deeply nested content cannot blow the stack or fan out
// unboundedly.
type Resolver struct {
	lister      ChildrenLister
	concurrency int
	maxDepth    int
}

func NewResolver(lister ChildrenLister, opts ResolverOptions) *Resolver {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	maxDepth := opts.MaxDepth
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Resolver{
		lister:      lister,
		concurrency: concurrency,
		maxDepth:    maxDepth,
	}
}

type expandItem struct {
	parent *Block
	depth  int
}

type expandState struct {
	mu     sync.Mutex
	wake   *sync.Cond
	queue  []expandItem
	active int
}

// Expand returns a copy of blocks with Children attached recursively for
// every block whose HasChildren flag is set, up to the configured depth. The
// first children-fetch failure cancels outstanding work and is returned.
func (r *Resolver) Expand(ctx context.Context, token string, blocks []Block) ([]Block, error) {
	out := make([]Block, len(blocks))
	copy(out, blocks)

	st := &expandState{}
	st.wake = sync.NewCond(&st.mu)
	for i := range out {
		if out[i].HasChildren {
			st.queue = append(st.queue, expandItem{parent: &out[i], depth: 0})
		}
	}
	if len(st.queue) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	watcherStop := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
		case <-watcherStop:
		}
		st.wake.Broadcast()
	}()

	workers := r.concurrency
	if workers > len(st.queue) {
		workers = len(st.queue)
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return r.expandWorker(gctx, token, st)
		})
	}
	err := g.Wait()
	close(watcherStop)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) expandWorker(ctx context.Context, token string, st *expandState) error {
	for {
		st.mu.Lock()
		for len(st.queue) == 0 && st.active > 0 && ctx.Err() == nil {
			st.wake.Wait()
		}
		if ctx.Err() != nil {
			st.mu.Unlock()
			return ctx.Err()
		}
		if len(st.queue) == 0 && st.active == 0 {
			st.mu.Unlock()
			st.wake.Broadcast()
			return nil
		}
		item := st.queue[len(st.queue)-1]
		st.queue = st.queue[:len(st.queue)-1]
		st.active++
		st.mu.Unlock()

		children, err := r.lister.BlockChildren(ctx, token, item.parent.ID)
		if err != nil {
			st.mu.Lock()
			st.active--
			st.mu.Unlock()
			st.wake.Broadcast()
			return err
		}
		item.parent.Children = children

		st.mu.Lock()
		st.active--
		if r.maxDepth == 0 || item.depth+1 < r.maxDepth {
			for i := range item.parent.Children {
				child := &item.parent.Children[i]
				if child.HasChildren {
					st.queue = append(st.queue, expandItem{parent: child, depth: item.depth + 1})
				}
			}
		}
		st.mu.Unlock()
		st.wake.Broadcast()
	}
}
