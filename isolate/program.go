// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package isolate

import (
	"context"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/target"
	"golang.org/x/sync/errgroup"
)

// Program isolates every instantiation of root concurrently. The results are
// in instantiation order and are numbered exactly as if Isolate had been
// called on each instantiation in turn.
//
func Program(ctx context.Context, t *ast.Tree, root ast.NodeID) ([]*Result, error) {
	e, err := New(t, root)
	if err != nil {
		return nil, err
	}
	g := e.next
	res := make([]*Result, len(e.insts))
	eg, ctx := errgroup.WithContext(ctx)
	for k := range e.insts {
		k := k
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.isolate(k, g)
			if err != nil {
				return err
			}
			res[k] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// shift locals by the number of locals of the preceding results
	var off target.VId
	for _, r := range res {
		if off > 0 {
			for id, v := range r.VIds {
				if v >= g {
					r.VIds[id] = v + off
				}
			}
			r.Next += off
		}
		off = r.Next - g
	}
	return res, nil
}
