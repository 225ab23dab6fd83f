// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eval

import (
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/pkg/errors"
)

type pending struct {
	lhs ast.NodeID
	v   *bits.Bits
}

// OnTask sets the function called whenever a $display, $write or $finish
// statement is executed.
//
func (e *Evaluator) OnTask(f func(stmt ast.NodeID)) {
	e.task = f
}

// exec runs statement id. Non-blocking assignments are appended to nb. It
// returns true if a blocking assignment changed a value.
func (e *Evaluator) exec(id ast.NodeID, nb *[]pending) bool {
	n := e.t.Node(id)
	switch n.Kind {
	case ast.SeqBlock:
		changed := false
		for _, s := range n.Items {
			if e.exec(s, nb) {
				changed = true
			}
		}
		return changed
	case ast.BlockingAssign:
		return e.assign(n.X, e.Eval(n.Y).Resize(e.Width(n.X)))
	case ast.NonblockingAssign:
		*nb = append(*nb, pending{n.X, e.Eval(n.Y).Resize(e.Width(n.X))})
		return false
	case ast.IfStatement:
		if !e.Eval(n.X).IsZero() {
			return e.exec(n.Y, nb)
		}
		if n.Z != ast.NoNode {
			return e.exec(n.Z, nb)
		}
		return false
	case ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
		if e.task != nil {
			e.task(id)
		}
		return false
	}
	panic("eval: " + n.Kind.String() + " is not a statement")
}

func (e *Evaluator) commit(nb []pending) bool {
	changed := false
	for _, p := range nb {
		if e.assign(p.lhs, p.v) {
			changed = true
		}
	}
	return changed
}

// items calls f for every module item of the evaluated module, descending
// into generate blocks and regions.
func (e *Evaluator) items(f func(ast.NodeID)) {
	var walk func([]ast.NodeID)
	walk = func(ids []ast.NodeID) {
		for _, it := range ids {
			switch e.t.Kind(it) {
			case ast.GenerateBlock, ast.GenerateRegion:
				walk(e.t.Node(it).Items)
			default:
				f(it)
			}
		}
	}
	walk(e.t.Node(e.md).Items)
}

func (e *Evaluator) combinational(n *ast.Node) bool {
	if n.Star || len(n.Events) == 0 {
		return true
	}
	for _, ev := range n.Events {
		if ev.Edge != ast.AnyEdge {
			return false
		}
	}
	return true
}

// Init applies variable initializers and runs initial blocks, then settles
// the module.
//
func (e *Evaluator) Init(maxIter int) error {
	var nb []pending
	e.items(func(it ast.NodeID) {
		d := e.t.DeclOf(it)
		if n := e.t.Node(d); n.Kind.IsDeclaration() && n.X != ast.NoNode {
			switch n.Kind {
			case ast.NetDeclaration, ast.RegDeclaration, ast.IntegerDeclaration:
				e.assign(n.ID, e.Eval(n.X).Resize(e.Width(n.ID)))
			}
		}
	})
	e.items(func(it ast.NodeID) {
		if n := e.t.Node(it); n.Kind == ast.InitialConstruct {
			e.exec(n.Body, &nb)
		}
	})
	e.commit(nb)
	return e.Settle(maxIter)
}

// Settle repeatedly evaluates continuous assignments and combinational always
// blocks until no value changes. It fails if no fixed point is reached after
// maxIter passes.
//
func (e *Evaluator) Settle(maxIter int) error {
	for i := 0; i < maxIter; i++ {
		changed := false
		var nb []pending
		e.items(func(it ast.NodeID) {
			n := e.t.Node(it)
			switch n.Kind {
			case ast.ContinuousAssign:
				if e.assign(n.X, e.Eval(n.Y).Resize(e.Width(n.X))) {
					changed = true
				}
			case ast.AlwaysConstruct:
				if e.combinational(n) && e.exec(n.Body, &nb) {
					changed = true
				}
			}
		})
		if e.commit(nb) {
			changed = true
		}
		if !changed {
			return nil
		}
	}
	return errors.Errorf("settle: no fixed point after %d iterations", maxIter)
}

// Drive sets the input referenced by id to v and settles the module. Then,
// as long as settling changes the bit 0 of a variable used in a posedge or
// negedge event, it runs the always blocks triggered by these edges and
// settles again. It fails after maxIter rounds of edges.
//
func (e *Evaluator) Drive(id ast.NodeID, v *bits.Bits, maxIter int) error {
	prev := e.edgeLevels()
	e.storage(e.decl(id))[0].Assign(v)
	if err := e.Settle(maxIter); err != nil {
		return err
	}
	for i := 0; i < maxIter; i++ {
		cur := e.edgeLevels()
		var nb []pending
		fired := false
		e.items(func(it ast.NodeID) {
			n := e.t.Node(it)
			if n.Kind != ast.AlwaysConstruct {
				return
			}
			for _, ev := range n.Events {
				d := e.r.Decl(ev.ID)
				if prev[d] == cur[d] {
					continue
				}
				if ev.Edge == ast.Posedge && cur[d] || ev.Edge == ast.Negedge && !cur[d] {
					e.exec(n.Body, &nb)
					fired = true
					return
				}
			}
		})
		if !fired {
			return nil
		}
		prev = cur
		e.commit(nb)
		if err := e.Settle(maxIter); err != nil {
			return err
		}
	}
	return errors.Errorf("drive: edges still firing after %d rounds", maxIter)
}

// edgeLevels returns bit 0 of every variable used in an edge event.
func (e *Evaluator) edgeLevels() map[ast.NodeID]bool {
	lv := make(map[ast.NodeID]bool)
	e.items(func(it ast.NodeID) {
		n := e.t.Node(it)
		if n.Kind != ast.AlwaysConstruct {
			return
		}
		for _, ev := range n.Events {
			if ev.Edge == ast.Posedge || ev.Edge == ast.Negedge {
				d := e.r.Decl(ev.ID)
				lv[d] = e.storage(d)[0].Bit(0)
			}
		}
	})
	return lv
}
