// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/eval"
	"github.com/pkg/errors"
)

// A task is a $display, $write or $finish statement. Its position in
// Logic.tasks is its bit in the task mask.
type task struct {
	stmt ast.NodeID
	kind ast.Kind
	args []ast.NodeID
	code int
}

// collectTasks records every task of the module in traversal order and
// allocates slots for the identifiers in their arguments.
func (l *Logic) collectTasks() error {
	var err error
	l.t.Inspect(l.md, func(id ast.NodeID) bool {
		if err != nil {
			return false
		}
		n := l.t.Node(id)
		switch n.Kind {
		case ast.DisplayStatement, ast.WriteStatement:
			l.tasks = append(l.tasks, task{stmt: id, kind: n.Kind, args: n.List})
			for _, a := range n.List {
				for _, x := range l.t.Identifiers(a) {
					l.insert(x, true)
				}
			}
			return false
		case ast.FinishStatement:
			code := 0
			if n.X != ast.NoNode {
				if code, err = eval.FoldInt(l.t, n.X, nil); err != nil {
					err = errors.Wrapf(err, "line %d: $finish", n.Line)
					return false
				}
			}
			l.tasks = append(l.tasks, task{stmt: id, kind: n.Kind, code: code})
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if len(l.tasks) > MaxTasks {
		return errors.Errorf("%d system tasks, at most %d supported", len(l.tasks), MaxTasks)
	}
	return nil
}

// Tasks returns the task statements of the module, indexed by their bit in
// the task mask.
//
func (l *Logic) Tasks() []ast.NodeID {
	ids := make([]ast.NodeID, len(l.tasks))
	for i := range l.tasks {
		ids[i] = l.tasks[i].stmt
	}
	return ids
}

// sync reads the current target values of the variables referenced by args.
func (l *Logic) sync(args []ast.NodeID) {
	for _, a := range args {
		for _, x := range l.t.Identifiers(a) {
			l.readArray(l.lookup(x))
		}
	}
}

// handleTasks replays the tasks flagged in the task mask, in ascending bit
// order, then clears the mask.
func (l *Logic) handleTasks() {
	l.tasksFired = false
	mask := l.readWord(l.SysTaskIdx())
	if mask == 0 {
		return
	}
	l.tasksFired = true
	bs := bitset.From([]uint64{uint64(mask)})
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		if int(i) >= len(l.tasks) {
			panic(fmt.Sprintf("hwbind: task bit %d set, module has %d tasks", i, len(l.tasks)))
		}
		tk := &l.tasks[i]
		switch tk.kind {
		case ast.DisplayStatement:
			l.sync(tk.args)
			l.iface.Display(l.ev.Format(tk.args))
		case ast.WriteStatement:
			l.sync(tk.args)
			l.iface.Write(l.ev.Format(tk.args))
		case ast.FinishStatement:
			l.iface.Finish(tk.code)
		default:
			panic("hwbind: unknown task kind " + tk.kind.String())
		}
	}
	l.writeWord(l.SysTaskIdx(), 0)
}

// ThereWereTasks returns true if the last call to Evaluate, Update or
// OpenLoop replayed at least one task.
//
func (l *Logic) ThereWereTasks() bool { return l.tasksFired }
