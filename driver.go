// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"fortio.org/safecast"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/target"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Resync clears the task mask and raises the live flag. It must be called
// once after the target has been reset or reloaded, before any other
// operation.
//
func (l *Logic) Resync() {
	log.WithFields(log.Fields{
		"module":   l.t.ModuleName(l.md),
		"live":     l.LiveIdx(),
		"sys_task": l.SysTaskIdx(),
		"update":   l.UpdateIdx(),
	}).Debug("resync")
	l.writeWord(l.SysTaskIdx(), 0)
	l.writeWord(l.LiveIdx(), 1)
}

func (l *Logic) handleOutputs() {
	for _, o := range l.outputs {
		l.readScalar(o.vi)
		l.iface.Output(o.vid, l.ev.Value(o.vi.id).Clone())
	}
}

// Evaluate reports all outputs, then replays pending tasks.
//
func (l *Logic) Evaluate() {
	l.handleOutputs()
	l.handleTasks()
}

// ThereAreUpdates returns the target's pending updates flag.
//
func (l *Logic) ThereAreUpdates() bool {
	return l.readWord(l.ThereAreUpdatesIdx()) != 0
}

// Update raises the update trigger, then reports all outputs and replays
// pending tasks.
//
func (l *Logic) Update() {
	l.writeWord(l.UpdateIdx(), 1)
	l.handleOutputs()
	l.handleTasks()
}

// OpenLoopEnabled returns true if the module has a single 1 bit input and no
// outputs.
//
func (l *Logic) OpenLoopEnabled() bool { return l.openLoop }

// OpenLoopClock returns the clock input of an open loop enabled module, or
// ast.NoNode.
//
func (l *Logic) OpenLoopClock() ast.NodeID {
	if !l.openLoop {
		return ast.NoNode
	}
	return l.info.Inputs()[0]
}

// OpenLoop lets the target run for up to itr ticks of its clock and returns
// the number of ticks it actually ran. The target already knows the clock
// value so clk and val are ignored. Outputs are not reported.
//
func (l *Logic) OpenLoop(clk target.VId, val bool, itr int) int {
	n, err := safecast.Conv[uint32](itr)
	if err != nil {
		panic(errors.Wrap(err, "hwbind: open loop iterations"))
	}
	l.writeWord(l.OpenLoopIdx(), n)
	l.handleTasks()
	ran, err := safecast.Conv[int](l.readWord(l.OpenLoopIdx()))
	if err != nil {
		panic(errors.Wrap(err, "hwbind: open loop iterations"))
	}
	return ran
}
