// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"github.com/db47h/hwbind"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/eval"
	"github.com/db47h/hwbind/mmio"
	"github.com/pkg/errors"
)

// MaxIter bounds the number of settle passes of the fake firmware.
//
const MaxIter = 256

// Target is a fake firmware. It runs the module bound by a Logic in software
// and keeps the Logic's memory layout up to date in a mmio.Mem, reacting to
// every write the Logic issues:
//
//	input slot      the input is driven, edge triggered blocks run and
//	                there_are_updates is raised
//	other slot      the variable is overwritten and the module settles
//	update          there_are_updates is cleared
//	open_loop       the clock input is toggled for up to the requested ticks
//
// Tasks that run set their bit in the sys_task word. A $finish stops an open
// loop run after the current tick.
//
type Target struct {
	Mem *mmio.Mem
	// Updates counts update triggers.
	Updates int

	l      *hwbind.Logic
	ev     *eval.Evaluator
	owner  []*hwbind.VarInfo
	inputs map[ast.NodeID]bool
	tasks  map[ast.NodeID]uint
	halt   bool
	err    error
}

// NewTarget attaches a fake firmware for l to m. l must have been built on m
// at base address 0 and all its variables must be bound.
//
func NewTarget(l *hwbind.Logic, m *mmio.Mem) (*Target, error) {
	if l.Span() > m.Len() {
		return nil, errors.Errorf("module needs %d words, memory has %d", l.Span(), m.Len())
	}
	t := l.Tree()
	r, err := ast.Resolve(t, l.Module())
	if err != nil {
		return nil, err
	}
	tg := &Target{
		Mem:    m,
		l:      l,
		ev:     eval.New(t, l.Module(), r),
		owner:  make([]*hwbind.VarInfo, l.TableSize()),
		inputs: make(map[ast.NodeID]bool),
		tasks:  make(map[ast.NodeID]uint),
	}
	l.TableEach(func(vi *hwbind.VarInfo) {
		for i := 0; i < vi.EntrySize(); i++ {
			tg.owner[vi.Index()+i] = vi
		}
	})
	for _, id := range ast.NewModuleInfo(t, l.Module(), r).Inputs() {
		tg.inputs[id] = true
	}
	for i, s := range l.Tasks() {
		tg.tasks[s] = uint(i)
	}
	tg.ev.OnTask(tg.task)
	if err := tg.ev.Init(MaxIter); err != nil {
		return nil, err
	}
	tg.mirror()
	m.OnWrite = tg.write
	return tg, nil
}

// Err returns the first evaluation error encountered while reacting to
// writes.
//
func (tg *Target) Err() error { return tg.err }

// Evaluator returns the evaluator running the module.
//
func (tg *Target) Evaluator() *eval.Evaluator { return tg.ev }

func (tg *Target) task(stmt ast.NodeID) {
	bit, ok := tg.tasks[stmt]
	if !ok {
		panic("hwtest: unknown task")
	}
	idx := tg.l.SysTaskIdx()
	tg.Mem.SetWord(idx, tg.Mem.Word(idx)|1<<bit)
	if tg.l.Tree().Kind(stmt) == ast.FinishStatement {
		tg.halt = true
	}
}

func (tg *Target) fail(err error) {
	if err != nil && tg.err == nil {
		tg.err = err
	}
}

// mirror copies every slot's value to memory.
func (tg *Target) mirror() {
	tg.l.TableEach(func(vi *hwbind.VarInfo) {
		es := vi.ElementSize()
		for i, v := range tg.ev.ArrayValue(vi.ID()) {
			for j := 0; j < es; j++ {
				tg.Mem.SetWord(vi.Index()+i*es+j, v.Word(j))
			}
		}
	})
}

func (tg *Target) drive(id ast.NodeID, v *bits.Bits) {
	tg.fail(tg.ev.Drive(id, v, MaxIter))
}

func (tg *Target) write(idx int, v uint32) {
	l := tg.l
	switch {
	case idx == l.LiveIdx(), idx == l.SysTaskIdx(), idx == l.ThereAreUpdatesIdx():
		return
	case idx == l.UpdateIdx():
		if v != 0 {
			tg.Updates++
			tg.Mem.SetWord(l.UpdateIdx(), 0)
			tg.Mem.SetWord(l.ThereAreUpdatesIdx(), 0)
		}
		return
	case idx == l.OpenLoopIdx():
		tg.Mem.SetWord(idx, tg.openLoop(v))
	case idx < len(tg.owner):
		vi := tg.owner[idx]
		off := idx - vi.Index()
		elem, w := off/vi.ElementSize(), off%vi.ElementSize()
		if tg.inputs[tg.ev.Resolution().Decl(vi.ID())] {
			nv := tg.ev.Value(vi.ID()).Clone()
			nv.SetWord(w, v)
			tg.drive(vi.ID(), nv)
			tg.Mem.SetWord(l.ThereAreUpdatesIdx(), 1)
		} else {
			tg.ev.AssignWord(vi.ID(), elem, w, v)
			tg.fail(tg.ev.Settle(MaxIter))
		}
	}
	tg.mirror()
}

func (tg *Target) openLoop(n uint32) uint32 {
	clk := tg.l.OpenLoopClock()
	if clk == ast.NoNode {
		return 0
	}
	tg.halt = false
	var ran uint32
	for ran < n && !tg.halt && tg.err == nil {
		tg.drive(clk, bits.FromUint64(1, 1))
		tg.drive(clk, bits.FromUint64(1, 0))
		ran++
	}
	return ran
}
