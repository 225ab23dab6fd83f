// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/eval"
	"github.com/db47h/hwbind/mmio"
	"github.com/db47h/hwbind/target"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxTasks is the maximum number of $display, $write and $finish statements
// in a module: one per bit of the task mask.
//
const MaxTasks = 32

type output struct {
	vid target.VId
	vi  *VarInfo
}

// Logic binds a flat module to its image in the memory of a target that runs
// it.
//
// The target memory is a contiguous region of 32 bits words laid out as
//
//	[variables in insertion order][live][there_are_updates][update][sys_task][open_loop]
//
// A Logic is not safe for concurrent use.
//
type Logic struct {
	iface target.Interface
	t     *ast.Tree
	md    ast.NodeID
	ev    *eval.Evaluator
	info  *ast.ModuleInfo
	ch    mmio.Channel
	base  uint64

	vars     map[ast.NodeID]target.VId
	varOrder []ast.NodeID
	table    map[ast.NodeID]*VarInfo
	order    []*VarInfo
	next     int

	inputs  map[target.VId]*VarInfo
	outputs []output
	tasks   []task

	tasksFired bool
	openLoop   bool
}

var _ target.Logic = (*Logic)(nil)

// NewLogic returns a Logic for the flat module md of t. The module's variable
// region starts at byte address base of ch.
//
// NewLogic allocates slots for the arguments of every $display and $write
// statement. Ports and stateful variables get their slots when bound.
//
func NewLogic(iface target.Interface, t *ast.Tree, md ast.NodeID, ch mmio.Channel, base uint64) (*Logic, error) {
	if base%WordSize != 0 {
		return nil, errors.Errorf("misaligned base address %#x", base)
	}
	r, err := ast.Resolve(t, md)
	if err != nil {
		return nil, errors.Wrap(err, t.ModuleName(md))
	}
	l := &Logic{
		iface:  iface,
		t:      t,
		md:     md,
		ev:     eval.New(t, md, r),
		info:   ast.NewModuleInfo(t, md, r),
		ch:     ch,
		base:   base,
		vars:   make(map[ast.NodeID]target.VId),
		table:  make(map[ast.NodeID]*VarInfo),
		inputs: make(map[target.VId]*VarInfo),
	}
	if err := l.collectTasks(); err != nil {
		return nil, errors.Wrap(err, t.ModuleName(md))
	}
	l.openLoop = l.openLoopEnabled()
	return l, nil
}

func (l *Logic) openLoopEnabled() bool {
	in := l.info.Inputs()
	return len(in) == 1 && l.ev.DeclaredWidth(in[0]) == 1 && len(l.info.Outputs()) == 0
}

// Tree returns the tree of the bound module.
//
func (l *Logic) Tree() *ast.Tree { return l.t }

// Module returns the bound module.
//
func (l *Logic) Module() ast.NodeID { return l.md }

// Evaluator returns the host side value store of the module.
//
func (l *Logic) Evaluator() *eval.Evaluator { return l.ev }

// insert allocates the next free slots to identifier id.
func (l *Logic) insert(id ast.NodeID, materialized bool) *VarInfo {
	if _, ok := l.table[id]; ok {
		panic(fmt.Sprintf("hwbind: %s inserted twice", l.t.Name(id)))
	}
	vi := newVarInfo(l.ev, id, l.next, materialized)
	l.table[id] = vi
	l.order = append(l.order, vi)
	l.next += vi.EntrySize()
	log.WithFields(log.Fields{
		"name":         l.t.Name(id),
		"index":        vi.index,
		"size":         vi.EntrySize(),
		"materialized": materialized,
	}).Debug("slot allocated")
	return vi
}

func (l *Logic) insertOnce(id ast.NodeID, materialized bool) *VarInfo {
	if vi, ok := l.table[id]; ok {
		return vi
	}
	return l.insert(id, materialized)
}

func (l *Logic) mapVar(id ast.NodeID, vid target.VId) {
	if old, ok := l.vars[id]; ok {
		if old != vid {
			panic(fmt.Sprintf("hwbind: %s bound to vid %d and %d", l.t.Name(id), old, vid))
		}
		return
	}
	l.vars[id] = vid
	l.varOrder = append(l.varOrder, id)
}

// BindInput binds the input port declared by id to vid.
//
func (l *Logic) BindInput(id ast.NodeID, vid target.VId) {
	l.mapVar(id, vid)
	l.inputs[vid] = l.insertOnce(id, true)
}

// BindState binds the stateful variable declared by id to vid.
//
func (l *Logic) BindState(id ast.NodeID, vid target.VId) {
	l.mapVar(id, vid)
	l.insertOnce(id, true)
}

// BindOutput binds the output port declared by id to vid. The output's slot
// is materialized only if the output is also stateful.
//
func (l *Logic) BindOutput(id ast.NodeID, vid target.VId) {
	l.mapVar(id, vid)
	vi := l.insertOnce(id, l.info.IsStateful(id))
	l.outputs = append(l.outputs, output{vid, vi})
}

// MapEach calls f for every bound variable, in binding order.
//
func (l *Logic) MapEach(f func(id ast.NodeID, vid target.VId)) {
	for _, id := range l.varOrder {
		f(id, l.vars[id])
	}
}

// VId returns the vid bound to the variable declared by id.
//
func (l *Logic) VId(id ast.NodeID) (target.VId, bool) {
	vid, ok := l.vars[id]
	return vid, ok
}

// TableFind returns the slot allocated to identifier id.
//
func (l *Logic) TableFind(id ast.NodeID) (*VarInfo, bool) {
	vi, ok := l.table[id]
	return vi, ok
}

// TableEach calls f for every allocated slot, in ascending index order.
//
func (l *Logic) TableEach(f func(vi *VarInfo)) {
	for _, vi := range l.order {
		f(vi)
	}
}

// TableSize returns the number of words used by variables. Control slots
// follow immediately.
//
func (l *Logic) TableSize() int { return l.next }

// LiveIdx returns the word index of the live flag.
//
func (l *Logic) LiveIdx() int { return l.next }

// ThereAreUpdatesIdx returns the word index of the pending updates flag.
//
func (l *Logic) ThereAreUpdatesIdx() int { return l.next + 1 }

// UpdateIdx returns the word index of the update trigger.
//
func (l *Logic) UpdateIdx() int { return l.next + 2 }

// SysTaskIdx returns the word index of the task mask.
//
func (l *Logic) SysTaskIdx() int { return l.next + 3 }

// OpenLoopIdx returns the word index of the open loop iteration counter.
//
func (l *Logic) OpenLoopIdx() int { return l.next + 4 }

// Span returns the number of words of target memory used by the module,
// control slots included.
//
func (l *Logic) Span() int { return l.next + 5 }

func (l *Logic) addr(idx int) uint64 {
	off, err := safecast.Conv[uint64](idx)
	if err != nil {
		panic(errors.Wrap(err, "hwbind: word index"))
	}
	return l.base + WordSize*off
}

func (l *Logic) readWord(idx int) uint32 { return l.ch.ReadWord(l.addr(idx)) }

func (l *Logic) writeWord(idx int, v uint32) { l.ch.WriteWord(l.addr(idx), v) }

func (l *Logic) lookup(id ast.NodeID) *VarInfo {
	vi, ok := l.table[id]
	if !ok {
		panic(fmt.Sprintf("hwbind: %s has no slot", l.t.Name(id)))
	}
	return vi
}

func (l *Logic) mustScalar(vi *VarInfo) {
	if len(vi.arity) > 0 {
		panic(fmt.Sprintf("hwbind: %s is not a scalar", l.t.Name(vi.id)))
	}
}

func (l *Logic) readScalar(vi *VarInfo) {
	l.mustScalar(vi)
	l.readArray(vi)
}

// readArray copies the entry of vi from target memory into the host side
// value store.
func (l *Logic) readArray(vi *VarInfo) {
	idx := vi.index
	for i, ie := 0, vi.Elements(); i < ie; i++ {
		for j, je := 0, vi.ElementSize(); j < je; j++ {
			l.ev.AssignWord(vi.id, i, j, l.readWord(idx))
			idx++
		}
	}
}

// writeScalar writes b to the entry of vi. The host side store is left
// untouched.
func (l *Logic) writeScalar(vi *VarInfo, b *bits.Bits) {
	l.mustScalar(vi)
	idx := vi.index
	for i, ie := 0, vi.EntrySize(); i < ie; i++ {
		l.writeWord(idx, b.Word(i))
		idx++
	}
}

func (l *Logic) writeArray(vi *VarInfo, bs []*bits.Bits) {
	idx := vi.index
	for i, ie := 0, vi.Elements(); i < ie; i++ {
		for j, je := 0, vi.ElementSize(); j < je; j++ {
			var w uint32
			if i < len(bs) {
				w = bs[i].Word(j)
			}
			l.writeWord(idx, w)
			idx++
		}
	}
}

// Read writes v to the input bound to vid.
//
func (l *Logic) Read(vid target.VId, v *bits.Bits) {
	vi, ok := l.inputs[vid]
	if !ok {
		panic(fmt.Sprintf("hwbind: no input bound to vid %d", vid))
	}
	l.writeScalar(vi, v)
}
