// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/eval"
)

// WordSize is the size in bytes of a target memory word.
//
const WordSize = 4

// VarInfo describes the slot of one variable in target memory.
//
// Arrays are stored element-major: word j of element i is at word index
// Index() + i*ElementSize() + j.
//
type VarInfo struct {
	id           ast.NodeID
	index        int
	materialized bool
	arity        []int
	width        int
}

func newVarInfo(ev *eval.Evaluator, id ast.NodeID, index int, materialized bool) *VarInfo {
	// task arguments may have a context width different from their
	// declaration. Keep the widest.
	w := ev.DeclaredWidth(id)
	if cw := ev.Width(id); cw > w {
		w = cw
	}
	return &VarInfo{
		id:           id,
		index:        index,
		materialized: materialized,
		arity:        ev.Arity(id),
		width:        w,
	}
}

// ID returns the identifier this entry was created for.
//
func (vi *VarInfo) ID() ast.NodeID { return vi.id }

// Index returns the word index of the first word of the entry.
//
func (vi *VarInfo) Index() int { return vi.index }

// Materialized returns true if the variable is backed by target state. Non
// materialized entries are combinational values that the target exposes
// read-only.
//
func (vi *VarInfo) Materialized() bool { return vi.materialized }

// Arity returns the dimension sizes of the variable. It is empty for scalars.
//
func (vi *VarInfo) Arity() []int { return vi.arity }

// Elements returns the number of elements of the variable, 1 for scalars.
//
func (vi *VarInfo) Elements() int {
	n := 1
	for _, d := range vi.arity {
		n *= d
	}
	return n
}

// BitSize returns the width in bits of one element.
//
func (vi *VarInfo) BitSize() int { return vi.width }

// ElementSize returns the number of words per element.
//
func (vi *VarInfo) ElementSize() int { return (vi.width + 31) / 32 }

// EntrySize returns the number of words used by the entry.
//
func (vi *VarInfo) EntrySize() int { return vi.Elements() * vi.ElementSize() }
