// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"fmt"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/target"
)

// bound returns the vid and slot of a variable that must have been bound.
func (l *Logic) bound(id ast.NodeID) (target.VId, *VarInfo) {
	vid, ok := l.vars[id]
	if !ok {
		panic(fmt.Sprintf("hwbind: %s is not bound", l.t.Name(id)))
	}
	return vid, l.lookup(id)
}

// GetState reads every stateful variable from the target.
//
func (l *Logic) GetState() target.State {
	s := make(target.State)
	for _, id := range l.info.Stateful() {
		vid, vi := l.bound(id)
		l.readArray(vi)
		src := l.ev.ArrayValue(id)
		vs := make([]*bits.Bits, len(src))
		for i, v := range src {
			vs[i] = v.Clone()
		}
		s[vid] = vs
	}
	return s
}

// SetState writes the stateful variables present in s to the target. Other
// variables are left untouched.
//
func (l *Logic) SetState(s target.State) {
	for _, id := range l.info.Stateful() {
		vid, vi := l.bound(id)
		if vs, ok := s[vid]; ok {
			l.writeArray(vi, vs)
		}
	}
}

// GetInput reads every input from the target.
//
func (l *Logic) GetInput() target.Input {
	in := make(target.Input)
	for _, id := range l.info.Inputs() {
		vid, vi := l.bound(id)
		l.readScalar(vi)
		in[vid] = l.ev.Value(id).Clone()
	}
	return in
}

// SetInput writes the inputs present in in to the target.
//
func (l *Logic) SetInput(in target.Input) {
	for _, id := range l.info.Inputs() {
		vid, vi := l.bound(id)
		if v, ok := in[vid]; ok {
			l.writeScalar(vi, v)
		}
	}
}
