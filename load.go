// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind

import (
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/isolate"
	"github.com/db47h/hwbind/mmio"
	"github.com/db47h/hwbind/target"
	"github.com/pkg/errors"
)

// Load returns a Logic for an isolated module with all its inputs, outputs
// and stateful variables bound to the VIds assigned by the elaborator. Inputs
// are bound first, then outputs, then stateful variables, each in declaration
// order.
//
func Load(iface target.Interface, res *isolate.Result, ch mmio.Channel, base uint64) (*Logic, error) {
	l, err := NewLogic(iface, res.Tree, res.Module, ch, base)
	if err != nil {
		return nil, err
	}
	vid := func(id ast.NodeID) (target.VId, error) {
		v, ok := res.VIds[id]
		if !ok {
			return 0, errors.Errorf("%s: %s has no vid", res.Tree.ModuleName(res.Module), res.Tree.Name(id))
		}
		return v, nil
	}
	for _, id := range l.info.Inputs() {
		v, err := vid(id)
		if err != nil {
			return nil, err
		}
		l.BindInput(id, v)
	}
	for _, id := range l.info.Outputs() {
		v, err := vid(id)
		if err != nil {
			return nil, err
		}
		l.BindOutput(id, v)
	}
	for _, id := range l.info.Stateful() {
		v, err := vid(id)
		if err != nil {
			return nil, err
		}
		l.BindState(id, v)
	}
	return l, nil
}

// LoadAll loads each result in its own region. Regions are consecutive,
// starting at base. It returns the Logics and the first byte address past the
// last region.
//
func LoadAll(iface target.Interface, rs []*isolate.Result, ch mmio.Channel, base uint64) ([]*Logic, uint64, error) {
	ls := make([]*Logic, 0, len(rs))
	for _, r := range rs {
		l, err := Load(iface, r, ch, base)
		if err != nil {
			return nil, 0, err
		}
		ls = append(ls, l)
		base = l.addr(l.Span())
	}
	return ls, base, nil
}
