// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

// Children returns the direct children of node id in source order.
//
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Node(id)
	var cs []NodeID
	add := func(ids ...NodeID) {
		for _, c := range ids {
			if c != NoNode {
				cs = append(cs, c)
			}
		}
	}
	switch n.Kind {
	case Identifier, Concat, DisplayStatement, WriteStatement:
		add(n.List...)
	case Number, String:
	case Unary, PortDeclaration, ArgAssign, FinishStatement:
		add(n.X)
	case Binary, ContinuousAssign, BlockingAssign, NonblockingAssign:
		add(n.X, n.Y)
	case Conditional, IfStatement:
		add(n.X, n.Y, n.Z)
	case ModuleDeclaration:
		add(n.ID)
		add(n.Ports...)
		add(n.Items...)
	case NetDeclaration, RegDeclaration, IntegerDeclaration, GenvarDeclaration,
		ParameterDeclaration, LocalparamDeclaration:
		add(n.ID, n.Range.Msb, n.Range.Lsb)
		for _, d := range n.Dims {
			add(d.Msb, d.Lsb)
		}
		add(n.X)
	case InitialConstruct:
		add(n.Body)
	case AlwaysConstruct:
		for _, e := range n.Events {
			add(e.ID)
		}
		add(n.Body)
	case ModuleInstantiation:
		add(n.ID)
		add(n.Params...)
		add(n.Ports...)
	case IfGenerate:
		add(n.List...)
		add(n.Items...)
	case CaseGenerate:
		add(n.X)
		add(n.Items...)
	case CaseGenerateItem:
		add(n.List...)
		add(n.Body)
	case LoopGenerate:
		add(n.X, n.Y, n.Z, n.Body)
	case GenerateBlock, GenerateRegion, SeqBlock:
		add(n.Items...)
	default:
		panic("ast: unhandled node kind " + n.Kind.String())
	}
	return cs
}

// Inspect traverses the subtree rooted at id in depth-first order. It calls
// f for each node; if f returns false, the children of that node are skipped.
//
func (t *Tree) Inspect(id NodeID, f func(NodeID) bool) {
	if id == NoNode || !f(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Inspect(c, f)
	}
}

// Identifiers returns all identifier nodes in the subtree rooted at id, in
// traversal order.
//
func (t *Tree) Identifiers(id NodeID) []NodeID {
	var ids []NodeID
	t.Inspect(id, func(c NodeID) bool {
		if t.Node(c).Kind == Identifier {
			ids = append(ids, c)
		}
		return true
	})
	return ids
}
