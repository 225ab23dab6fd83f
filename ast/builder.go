// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

import (
	"math/big"
	"strconv"
)

// NewIdent adds an identifier with optional selects.
//
func (t *Tree) NewIdent(name string, sel ...NodeID) NodeID {
	return t.Add(Node{Kind: Identifier, Name: name, List: sel})
}

// NewNumber adds a numeric literal. A size of 0 denotes an unsized literal.
//
func (t *Tree) NewNumber(size int, v *big.Int) NodeID {
	text := v.String()
	if size > 0 {
		text = strconv.Itoa(size) + "'d" + text
	}
	return t.Add(Node{Kind: Number, Size: size, Value: new(big.Int).Set(v), Text: text})
}

// NewUint adds a numeric literal from a uint64.
//
func (t *Tree) NewUint(size int, v uint64) NodeID {
	return t.NewNumber(size, new(big.Int).SetUint64(v))
}

// NewString adds a string literal.
//
func (t *Tree) NewString(s string) NodeID {
	return t.Add(Node{Kind: String, Text: s})
}

// NewUnary adds a unary expression.
//
func (t *Tree) NewUnary(op string, x NodeID) NodeID {
	return t.Add(Node{Kind: Unary, Op: op, X: x})
}

// NewBinary adds a binary expression.
//
func (t *Tree) NewBinary(op string, x, y NodeID) NodeID {
	return t.Add(Node{Kind: Binary, Op: op, X: x, Y: y})
}

// NewDecl adds a variable, net, parameter or genvar declaration of the given
// kind for identifier id.
//
func (t *Tree) NewDecl(k Kind, id NodeID, signed bool, r Range, dims []Range, init NodeID) NodeID {
	if !k.IsDeclaration() {
		panic("ast: " + k.String() + " is not a declaration")
	}
	return t.Add(Node{Kind: k, ID: id, Signed: signed, Range: r, Dims: dims, X: init})
}

// NewPort adds a port declaration wrapping decl.
//
func (t *Tree) NewPort(dir Dir, decl NodeID) NodeID {
	return t.Add(Node{Kind: PortDeclaration, Dir: dir, X: decl})
}

// NewAssign adds an assignment of kind ContinuousAssign, BlockingAssign or
// NonblockingAssign.
//
func (t *Tree) NewAssign(k Kind, lhs, rhs NodeID) NodeID {
	switch k {
	case ContinuousAssign, BlockingAssign, NonblockingAssign:
	default:
		panic("ast: " + k.String() + " is not an assignment")
	}
	return t.Add(Node{Kind: k, X: lhs, Y: rhs})
}

// NewModule adds a module declaration and registers it as a top-level module
// of t.
//
func (t *Tree) NewModule(name string, ports, items []NodeID) NodeID {
	id := t.NewIdent(name)
	md := t.Add(Node{Kind: ModuleDeclaration, ID: id, Ports: ports, Items: items})
	t.Modules = append(t.Modules, md)
	return md
}

// DeclOf returns the declaration wrapped by item if item is a port
// declaration, or item itself.
//
func (t *Tree) DeclOf(item NodeID) NodeID {
	if n := t.Node(item); n.Kind == PortDeclaration {
		return n.X
	}
	return item
}

// DeclID returns the declared identifier of a declaration or port
// declaration, or NoNode for any other item.
//
func (t *Tree) DeclID(item NodeID) NodeID {
	d := t.DeclOf(item)
	if d == NoNode {
		return NoNode
	}
	if n := t.Node(d); n.Kind.IsDeclaration() {
		return n.ID
	}
	return NoNode
}
