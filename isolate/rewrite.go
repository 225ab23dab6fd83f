// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package isolate

import (
	"math/big"

	"github.com/db47h/hwbind/ast"
	"github.com/pkg/errors"
)

// expr copies expression id of the source tree into the flat tree. Locals are
// renamed, globals are copied verbatim and constants become numbers.
func (p *pass) expr(id ast.NodeID, sc *scope) (ast.NodeID, error) {
	src := p.e.src
	n := src.Node(id)
	switch n.Kind {
	case ast.Identifier:
		b := sc.lookup(n.Name)
		if b == nil {
			return ast.NoNode, errors.Errorf("unresolved identifier %q", n.Name)
		}
		switch b.kind {
		case bindConst, bindGenvar:
			if b.val == nil {
				return ast.NoNode, errors.Errorf("genvar %s used outside of a generate loop", n.Name)
			}
			if len(n.List) > 0 {
				return ast.NoNode, errors.Errorf("select on constant %s", n.Name)
			}
			return p.dst.NewNumber(0, b.val), nil
		case bindGlobal:
			if b.decl == ast.NoNode {
				// root global outside of a shell port
				p.useGlobal(b.name, ast.Input)
			}
		}
		sel := make([]ast.NodeID, 0, len(n.List))
		for _, s := range n.List {
			x, err := p.expr(s, sc)
			if err != nil {
				return ast.NoNode, err
			}
			sel = append(sel, x)
		}
		if len(sel) == 0 {
			sel = nil
		}
		return p.dst.NewIdent(b.name, sel...), nil
	case ast.Number:
		c := *n
		c.Value = new(big.Int).Set(n.Value)
		return p.dst.Add(c), nil
	case ast.String:
		return p.dst.NewString(n.Text), nil
	case ast.Unary:
		x, err := p.expr(n.X, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.NewUnary(n.Op, x), nil
	case ast.Binary:
		x, err := p.expr(n.X, sc)
		if err != nil {
			return ast.NoNode, err
		}
		y, err := p.expr(n.Y, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.NewBinary(n.Op, x, y), nil
	case ast.Conditional:
		x, err := p.expr(n.X, sc)
		if err != nil {
			return ast.NoNode, err
		}
		y, err := p.expr(n.Y, sc)
		if err != nil {
			return ast.NoNode, err
		}
		z, err := p.expr(n.Z, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.Add(ast.Node{Kind: ast.Conditional, X: x, Y: y, Z: z}), nil
	case ast.Concat:
		list, err := p.exprs(n.List, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.Add(ast.Node{Kind: ast.Concat, List: list}), nil
	case ast.ModuleDeclaration, ast.PortDeclaration, ast.NetDeclaration, ast.RegDeclaration,
		ast.IntegerDeclaration, ast.GenvarDeclaration, ast.ParameterDeclaration,
		ast.LocalparamDeclaration, ast.ContinuousAssign, ast.InitialConstruct,
		ast.AlwaysConstruct, ast.ModuleInstantiation, ast.ArgAssign, ast.IfGenerate,
		ast.CaseGenerate, ast.CaseGenerateItem, ast.LoopGenerate, ast.GenerateBlock,
		ast.GenerateRegion, ast.SeqBlock, ast.BlockingAssign, ast.NonblockingAssign,
		ast.IfStatement, ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
		return ast.NoNode, errors.Errorf("line %d: %s is not an expression", n.Line, n.Kind)
	default:
		panic("isolate: unhandled node kind " + n.Kind.String())
	}
}

func (p *pass) exprs(ids []ast.NodeID, sc *scope) ([]ast.NodeID, error) {
	res := make([]ast.NodeID, 0, len(ids))
	for _, id := range ids {
		x, err := p.expr(id, sc)
		if err != nil {
			return nil, err
		}
		res = append(res, x)
	}
	return res, nil
}

// lvalue rewrites an assignment target. Targets must rewrite to variables.
func (p *pass) lvalue(id ast.NodeID, sc *scope) (ast.NodeID, error) {
	x, err := p.expr(id, sc)
	if err != nil {
		return ast.NoNode, err
	}
	if !isLvalue(p.dst, x) {
		return ast.NoNode, errors.Errorf("line %d: invalid assignment target %s", p.e.src.Node(id).Line, ast.Sprint(p.dst, x))
	}
	return x, nil
}

func isLvalue(t *ast.Tree, id ast.NodeID) bool {
	n := t.Node(id)
	switch n.Kind {
	case ast.Identifier:
		return true
	case ast.Concat:
		for _, c := range n.List {
			if !isLvalue(t, c) {
				return false
			}
		}
		return true
	}
	return false
}

// stmt copies a procedural statement into the flat tree.
func (p *pass) stmt(id ast.NodeID, sc *scope) (ast.NodeID, error) {
	src := p.e.src
	n := src.Node(id)
	switch n.Kind {
	case ast.SeqBlock:
		items := make([]ast.NodeID, 0, len(n.Items))
		for _, s := range n.Items {
			x, err := p.stmt(s, sc)
			if err != nil {
				return ast.NoNode, err
			}
			items = append(items, x)
		}
		return p.dst.Add(ast.Node{Kind: ast.SeqBlock, Name: n.Name, Items: items, Line: n.Line}), nil
	case ast.BlockingAssign, ast.NonblockingAssign:
		lhs, err := p.lvalue(n.X, sc)
		if err != nil {
			return ast.NoNode, err
		}
		rhs, err := p.expr(n.Y, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.NewAssign(n.Kind, lhs, rhs), nil
	case ast.IfStatement:
		x, err := p.expr(n.X, sc)
		if err != nil {
			return ast.NoNode, err
		}
		y, err := p.stmt(n.Y, sc)
		if err != nil {
			return ast.NoNode, err
		}
		z := ast.NoNode
		if n.Z != ast.NoNode {
			if z, err = p.stmt(n.Z, sc); err != nil {
				return ast.NoNode, err
			}
		}
		return p.dst.Add(ast.Node{Kind: ast.IfStatement, X: x, Y: y, Z: z, Line: n.Line}), nil
	case ast.DisplayStatement, ast.WriteStatement:
		list, err := p.exprs(n.List, sc)
		if err != nil {
			return ast.NoNode, err
		}
		return p.dst.Add(ast.Node{Kind: n.Kind, List: list, Line: n.Line}), nil
	case ast.FinishStatement:
		x := ast.NoNode
		if n.X != ast.NoNode {
			var err error
			if x, err = p.expr(n.X, sc); err != nil {
				return ast.NoNode, err
			}
		}
		return p.dst.Add(ast.Node{Kind: ast.FinishStatement, X: x, Line: n.Line}), nil
	}
	return ast.NoNode, errors.Errorf("line %d: %s is not a statement", n.Line, n.Kind)
}
