// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl parses the subset of Verilog understood by the elaborator into
// an ast.Tree.
//
package hdl

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/db47h/hwbind/ast"
	"github.com/pkg/errors"
)

type bailout struct{ err error }

// parser is a recursive descent parser for a Verilog subset.
//
type parser struct {
	name string
	toks []Item
	i    int
	t    *ast.Tree
}

// Parse parses the Verilog source src. The name is only used in error
// messages.
//
func Parse(name, src string) (t *ast.Tree, err error) {
	p := &parser{name: name, toks: Lex(src), t: ast.New()}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			t, err = nil, b.err
		}
	}()
	for p.tok().Type != EOF {
		p.module()
	}
	return p.t, nil
}

func (p *parser) tok() Item { return p.toks[p.i] }

func (p *parser) peek(n int) Item {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Item {
	it := p.toks[p.i]
	if it.Type != EOF {
		p.i++
	}
	return it
}

func (p *parser) errorf(it Item, format string, args ...interface{}) {
	if it.Type == Raw {
		format, args = "invalid input %q", []interface{}{it.Value}
	}
	panic(bailout{errors.Errorf("%s:%d:%d: "+format, append([]interface{}{p.name, it.Line, it.Col}, args...)...)})
}

func (p *parser) is(v string) bool { return p.tok().is(v) }

func (p *parser) accept(v string) bool {
	if p.is(v) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(v string) Item {
	if !p.is(v) {
		p.errorf(p.tok(), "expected %q, got %s", v, p.tok())
	}
	return p.advance()
}

var keywords = map[string]bool{
	"module": true, "endmodule": true, "input": true, "output": true, "inout": true,
	"wire": true, "reg": true, "integer": true, "genvar": true, "parameter": true,
	"localparam": true, "assign": true, "initial": true, "always": true,
	"generate": true, "endgenerate": true, "if": true, "else": true, "case": true,
	"endcase": true, "default": true, "for": true, "begin": true, "end": true,
	"posedge": true, "negedge": true, "or": true, "signed": true,
}

func (p *parser) ident() ast.NodeID {
	it := p.tok()
	if it.Type != Ident || keywords[it.Value] {
		p.errorf(it, "expected identifier, got %s", it)
	}
	p.advance()
	return p.t.Add(ast.Node{Kind: ast.Identifier, Name: it.Value, Line: it.Line})
}

func (p *parser) module() {
	kw := p.expect("module")
	id := p.ident()
	var ports, items []ast.NodeID
	if p.accept("#") {
		p.expect("(")
		// parameter port list; an empty list is valid
		for !p.is(")") {
			p.accept("parameter")
			items = append(items, p.paramDecl(ast.ParameterDeclaration)...)
			if !p.accept(",") {
				break
			}
		}
		p.expect(")")
	}
	if p.accept("(") {
		ports, items = p.portList(items)
		p.expect(")")
	}
	p.expect(";")
	for !p.is("endmodule") {
		if p.tok().Type == EOF {
			p.errorf(p.tok(), "missing endmodule")
		}
		items = append(items, p.item()...)
	}
	p.advance()
	md := p.t.Add(ast.Node{Kind: ast.ModuleDeclaration, ID: id, Ports: ports, Items: items, Line: kw.Line})
	p.t.Modules = append(p.t.Modules, md)
}

func isDir(it Item) bool {
	return it.is("input") || it.is("output") || it.is("inout")
}

// portList parses a module's port list. ANSI style declarations are added to
// items. An empty list yields no ports.
func (p *parser) portList(items []ast.NodeID) (ports, _ []ast.NodeID) {
	if p.is(")") {
		return nil, items
	}
	if !isDir(p.tok()) {
		for {
			ports = append(ports, p.ident())
			if !p.accept(",") {
				return ports, items
			}
		}
	}
	for {
		dir, kind, signed, rng := p.portHeader()
		for {
			id := p.ident()
			ports = append(ports, p.t.NewIdent(p.t.Name(id)))
			items = append(items, p.t.NewPort(dir, p.t.NewDecl(kind, id, signed, rng, nil, ast.NoNode)))
			if !p.is(",") || isDir(p.peek(1)) {
				break
			}
			p.advance()
		}
		if !p.accept(",") {
			return ports, items
		}
	}
}

func (p *parser) portHeader() (dir ast.Dir, kind ast.Kind, signed bool, rng ast.Range) {
	switch it := p.advance(); it.Value {
	case "input":
		dir = ast.Input
	case "output":
		dir = ast.Output
	case "inout":
		dir = ast.Inout
	default:
		p.errorf(it, "expected port direction, got %s", it)
	}
	kind = ast.NetDeclaration
	if p.accept("reg") {
		kind = ast.RegDeclaration
	} else {
		p.accept("wire")
	}
	signed = p.accept("signed")
	rng = p.optRange()
	return dir, kind, signed, rng
}

func (p *parser) optRange() ast.Range {
	if !p.accept("[") {
		return ast.Range{}
	}
	msb := p.expr()
	p.expect(":")
	lsb := p.expr()
	p.expect("]")
	return ast.Range{Msb: msb, Lsb: lsb}
}

func (p *parser) dims() []ast.Range {
	var ds []ast.Range
	for p.is("[") {
		ds = append(ds, p.optRange())
	}
	return ds
}

// item parses one module or generate item. Declaration lists expand to one
// item per declared name.
func (p *parser) item() []ast.NodeID {
	it := p.tok()
	switch {
	case it.is(";"):
		p.advance()
		return nil
	case isDir(it):
		dir, kind, signed, rng := p.portHeader()
		var res []ast.NodeID
		for {
			id := p.ident()
			res = append(res, p.t.NewPort(dir, p.t.NewDecl(kind, id, signed, rng, nil, ast.NoNode)))
			if !p.accept(",") {
				break
			}
		}
		p.expect(";")
		return res
	case it.is("wire"):
		p.advance()
		return p.varDecls(ast.NetDeclaration)
	case it.is("reg"):
		p.advance()
		return p.varDecls(ast.RegDeclaration)
	case it.is("integer"):
		p.advance()
		return p.varDecls(ast.IntegerDeclaration)
	case it.is("genvar"):
		p.advance()
		var res []ast.NodeID
		for {
			res = append(res, p.t.NewDecl(ast.GenvarDeclaration, p.ident(), false, ast.Range{}, nil, ast.NoNode))
			if !p.accept(",") {
				break
			}
		}
		p.expect(";")
		return res
	case it.is("parameter"), it.is("localparam"):
		p.advance()
		k := ast.ParameterDeclaration
		if it.Value == "localparam" {
			k = ast.LocalparamDeclaration
		}
		res := p.paramDecl(k)
		for p.accept(",") {
			res = append(res, p.paramDecl(k)...)
		}
		p.expect(";")
		return res
	case it.is("assign"):
		p.advance()
		var res []ast.NodeID
		for {
			lhs := p.lvalue()
			p.expect("=")
			res = append(res, p.t.NewAssign(ast.ContinuousAssign, lhs, p.expr()))
			if !p.accept(",") {
				break
			}
		}
		p.expect(";")
		return res
	case it.is("initial"):
		p.advance()
		return []ast.NodeID{p.t.Add(ast.Node{Kind: ast.InitialConstruct, Body: p.stmt(), Line: it.Line})}
	case it.is("always"):
		p.advance()
		return []ast.NodeID{p.always(it)}
	case it.is("generate"):
		p.advance()
		var items []ast.NodeID
		for !p.accept("endgenerate") {
			if p.tok().Type == EOF {
				p.errorf(p.tok(), "missing endgenerate")
			}
			items = append(items, p.item()...)
		}
		return []ast.NodeID{p.t.Add(ast.Node{Kind: ast.GenerateRegion, Items: items, Line: it.Line})}
	case it.is("if"):
		return []ast.NodeID{p.ifGenerate()}
	case it.is("case"):
		return []ast.NodeID{p.caseGenerate()}
	case it.is("for"):
		return []ast.NodeID{p.loopGenerate()}
	case it.is("begin"):
		return []ast.NodeID{p.genBlock()}
	case it.Type == Ident && !keywords[it.Value]:
		return p.instantiation()
	}
	p.errorf(it, "unexpected %s", it)
	return nil
}

func (p *parser) varDecls(k ast.Kind) []ast.NodeID {
	var signed bool
	var rng ast.Range
	if k != ast.IntegerDeclaration {
		signed = p.accept("signed")
		rng = p.optRange()
	}
	var res []ast.NodeID
	for {
		id := p.ident()
		dims := p.dims()
		var init ast.NodeID
		if p.accept("=") {
			init = p.expr()
		}
		if k == ast.NetDeclaration && init != ast.NoNode {
			// net declaration assignment
			res = append(res,
				p.t.NewDecl(k, id, signed, rng, dims, ast.NoNode),
				p.t.NewAssign(ast.ContinuousAssign, p.t.NewIdent(p.t.Name(id)), init))
		} else {
			res = append(res, p.t.NewDecl(k, id, signed, rng, dims, init))
		}
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	return res
}

func (p *parser) paramDecl(k ast.Kind) []ast.NodeID {
	p.accept("integer")
	signed := p.accept("signed")
	rng := p.optRange()
	id := p.ident()
	p.expect("=")
	return []ast.NodeID{p.t.NewDecl(k, id, signed, rng, nil, p.expr())}
}

func (p *parser) always(kw Item) ast.NodeID {
	n := ast.Node{Kind: ast.AlwaysConstruct, Line: kw.Line}
	if p.accept("@") {
		switch {
		case p.accept("*"):
			n.Star = true
		default:
			p.expect("(")
			if p.accept("*") {
				n.Star = true
			} else {
				for {
					e := ast.Event{Edge: ast.AnyEdge}
					if p.accept("posedge") {
						e.Edge = ast.Posedge
					} else if p.accept("negedge") {
						e.Edge = ast.Negedge
					}
					e.ID = p.ident()
					n.Events = append(n.Events, e)
					if !p.accept("or") && !p.accept(",") {
						break
					}
				}
			}
			p.expect(")")
		}
	}
	n.Body = p.stmt()
	return p.t.Add(n)
}

// genBlock parses begin [: label] items end.
func (p *parser) genBlock() ast.NodeID {
	kw := p.expect("begin")
	n := ast.Node{Kind: ast.GenerateBlock, Line: kw.Line}
	if p.accept(":") {
		n.Name = p.t.Name(p.ident())
	}
	for !p.accept("end") {
		if p.tok().Type == EOF {
			p.errorf(p.tok(), "missing end")
		}
		n.Items = append(n.Items, p.item()...)
	}
	return p.t.Add(n)
}

// genBlockOrItem parses the body of a generate construct. A bare item is
// wrapped in an unnamed generate block.
func (p *parser) genBlockOrItem() ast.NodeID {
	if p.is("begin") {
		return p.genBlock()
	}
	line := p.tok().Line
	return p.t.Add(ast.Node{Kind: ast.GenerateBlock, Items: p.item(), Line: line})
}

func (p *parser) ifGenerate() ast.NodeID {
	kw := p.expect("if")
	n := ast.Node{Kind: ast.IfGenerate, Line: kw.Line}
	for {
		p.expect("(")
		n.List = append(n.List, p.expr())
		p.expect(")")
		n.Items = append(n.Items, p.genBlockOrItem())
		if !p.accept("else") {
			break
		}
		if !p.accept("if") {
			n.Items = append(n.Items, p.genBlockOrItem())
			break
		}
	}
	return p.t.Add(n)
}

func (p *parser) caseGenerate() ast.NodeID {
	kw := p.expect("case")
	p.expect("(")
	n := ast.Node{Kind: ast.CaseGenerate, X: p.expr(), Line: kw.Line}
	p.expect(")")
	for !p.accept("endcase") {
		if p.tok().Type == EOF {
			p.errorf(p.tok(), "missing endcase")
		}
		ci := ast.Node{Kind: ast.CaseGenerateItem, Line: p.tok().Line}
		if p.accept("default") {
			p.accept(":")
		} else {
			for {
				ci.List = append(ci.List, p.expr())
				if !p.accept(",") {
					break
				}
			}
			p.expect(":")
		}
		ci.Body = p.genBlockOrItem()
		n.Items = append(n.Items, p.t.Add(ci))
	}
	return p.t.Add(n)
}

func (p *parser) loopGenerate() ast.NodeID {
	kw := p.expect("for")
	p.expect("(")
	v := p.ident()
	p.expect("=")
	init := p.t.NewAssign(ast.BlockingAssign, v, p.expr())
	p.expect(";")
	cond := p.expr()
	p.expect(";")
	sv := p.ident()
	p.expect("=")
	step := p.t.NewAssign(ast.BlockingAssign, sv, p.expr())
	p.expect(")")
	return p.t.Add(ast.Node{Kind: ast.LoopGenerate, X: init, Y: cond, Z: step, Body: p.genBlockOrItem(), Line: kw.Line})
}

func (p *parser) instantiation() []ast.NodeID {
	mod := p.advance()
	var params []ast.NodeID
	if p.accept("#") {
		p.expect("(")
		params = p.args()
		p.expect(")")
	}
	var res []ast.NodeID
	for {
		id := p.ident()
		p.expect("(")
		ports := p.args()
		p.expect(")")
		res = append(res, p.t.Add(ast.Node{
			Kind:   ast.ModuleInstantiation,
			Name:   mod.Value,
			ID:     id,
			Params: params,
			Ports:  ports,
			Line:   mod.Line,
		}))
		if !p.accept(",") {
			break
		}
	}
	p.expect(";")
	return res
}

// args parses ordered or named connections. An empty list yields no
// connections.
func (p *parser) args() []ast.NodeID {
	var res []ast.NodeID
	if p.is(")") {
		return nil
	}
	for {
		n := ast.Node{Kind: ast.ArgAssign, Line: p.tok().Line}
		if p.accept(".") {
			n.Name = p.t.Name(p.ident())
			p.expect("(")
			if !p.is(")") {
				n.X = p.expr()
			}
			p.expect(")")
		} else {
			n.X = p.expr()
		}
		res = append(res, p.t.Add(n))
		if !p.accept(",") {
			return res
		}
	}
}

func (p *parser) stmt() ast.NodeID {
	it := p.tok()
	switch {
	case it.is(";"):
		p.advance()
		return p.t.Add(ast.Node{Kind: ast.SeqBlock, Line: it.Line})
	case it.is("begin"):
		p.advance()
		n := ast.Node{Kind: ast.SeqBlock, Line: it.Line}
		if p.accept(":") {
			n.Name = p.t.Name(p.ident())
		}
		for !p.accept("end") {
			if p.tok().Type == EOF {
				p.errorf(p.tok(), "missing end")
			}
			n.Items = append(n.Items, p.stmt())
		}
		return p.t.Add(n)
	case it.is("if"):
		p.advance()
		p.expect("(")
		n := ast.Node{Kind: ast.IfStatement, X: p.expr(), Line: it.Line}
		p.expect(")")
		n.Y = p.stmt()
		if p.accept("else") {
			n.Z = p.stmt()
		}
		return p.t.Add(n)
	case it.Type == SysIdent:
		p.advance()
		var n ast.Node
		switch it.Value {
		case "$display":
			n.Kind = ast.DisplayStatement
		case "$write":
			n.Kind = ast.WriteStatement
		case "$finish":
			n.Kind = ast.FinishStatement
		default:
			p.errorf(it, "unsupported system task %s", it.Value)
		}
		n.Line = it.Line
		if p.accept("(") {
			if !p.is(")") {
				if n.Kind == ast.FinishStatement {
					n.X = p.expr()
				} else {
					for {
						n.List = append(n.List, p.expr())
						if !p.accept(",") {
							break
						}
					}
				}
			}
			p.expect(")")
		}
		p.expect(";")
		return p.t.Add(n)
	}
	lhs := p.lvalue()
	k := ast.BlockingAssign
	if p.accept("<=") {
		k = ast.NonblockingAssign
	} else {
		p.expect("=")
	}
	rhs := p.expr()
	p.expect(";")
	return p.t.NewAssign(k, lhs, rhs)
}

func (p *parser) lvalue() ast.NodeID {
	if p.is("{") {
		return p.primary()
	}
	id := p.ident()
	p.selects(id)
	return id
}

func (p *parser) selects(id ast.NodeID) {
	var sel []ast.NodeID
	for p.accept("[") {
		e := p.expr()
		if p.is(":") {
			p.errorf(p.tok(), "part selects are not supported")
		}
		p.expect("]")
		sel = append(sel, e)
	}
	if len(sel) > 0 {
		p.t.Node(id).List = sel
	}
}

// binary operator precedence, lowest first.
var precedence = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^", "~^", "^~"},
	{"&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"<<", ">>", "<<<", ">>>"},
	{"+", "-"},
	{"*", "/", "%"},
	{"**"},
}

func (p *parser) expr() ast.NodeID {
	c := p.binary(0)
	if !p.accept("?") {
		return c
	}
	x := p.expr()
	p.expect(":")
	y := p.expr()
	return p.t.Add(ast.Node{Kind: ast.Conditional, X: c, Y: x, Z: y})
}

func (p *parser) binary(level int) ast.NodeID {
	if level == len(precedence) {
		return p.unary()
	}
	x := p.binary(level + 1)
	for {
		it := p.tok()
		if it.Type != Punct || !contains(precedence[level], it.Value) {
			return x
		}
		p.advance()
		x = p.t.NewBinary(it.Value, x, p.binary(level+1))
	}
}

func contains(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

var unaryOps = []string{"!", "~", "-", "+", "&", "|", "^", "~&", "~|", "~^", "^~"}

func (p *parser) unary() ast.NodeID {
	if it := p.tok(); it.Type == Punct && contains(unaryOps, it.Value) {
		p.advance()
		return p.t.NewUnary(it.Value, p.unary())
	}
	return p.primary()
}

func (p *parser) primary() ast.NodeID {
	it := p.tok()
	switch {
	case it.Type == Number:
		p.advance()
		return p.number(it)
	case it.Type == String:
		p.advance()
		return p.t.NewString(it.Value)
	case it.is("("):
		p.advance()
		e := p.expr()
		p.expect(")")
		return e
	case it.is("{"):
		p.advance()
		var list []ast.NodeID
		for {
			list = append(list, p.expr())
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		return p.t.Add(ast.Node{Kind: ast.Concat, List: list})
	case it.Type == Ident && !keywords[it.Value]:
		id := p.ident()
		p.selects(id)
		return id
	}
	p.errorf(it, "unexpected %s in expression", it)
	return ast.NoNode
}

// number parses a literal such as 42, 8'd42, 'hff or 4'b1010.
func (p *parser) number(it Item) ast.NodeID {
	text := strings.Replace(it.Value, "_", "", -1)
	size, base, digits := 0, 10, text
	if i := strings.IndexByte(text, '\''); i >= 0 {
		if i > 0 {
			s, err := strconv.Atoi(text[:i])
			if err != nil || s < 1 {
				p.errorf(it, "invalid literal size in %s", it.Value)
			}
			size = s
		}
		rest := strings.TrimLeft(text[i+1:], "sS")
		switch rest[0] {
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		case 'h', 'H':
			base = 16
		}
		digits = rest[1:]
	}
	if strings.ContainsAny(digits, "xXzZ?") {
		p.errorf(it, "x and z digits are not supported in %s", it.Value)
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		p.errorf(it, "invalid literal %s", it.Value)
	}
	return p.t.Add(ast.Node{Kind: ast.Number, Size: size, Value: v, Text: it.Value, Line: it.Line})
}
