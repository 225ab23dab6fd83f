// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

import (
	"io"
	"strconv"
	"strings"
)

// Fprint writes the Verilog text of node id to w.
//
func Fprint(w io.Writer, t *Tree, id NodeID) error {
	p := printer{t: t}
	p.node(id)
	_, err := io.WriteString(w, p.b.String())
	return err
}

// Sprint returns the Verilog text of node id.
//
func Sprint(t *Tree, id NodeID) string {
	p := printer{t: t}
	p.node(id)
	return p.b.String()
}

type printer struct {
	t      *Tree
	b      strings.Builder
	indent int
}

func (p *printer) ws(s ...string) {
	for _, x := range s {
		p.b.WriteString(x)
	}
}

func (p *printer) line(s ...string) {
	p.b.WriteString(strings.Repeat("  ", p.indent))
	p.ws(s...)
}

func (p *printer) list(ids []NodeID, sep string) {
	for i, id := range ids {
		if i > 0 {
			p.ws(sep)
		}
		p.node(id)
	}
}

func (p *printer) operand(id NodeID) {
	switch p.t.Kind(id) {
	case Binary, Conditional:
		p.ws("(")
		p.node(id)
		p.ws(")")
	default:
		p.node(id)
	}
}

func (p *printer) rng(r Range) {
	if !r.IsValid() {
		return
	}
	p.ws("[")
	p.node(r.Msb)
	p.ws(":")
	p.node(r.Lsb)
	p.ws("]")
}

func (p *printer) items(ids []NodeID) {
	p.indent++
	for _, id := range ids {
		p.node(id)
	}
	p.indent--
}

// stmt prints a statement on its own line(s).
func (p *printer) stmt(id NodeID) {
	if id == NoNode {
		p.line(";\n")
		return
	}
	p.node(id)
}

func (p *printer) decl(n *Node, kw string) {
	p.ws(kw)
	if n.Signed {
		p.ws(" signed")
	}
	if n.Range.IsValid() {
		p.ws(" ")
		p.rng(n.Range)
	}
	p.ws(" ")
	p.node(n.ID)
	for _, d := range n.Dims {
		p.rng(d)
	}
	if n.X != NoNode {
		p.ws(" = ")
		p.node(n.X)
	}
}

func (p *printer) node(id NodeID) {
	if id == NoNode {
		return
	}
	n := p.t.Node(id)
	switch n.Kind {
	case Identifier:
		p.ws(n.Name)
		for _, s := range n.List {
			p.ws("[")
			p.node(s)
			p.ws("]")
		}
	case Number:
		if n.Text != "" {
			p.ws(n.Text)
		} else {
			p.ws(n.Value.String())
		}
	case String:
		p.ws(strconv.Quote(n.Text))
	case Unary:
		p.ws(n.Op)
		p.operand(n.X)
	case Binary:
		p.operand(n.X)
		p.ws(" ", n.Op, " ")
		p.operand(n.Y)
	case Conditional:
		p.operand(n.X)
		p.ws(" ? ")
		p.operand(n.Y)
		p.ws(" : ")
		p.operand(n.Z)
	case Concat:
		p.ws("{")
		p.list(n.List, ", ")
		p.ws("}")
	case ModuleDeclaration:
		p.line("module ", p.t.Name(n.ID), "(")
		p.list(n.Ports, ", ")
		p.ws(");\n")
		p.items(n.Items)
		p.line("endmodule\n")
	case PortDeclaration:
		d := p.t.Node(n.X)
		kw := n.Dir.String()
		if d.Kind == RegDeclaration {
			kw += " reg"
		} else {
			kw += " wire"
		}
		p.line()
		p.decl(d, kw)
		p.ws(";\n")
	case NetDeclaration, RegDeclaration, IntegerDeclaration, GenvarDeclaration,
		ParameterDeclaration, LocalparamDeclaration:
		p.line()
		p.decl(n, declKeyword[n.Kind])
		p.ws(";\n")
	case ContinuousAssign:
		p.line("assign ")
		p.node(n.X)
		p.ws(" = ")
		p.node(n.Y)
		p.ws(";\n")
	case InitialConstruct:
		p.line("initial\n")
		p.indent++
		p.stmt(n.Body)
		p.indent--
	case AlwaysConstruct:
		p.line("always")
		switch {
		case n.Star:
			p.ws(" @(*)")
		case len(n.Events) > 0:
			p.ws(" @(")
			for i, e := range n.Events {
				if i > 0 {
					p.ws(" or ")
				}
				switch e.Edge {
				case Posedge:
					p.ws("posedge ")
				case Negedge:
					p.ws("negedge ")
				}
				p.node(e.ID)
			}
			p.ws(")")
		}
		p.ws("\n")
		p.indent++
		p.stmt(n.Body)
		p.indent--
	case ModuleInstantiation:
		p.line(n.Name)
		if len(n.Params) > 0 {
			p.ws(" #(")
			p.list(n.Params, ", ")
			p.ws(")")
		}
		p.ws(" ")
		p.node(n.ID)
		p.ws("(")
		p.list(n.Ports, ", ")
		p.ws(");\n")
	case ArgAssign:
		if n.Name != "" {
			p.ws(".", n.Name, "(")
			p.node(n.X)
			p.ws(")")
		} else {
			p.node(n.X)
		}
	case IfGenerate:
		for i, c := range n.List {
			if i == 0 {
				p.line("if (")
			} else {
				p.line("else if (")
			}
			p.node(c)
			p.ws(")\n")
			p.genBlock(n.Items[i])
		}
		if len(n.Items) > len(n.List) {
			p.line("else\n")
			p.genBlock(n.Items[len(n.List)])
		}
	case CaseGenerate:
		p.line("case (")
		p.node(n.X)
		p.ws(")\n")
		p.items(n.Items)
		p.line("endcase\n")
	case CaseGenerateItem:
		if len(n.List) == 0 {
			p.line("default:\n")
		} else {
			p.line()
			p.list(n.List, ", ")
			p.ws(":\n")
		}
		p.genBlock(n.Body)
	case LoopGenerate:
		x, z := p.t.Node(n.X), p.t.Node(n.Z)
		p.line("for (")
		p.node(x.X)
		p.ws(" = ")
		p.node(x.Y)
		p.ws("; ")
		p.node(n.Y)
		p.ws("; ")
		p.node(z.X)
		p.ws(" = ")
		p.node(z.Y)
		p.ws(")\n")
		p.genBlock(n.Body)
	case GenerateBlock:
		p.line("begin")
		if n.Name != "" {
			p.ws(" : ", n.Name)
		}
		p.ws("\n")
		p.items(n.Items)
		p.line("end\n")
	case GenerateRegion:
		p.line("generate\n")
		p.items(n.Items)
		p.line("endgenerate\n")
	case SeqBlock:
		p.line("begin")
		if n.Name != "" {
			p.ws(" : ", n.Name)
		}
		p.ws("\n")
		p.items(n.Items)
		p.line("end\n")
	case BlockingAssign, NonblockingAssign:
		op := " = "
		if n.Kind == NonblockingAssign {
			op = " <= "
		}
		p.line()
		p.node(n.X)
		p.ws(op)
		p.node(n.Y)
		p.ws(";\n")
	case IfStatement:
		p.line("if (")
		p.node(n.X)
		p.ws(")\n")
		p.indent++
		p.stmt(n.Y)
		p.indent--
		if n.Z != NoNode {
			p.line("else\n")
			p.indent++
			p.stmt(n.Z)
			p.indent--
		}
	case DisplayStatement, WriteStatement:
		kw := "$display"
		if n.Kind == WriteStatement {
			kw = "$write"
		}
		p.line(kw)
		if len(n.List) > 0 {
			p.ws("(")
			p.list(n.List, ", ")
			p.ws(")")
		}
		p.ws(";\n")
	case FinishStatement:
		p.line("$finish")
		if n.X != NoNode {
			p.ws("(")
			p.node(n.X)
			p.ws(")")
		}
		p.ws(";\n")
	default:
		panic("ast: cannot print " + n.Kind.String())
	}
}

func (p *printer) genBlock(id NodeID) {
	if p.t.Kind(id) == GenerateBlock {
		p.node(id)
		return
	}
	p.indent++
	p.node(id)
	p.indent--
}

var declKeyword = map[Kind]string{
	NetDeclaration:        "wire",
	RegDeclaration:        "reg",
	IntegerDeclaration:    "integer",
	GenvarDeclaration:     "genvar",
	ParameterDeclaration:  "parameter",
	LocalparamDeclaration: "localparam",
}
