// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package isolate

import (
	"math/big"
	"strconv"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/eval"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxIterations is the maximum number of iterations of a generate loop.
//
const MaxIterations = 65536

// items flattens a list of module items into p.body. The declarations of the
// list must have been bound by prepass.
func (p *pass) items(items []ast.NodeID, sc *scope) error {
	src := p.e.src
	for _, it := range items {
		n := src.Node(it)
		switch n.Kind {
		case ast.PortDeclaration, ast.NetDeclaration, ast.GenvarDeclaration,
			ast.ParameterDeclaration, ast.LocalparamDeclaration:
			// bound by prepass or elided
		case ast.RegDeclaration, ast.IntegerDeclaration:
			if n.X == ast.NoNode {
				continue
			}
			name := src.Name(n.ID)
			x, err := p.expr(n.X, sc)
			if err != nil {
				return errors.Wrapf(err, "initializer of %s", name)
			}
			b := sc.names[name]
			p.dst.Node(p.dst.DeclOf(b.decl)).X = x
		case ast.ContinuousAssign:
			lhs, err := p.lvalue(n.X, sc)
			if err != nil {
				return err
			}
			rhs, err := p.expr(n.Y, sc)
			if err != nil {
				return err
			}
			p.body = append(p.body, p.dst.NewAssign(ast.ContinuousAssign, lhs, rhs))
		case ast.InitialConstruct:
			body, err := p.stmt(n.Body, sc)
			if err != nil {
				return err
			}
			p.body = append(p.body, p.dst.Add(ast.Node{Kind: ast.InitialConstruct, Body: body, Line: n.Line}))
		case ast.AlwaysConstruct:
			if err := p.always(n, sc); err != nil {
				return err
			}
		case ast.ModuleInstantiation:
			if err := p.replace(n, sc); err != nil {
				return err
			}
		case ast.IfGenerate:
			if err := p.ifGenerate(n, sc); err != nil {
				return err
			}
		case ast.CaseGenerate:
			if err := p.caseGenerate(n, sc); err != nil {
				return err
			}
		case ast.LoopGenerate:
			if err := p.loopGenerate(n, sc); err != nil {
				return err
			}
		case ast.GenerateBlock:
			if n.Name == "" {
				// transparent, bound with the enclosing scope
				if err := p.items(n.Items, sc); err != nil {
					return err
				}
				continue
			}
			if err := p.block(it, sc, n.Name); err != nil {
				return err
			}
		case ast.GenerateRegion:
			if err := p.items(n.Items, sc); err != nil {
				return err
			}
		case ast.Identifier, ast.Number, ast.String, ast.Unary, ast.Binary, ast.Conditional,
			ast.Concat, ast.ModuleDeclaration, ast.ArgAssign, ast.CaseGenerateItem,
			ast.SeqBlock, ast.BlockingAssign, ast.NonblockingAssign, ast.IfStatement,
			ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
			return errors.Errorf("line %d: unexpected %s in module body", n.Line, n.Kind)
		default:
			panic("isolate: unhandled node kind " + n.Kind.String())
		}
	}
	return nil
}

func (p *pass) always(n *ast.Node, sc *scope) error {
	evs := make([]ast.Event, 0, len(n.Events))
	for _, ev := range n.Events {
		x, err := p.expr(ev.ID, sc)
		if err != nil {
			return err
		}
		if p.dst.Kind(x) != ast.Identifier {
			return errors.Errorf("line %d: event on constant %s", n.Line, p.e.src.Name(ev.ID))
		}
		evs = append(evs, ast.Event{Edge: ev.Edge, ID: x})
	}
	body, err := p.stmt(n.Body, sc)
	if err != nil {
		return err
	}
	p.body = append(p.body, p.dst.Add(ast.Node{
		Kind:   ast.AlwaysConstruct,
		Star:   n.Star,
		Events: evs,
		Body:   body,
		Line:   n.Line,
	}))
	return nil
}

// block flattens a generate block taken by a generate construct. Named blocks
// open a new scope; seg extends the mangling path of that scope. Unnamed
// blocks bind their declarations in sc.
func (p *pass) block(id ast.NodeID, sc *scope, seg string) error {
	n := p.e.src.Node(id)
	if n.Kind != ast.GenerateBlock {
		return errors.Errorf("line %d: expected generate block, got %s", n.Line, n.Kind)
	}
	if n.Name != "" {
		sc = sc.child(seg)
	}
	if err := p.prepass(n.Items, sc, nil, nil); err != nil {
		return err
	}
	if err := p.items(n.Items, sc); err != nil {
		if n.Name != "" {
			return errors.Wrapf(err, "block %s", n.Name)
		}
		return err
	}
	return nil
}

func (p *pass) fold(id ast.NodeID, sc *scope) (*big.Int, error) {
	return eval.Fold(p.e.src, id, sc.consts(p.e.src))
}

func (p *pass) ifGenerate(n *ast.Node, sc *scope) error {
	for i, c := range n.List {
		v, err := p.fold(c, sc)
		if err != nil {
			return errors.Wrapf(err, "line %d: if-generate condition", n.Line)
		}
		if v.Sign() != 0 {
			log.WithFields(log.Fields{"line": n.Line, "branch": i}).Debug("if-generate branch taken")
			return p.block(n.Items[i], sc, p.e.src.Node(n.Items[i]).Name)
		}
	}
	if len(n.Items) > len(n.List) {
		log.WithField("line", n.Line).Debug("if-generate else branch taken")
		els := n.Items[len(n.List)]
		return p.block(els, sc, p.e.src.Node(els).Name)
	}
	return nil
}

func (p *pass) caseGenerate(n *ast.Node, sc *scope) error {
	sel, err := p.fold(n.X, sc)
	if err != nil {
		return errors.Wrapf(err, "line %d: case-generate selector", n.Line)
	}
	def := ast.NoNode
	for _, ci := range n.Items {
		c := p.e.src.Node(ci)
		if len(c.List) == 0 {
			if def == ast.NoNode {
				def = c.Body
			}
			continue
		}
		for _, l := range c.List {
			v, err := p.fold(l, sc)
			if err != nil {
				return errors.Wrapf(err, "line %d: case-generate label", c.Line)
			}
			if v.Cmp(sel) == 0 {
				log.WithFields(log.Fields{"line": n.Line, "selector": sel}).Debug("case-generate branch taken")
				return p.block(c.Body, sc, p.e.src.Node(c.Body).Name)
			}
		}
	}
	if def == ast.NoNode {
		return errors.Errorf("line %d: case-generate selector %s matches no branch and there is no default", n.Line, sel)
	}
	log.WithField("line", n.Line).Debug("case-generate default taken")
	return p.block(def, sc, p.e.src.Node(def).Name)
}

func (p *pass) loopGenerate(n *ast.Node, sc *scope) error {
	src := p.e.src
	init, step := src.Node(n.X), src.Node(n.Z)
	gv := src.Name(init.X)
	if b := sc.lookup(gv); b == nil || b.kind != bindGenvar {
		return errors.Errorf("line %d: loop variable %s is not a genvar", n.Line, gv)
	}
	if sv := src.Name(step.X); sv != gv {
		return errors.Errorf("line %d: loop step assigns %s instead of %s", n.Line, sv, gv)
	}
	v, err := p.fold(init.Y, sc)
	if err != nil {
		return errors.Wrapf(err, "line %d: loop initializer", n.Line)
	}
	label := src.Node(n.Body).Name
	count := 0
	for {
		it := sc.child("")
		it.names[gv] = &binding{kind: bindGenvar, val: v}
		c, err := p.fold(n.Y, it)
		if err != nil {
			return errors.Wrapf(err, "line %d: loop condition", n.Line)
		}
		if c.Sign() == 0 {
			break
		}
		if count == MaxIterations {
			return errors.Errorf("line %d: generate loop exceeds %d iterations", n.Line, MaxIterations)
		}
		seg := ""
		if label != "" {
			seg = label + v.String()
		}
		if err := p.iteration(n.Body, it, seg); err != nil {
			return errors.Wrapf(err, "%s iteration %s", gv, v)
		}
		if v, err = p.fold(step.Y, it); err != nil {
			return errors.Wrapf(err, "line %d: loop step", n.Line)
		}
		count++
	}
	log.WithFields(log.Fields{"line": n.Line, "genvar": gv, "iterations": count}).Debug("generate loop unrolled")
	return nil
}

// iteration flattens one unrolled copy of a loop body. Each iteration has its
// own scope, whether the body is named or not.
func (p *pass) iteration(body ast.NodeID, it *scope, seg string) error {
	n := p.e.src.Node(body)
	sc := it
	if seg != "" {
		sc = newScope(it, append(append([]string(nil), it.path...), seg))
	}
	if err := p.prepass(n.Items, sc, nil, nil); err != nil {
		return err
	}
	return p.items(n.Items, sc)
}

// connection is a formal port of an instantiated module and the actual
// expression connected to it.
type connection struct {
	formal string
	actual ast.NodeID
}

// connections matches the port connections of instantiation n to the formal
// ports of module md.
func (p *pass) connections(n *ast.Node, md ast.NodeID) ([]connection, error) {
	src := p.e.src
	formals := src.Node(md).Ports
	var res []connection
	named := len(n.Ports) > 0 && src.Node(n.Ports[0]).Name != ""
	for i, a := range n.Ports {
		an := src.Node(a)
		if (an.Name != "") != named {
			return nil, errors.New("mixed ordered and named port connections")
		}
		if !named {
			if i >= len(formals) {
				return nil, errors.Errorf("%d port connections for %d ports", len(n.Ports), len(formals))
			}
			res = append(res, connection{src.Name(formals[i]), an.X})
			continue
		}
		found := false
		for _, f := range formals {
			if src.Name(f) == an.Name {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown port %q", an.Name)
		}
		res = append(res, connection{an.Name, an.X})
	}
	return res, nil
}

// overrides folds the parameter assignments of an instantiation in the
// instantiating scope.
func (p *pass) overrides(params []ast.NodeID, sc *scope) (*overrides, error) {
	ov := &overrides{named: make(map[string]*big.Int)}
	for _, a := range params {
		an := p.e.src.Node(a)
		if an.X == ast.NoNode {
			continue
		}
		v, err := p.fold(an.X, sc)
		if err != nil {
			return nil, errors.Wrap(err, "parameter override")
		}
		if an.Name != "" {
			ov.named[an.Name] = v
		} else {
			ov.ordered = append(ov.ordered, v)
		}
	}
	return ov, nil
}

// replace flattens module instantiation n: the child's formals become locals
// linked to the actuals by continuous assignments, and the child's items are
// spliced in.
func (p *pass) replace(n *ast.Node, sc *scope) error {
	md := p.e.lib[n.Name]
	if md == ast.NoNode {
		return errors.Errorf("line %d: unknown module %s", n.Line, n.Name)
	}
	inst := p.e.src.Name(n.ID)
	for _, m := range p.stack {
		if m == n.Name {
			return errors.Errorf("line %d: recursive instantiation of %s", n.Line, n.Name)
		}
	}
	p.stack = append(p.stack, n.Name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()
	seg := n.Name + strconv.Itoa(p.mods[n.Name])
	p.mods[n.Name]++
	child := newScope(nil, append(append([]string(nil), sc.path...), seg))
	if err := p.instantiate(n, md, sc, child, nil); err != nil {
		return errors.Wrapf(err, "instance %s of %s", inst, n.Name)
	}
	log.WithFields(log.Fields{"module": n.Name, "instance": inst, "path": seg}).Debug("instantiation replaced")
	return nil
}

// instantiate binds and flattens the body of module md instantiated by n from
// scope parent into scope child. Formals listed in shell become ports of the
// flat module and are not linked by assignments.
func (p *pass) instantiate(n *ast.Node, md ast.NodeID, parent, child *scope, shell map[string]string) error {
	ov, err := p.overrides(n.Params, parent)
	if err != nil {
		return err
	}
	conns, err := p.connections(n, md)
	if err != nil {
		return err
	}
	items := p.e.src.Node(md).Items
	if err = p.prepass(items, child, ov, shell); err != nil {
		return err
	}
	for _, c := range conns {
		if _, ok := shell[c.formal]; ok || c.actual == ast.NoNode {
			continue
		}
		b := child.names[c.formal]
		if b == nil || b.dir == ast.DirNone {
			return errors.Errorf("port %s has no direction declaration", c.formal)
		}
		formal := p.dst.NewIdent(b.name)
		switch b.dir {
		case ast.Input:
			x, err := p.expr(c.actual, parent)
			if err != nil {
				return errors.Wrapf(err, "port %s", c.formal)
			}
			p.body = append(p.body, p.dst.NewAssign(ast.ContinuousAssign, formal, x))
		case ast.Output:
			x, err := p.expr(c.actual, parent)
			if err != nil {
				return errors.Wrapf(err, "port %s", c.formal)
			}
			if !isLvalue(p.dst, x) {
				return errors.Errorf("output port %s connected to a non-lvalue", c.formal)
			}
			p.drives(x)
			p.body = append(p.body, p.dst.NewAssign(ast.ContinuousAssign, x, formal))
		}
	}
	return p.items(items, child)
}
