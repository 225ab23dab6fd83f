// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package isolate flattens instantiated modules into self-contained module
// declarations.
//
// Isolating an instantiation produces a new module with no nested
// instantiations and no generate constructs. Every identifier of the result is
// either a global carried over verbatim or a mangled local:
//
//	__M<k>_<Module>               the isolated module
//	__l<n>[_<segment>...]_<name>  a local variable
//
// where n is a counter dense within one isolation, and each segment is either
// <ChildModule><count> for an inlined instance or the label of a named
// generate block, suffixed with the loop index inside unrolled loops.
//
// Parameters, localparams and genvars are folded and elided. Their uses become
// numeric literals.
//
package isolate

import (
	"fmt"
	"strings"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/eval"
	"github.com/db47h/hwbind/target"
	"github.com/pkg/errors"
)

// Result is an isolated module.
//
type Result struct {
	// Tree holds the flat module and nothing else.
	Tree *ast.Tree
	// Module is the flat module declaration.
	Module ast.NodeID
	// VIds maps the declaring identifiers of the flat module's ports and
	// stateful variables to their VId.
	VIds map[ast.NodeID]target.VId
	// Next is the first VId not used by this result.
	Next target.VId
}

// Elaborator isolates the instantiations of a program root module. The
// declarations of the root are the program's globals; they are numbered in
// declaration order starting from 0.
//
// An Elaborator never modifies the source tree. Distinct Elaborators may
// share a source tree across goroutines.
//
type Elaborator struct {
	src     *ast.Tree
	root    ast.NodeID
	lib     map[string]ast.NodeID
	globals map[string]target.VId
	decls   map[string]ast.NodeID // global name -> root declaration
	names   []string
	scope   *scope
	insts   []ast.NodeID
	next    target.VId
}

func library(t *ast.Tree) (map[string]ast.NodeID, error) {
	lib := make(map[string]ast.NodeID, len(t.Modules))
	for _, md := range t.Modules {
		name := t.ModuleName(md)
		if _, ok := lib[name]; ok {
			return nil, errors.Errorf("module %s declared twice", name)
		}
		lib[name] = md
	}
	return lib, nil
}

// New returns an Elaborator for the program rooted at module root of t.
//
func New(t *ast.Tree, root ast.NodeID) (*Elaborator, error) {
	if t.Kind(root) != ast.ModuleDeclaration {
		return nil, errors.New("root is not a module declaration")
	}
	lib, err := library(t)
	if err != nil {
		return nil, err
	}
	e := &Elaborator{
		src:     t,
		root:    root,
		lib:     lib,
		globals: make(map[string]target.VId),
		decls:   make(map[string]ast.NodeID),
		scope:   newScope(nil, nil),
	}
	items := transparent(t, t.Node(root).Items)
	for _, it := range items {
		n := t.Node(it)
		switch n.Kind {
		case ast.ParameterDeclaration, ast.LocalparamDeclaration:
			name := t.Name(n.ID)
			v, err := eval.Fold(t, n.X, e.scope.consts(t))
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %s", name)
			}
			if err := e.scope.bind(name, &binding{kind: bindConst, val: v}); err != nil {
				return nil, err
			}
		}
	}
	for _, it := range items {
		n := t.Node(it)
		switch n.Kind {
		case ast.PortDeclaration, ast.NetDeclaration, ast.RegDeclaration, ast.IntegerDeclaration:
			name := t.Name(t.DeclID(it))
			if err := e.scope.bind(name, &binding{kind: bindGlobal, name: name}); err != nil {
				return nil, errors.Wrap(err, "root")
			}
			e.globals[name] = target.VId(len(e.names))
			e.decls[name] = t.DeclOf(it)
			e.names = append(e.names, name)
		case ast.ModuleInstantiation:
			e.insts = append(e.insts, it)
		}
	}
	e.next = target.VId(len(e.names))
	return e, nil
}

// Globals returns the names of the global variables, indexed by VId.
//
func (e *Elaborator) Globals() []string { return e.names }

// Global returns the VId of the global variable name.
//
func (e *Elaborator) Global(name string) (target.VId, bool) {
	v, ok := e.globals[name]
	return v, ok
}

// Instances returns the module instantiations of the root module, in source
// order.
//
func (e *Elaborator) Instances() []ast.NodeID { return e.insts }

// Next returns the next VId that Isolate will assign to a local.
//
func (e *Elaborator) Next() target.VId { return e.next }

// Isolate flattens instantiation inst of the root module. Local VIds are
// allocated after those of previous calls.
//
func (e *Elaborator) Isolate(inst ast.NodeID) (*Result, error) {
	for k, it := range e.insts {
		if it == inst {
			res, err := e.isolate(k, e.next)
			if err != nil {
				return nil, err
			}
			e.next = res.Next
			return res, nil
		}
	}
	return nil, errors.New("not an instantiation of the root module")
}

// isolate flattens the k-th instantiation of the root, numbering locals from
// first. It does not modify e.
func (e *Elaborator) isolate(k int, first target.VId) (*Result, error) {
	n := e.src.Node(e.insts[k])
	inst := e.src.Name(n.ID)
	md, ok := e.lib[n.Name]
	if !ok {
		return nil, errors.Errorf("line %d: unknown module %s", n.Line, n.Name)
	}
	p := newPass(e)
	p.stack = []string{n.Name}
	conns, err := p.connections(n, md)
	if err != nil {
		return nil, errors.Wrapf(err, "instance %s of %s", inst, n.Name)
	}
	// plain global actuals become ports of the isolated module
	shell := make(map[string]string)
	used := make(map[string]bool)
	for _, c := range conns {
		if c.actual == ast.NoNode {
			continue
		}
		a := e.src.Node(c.actual)
		if a.Kind != ast.Identifier || len(a.List) > 0 {
			continue
		}
		if b := e.scope.lookup(a.Name); b != nil && b.kind == bindGlobal && !used[a.Name] {
			shell[c.formal] = a.Name
			used[a.Name] = true
		}
	}
	if err := p.instantiate(n, md, e.scope, newScope(nil, nil), shell); err != nil {
		return nil, errors.Wrapf(err, "instance %s of %s", inst, n.Name)
	}
	if err := p.globalPorts(); err != nil {
		return nil, errors.Wrapf(err, "instance %s of %s", inst, n.Name)
	}
	return p.result(fmt.Sprintf("__M%d_%s", k, n.Name), first), nil
}

// Module isolates module md of t on its own. The module's ports are the
// globals, numbered in port order, and keep their names.
//
func Module(t *ast.Tree, md ast.NodeID) (*Result, error) {
	if t.Kind(md) != ast.ModuleDeclaration {
		return nil, errors.New("not a module declaration")
	}
	lib, err := library(t)
	if err != nil {
		return nil, err
	}
	e := &Elaborator{
		src:     t,
		root:    md,
		lib:     lib,
		globals: make(map[string]target.VId),
		scope:   newScope(nil, nil),
	}
	name := t.ModuleName(md)
	shell := make(map[string]string)
	for _, f := range t.Node(md).Ports {
		fn := t.Name(f)
		if _, ok := e.globals[fn]; ok {
			return nil, errors.Errorf("module %s: port %s listed twice", name, fn)
		}
		e.globals[fn] = target.VId(len(e.names))
		e.names = append(e.names, fn)
		shell[fn] = fn
	}
	p := newPass(e)
	p.stack = []string{name}
	sc := newScope(nil, nil)
	items := t.Node(md).Items
	if err := p.prepass(items, sc, nil, shell); err != nil {
		return nil, errors.Wrapf(err, "module %s", name)
	}
	for _, fn := range e.names {
		if b := sc.names[fn]; b == nil || b.kind != bindGlobal {
			return nil, errors.Errorf("module %s: port %s has no direction declaration", name, fn)
		}
	}
	if err := p.items(items, sc); err != nil {
		return nil, errors.Wrapf(err, "module %s", name)
	}
	return p.result("__M0_"+name, target.VId(len(e.names))), nil
}

// pass holds the state of one isolation.
type pass struct {
	e         *Elaborator
	dst       *ast.Tree
	sym       int
	mods      map[string]int
	ports     []ast.NodeID
	portDecls []ast.NodeID
	decls     []ast.NodeID
	body      []ast.NodeID
	stack     []string // modules being instantiated, outermost first

	// root globals referenced from actual expressions
	gports map[string]ast.NodeID // global name -> shell port declaration
	guse   []string
	gdir   map[string]ast.Dir
}

func newPass(e *Elaborator) *pass {
	return &pass{
		e:      e,
		dst:    ast.New(),
		mods:   make(map[string]int),
		gports: make(map[string]ast.NodeID),
		gdir:   make(map[string]ast.Dir),
	}
}

// useGlobal records a reference to root global name from an actual. A global
// driven by an output connection anywhere becomes an output port.
func (p *pass) useGlobal(name string, dir ast.Dir) {
	if _, ok := p.gdir[name]; !ok {
		p.guse = append(p.guse, name)
		p.gdir[name] = dir
		return
	}
	if dir == ast.Output {
		p.gdir[name] = ast.Output
	}
}

// drives marks the root globals assigned by lvalue x as outputs.
func (p *pass) drives(x ast.NodeID) {
	n := p.dst.Node(x)
	switch n.Kind {
	case ast.Identifier:
		if _, ok := p.gdir[n.Name]; ok {
			p.useGlobal(n.Name, ast.Output)
		}
	case ast.Concat:
		for _, c := range n.List {
			p.drives(c)
		}
	}
}

// globalPorts declares a shell port for every root global referenced from an
// actual expression that is not already a port. Ports take the shape of the
// root declaration. Integers become signed 32 bits nets.
func (p *pass) globalPorts() error {
	src := p.e.src
	for _, name := range p.guse {
		dir := p.gdir[name]
		if pd, ok := p.gports[name]; ok {
			if dir == ast.Output {
				p.dst.Node(pd).Dir = ast.Output
			}
			continue
		}
		decl, ok := p.e.decls[name]
		if !ok {
			return errors.Errorf("global %s has no declaration", name)
		}
		n := src.Node(decl)
		r, dims, err := p.declShape(decl, p.e.scope)
		if err != nil {
			return errors.Wrapf(err, "global %s", name)
		}
		signed := n.Signed
		if n.Kind == ast.IntegerDeclaration {
			signed = true
			r = ast.Range{Msb: p.dst.NewUint(0, 31), Lsb: p.dst.NewUint(0, 0)}
		}
		d := p.dst.NewDecl(ast.NetDeclaration, p.dst.NewIdent(name), signed, r, dims, ast.NoNode)
		pd := p.dst.NewPort(dir, d)
		p.gports[name] = pd
		p.ports = append(p.ports, p.dst.NewIdent(name))
		p.portDecls = append(p.portDecls, pd)
	}
	return nil
}

func (p *pass) mangle(sc *scope, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "__l%d", p.sym)
	p.sym++
	for _, s := range sc.path {
		sb.WriteByte('_')
		sb.WriteString(s)
	}
	sb.WriteByte('_')
	sb.WriteString(name)
	return sb.String()
}

// result assembles the flat module: port declarations, then local
// declarations, then the flattened items. Ports take their global VId and
// stateful locals are numbered from first in declaration order.
func (p *pass) result(name string, first target.VId) *Result {
	items := make([]ast.NodeID, 0, len(p.portDecls)+len(p.decls)+len(p.body))
	items = append(items, p.portDecls...)
	items = append(items, p.decls...)
	items = append(items, p.body...)
	md := p.dst.NewModule(name, p.ports, items)

	vids := make(map[ast.NodeID]target.VId)
	for _, pd := range p.portDecls {
		id := p.dst.DeclID(pd)
		vids[id] = p.e.globals[p.dst.Name(id)]
	}
	next := first
	for _, d := range p.decls {
		switch p.dst.Kind(d) {
		case ast.RegDeclaration, ast.IntegerDeclaration:
			vids[p.dst.Node(d).ID] = next
			next++
		}
	}
	return &Result{Tree: p.dst, Module: md, VIds: vids, Next: next}
}
