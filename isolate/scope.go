// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package isolate

import (
	"math/big"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/eval"
	"github.com/pkg/errors"
)

type bindKind int

const (
	bindConst  bindKind = iota // parameter or localparam, folded
	bindGenvar                 // genvar, val is set inside loop iterations
	bindLocal                  // mangled local variable
	bindGlobal                 // global variable, name carried verbatim
)

type binding struct {
	kind bindKind
	val  *big.Int
	name string     // emitted name
	decl ast.NodeID // emitted declaration (or port declaration) in the flat tree
	dir  ast.Dir    // port direction, DirNone for plain variables
}

// scope is a naming scope: a module body, a named generate block or a loop
// iteration. Module scopes have no parent.
type scope struct {
	parent *scope
	path   []string
	names  map[string]*binding
}

func newScope(parent *scope, path []string) *scope {
	return &scope{parent: parent, path: path, names: make(map[string]*binding)}
}

// child returns a scope nested in s. A non empty seg extends the mangling
// path.
func (s *scope) child(seg string) *scope {
	path := s.path
	if seg != "" {
		path = append(append([]string(nil), s.path...), seg)
	}
	return newScope(s, path)
}

func (s *scope) lookup(name string) *binding {
	for ; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b
		}
	}
	return nil
}

func (s *scope) bind(name string, b *binding) error {
	if _, ok := s.names[name]; ok {
		return errors.Errorf("duplicate declaration of %q", name)
	}
	s.names[name] = b
	return nil
}

// consts returns a lookup function folding parameters and bound genvars of
// the scope. Identifiers are named in t.
func (s *scope) consts(t *ast.Tree) eval.Lookup {
	return func(id ast.NodeID) (*big.Int, bool) {
		b := s.lookup(t.Name(id))
		if b == nil || b.val == nil {
			return nil, false
		}
		return b.val, true
	}
}

// overrides holds the parameter values set by an instantiation.
type overrides struct {
	ordered []*big.Int
	named   map[string]*big.Int
}

// transparent returns the items of a list, descending into generate regions
// and unnamed blocks that are not the branch of a generate construct.
func transparent(t *ast.Tree, items []ast.NodeID) []ast.NodeID {
	var res []ast.NodeID
	for _, it := range items {
		n := t.Node(it)
		switch {
		case n.Kind == ast.GenerateRegion, n.Kind == ast.GenerateBlock && n.Name == "":
			res = append(res, transparent(t, n.Items)...)
		default:
			res = append(res, it)
		}
	}
	return res
}

// prepass binds the declarations of a scope before its items are flattened.
// Parameters are folded first, in declaration order, then variables are
// bound. Formals listed in shell become ports of the flat module named after
// the global they are connected to.
func (p *pass) prepass(items []ast.NodeID, sc *scope, ov *overrides, shell map[string]string) error {
	src := p.e.src
	items = transparent(src, items)
	np := 0
	used := make(map[string]bool)
	for _, it := range items {
		n := src.Node(it)
		switch n.Kind {
		case ast.ParameterDeclaration, ast.LocalparamDeclaration:
			name := src.Name(n.ID)
			var v *big.Int
			if n.Kind == ast.ParameterDeclaration && ov != nil {
				if np < len(ov.ordered) {
					v = ov.ordered[np]
				} else if nv, ok := ov.named[name]; ok {
					v = nv
					used[name] = true
				}
				np++
			}
			if v == nil {
				var err error
				if v, err = eval.Fold(src, n.X, sc.consts(src)); err != nil {
					return errors.Wrapf(err, "parameter %s", name)
				}
			}
			if err := sc.bind(name, &binding{kind: bindConst, val: v}); err != nil {
				return err
			}
		}
	}
	if ov != nil {
		if len(ov.ordered) > np {
			return errors.Errorf("%d parameter overrides for %d parameters", len(ov.ordered), np)
		}
		for name := range ov.named {
			if !used[name] {
				return errors.Errorf("unknown parameter %q", name)
			}
		}
	}

	for _, it := range items {
		n := src.Node(it)
		switch n.Kind {
		case ast.PortDeclaration:
			d := src.Node(n.X)
			name := src.Name(d.ID)
			if n.Dir == ast.Inout {
				return errors.Errorf("inout port %s is not supported", name)
			}
			var b *binding
			var err error
			if g, ok := shell[name]; ok {
				b, err = p.shellPort(n.Dir, n.X, g, sc)
			} else {
				b, err = p.local(n.X, d.Kind, sc)
			}
			if err != nil {
				return err
			}
			b.dir = n.Dir
			if err := sc.bind(name, b); err != nil {
				return err
			}
		case ast.NetDeclaration, ast.RegDeclaration, ast.IntegerDeclaration:
			name := src.Name(n.ID)
			if b := sc.names[name]; b != nil && b.dir != ast.DirNone {
				// non-ANSI port followed by its net or reg declaration
				if err := p.mergePort(b, it, sc); err != nil {
					return err
				}
				continue
			}
			b, err := p.local(it, n.Kind, sc)
			if err != nil {
				return err
			}
			if err := sc.bind(name, b); err != nil {
				return err
			}
		case ast.GenvarDeclaration:
			if err := sc.bind(src.Name(n.ID), &binding{kind: bindGenvar}); err != nil {
				return err
			}
		}
	}
	return nil
}

// foldRange folds a declared range or dimension to numeric literals in the
// flat tree.
func (p *pass) foldRange(r ast.Range, sc *scope) (ast.Range, error) {
	if !r.IsValid() {
		return r, nil
	}
	src := p.e.src
	msb, err := eval.Fold(src, r.Msb, sc.consts(src))
	if err != nil {
		return r, errors.Wrap(err, "range")
	}
	lsb, err := eval.Fold(src, r.Lsb, sc.consts(src))
	if err != nil {
		return r, errors.Wrap(err, "range")
	}
	return ast.Range{Msb: p.dst.NewNumber(0, msb), Lsb: p.dst.NewNumber(0, lsb)}, nil
}

// declShape folds the range and dimensions of declaration decl.
func (p *pass) declShape(decl ast.NodeID, sc *scope) (r ast.Range, dims []ast.Range, err error) {
	n := p.e.src.Node(decl)
	if r, err = p.foldRange(n.Range, sc); err != nil {
		return r, nil, err
	}
	for _, d := range n.Dims {
		fd, err := p.foldRange(d, sc)
		if err != nil {
			return r, nil, err
		}
		dims = append(dims, fd)
	}
	return r, dims, nil
}

// local emits the declaration of a mangled local for the source declaration
// decl.
func (p *pass) local(decl ast.NodeID, k ast.Kind, sc *scope) (*binding, error) {
	n := p.e.src.Node(decl)
	name := p.mangle(sc, p.e.src.Name(n.ID))
	r, dims, err := p.declShape(decl, sc)
	if err != nil {
		return nil, errors.Wrapf(err, "declaration of %s", p.e.src.Name(n.ID))
	}
	d := p.dst.NewDecl(k, p.dst.NewIdent(name), n.Signed, r, dims, ast.NoNode)
	p.decls = append(p.decls, d)
	return &binding{kind: bindLocal, name: name, decl: d}, nil
}

// shellPort emits a port of the flat module named after global g.
func (p *pass) shellPort(dir ast.Dir, decl ast.NodeID, g string, sc *scope) (*binding, error) {
	n := p.e.src.Node(decl)
	r, dims, err := p.declShape(decl, sc)
	if err != nil {
		return nil, errors.Wrapf(err, "port %s", p.e.src.Name(n.ID))
	}
	d := p.dst.NewDecl(n.Kind, p.dst.NewIdent(g), n.Signed, r, dims, ast.NoNode)
	pd := p.dst.NewPort(dir, d)
	p.gports[g] = pd
	p.ports = append(p.ports, p.dst.NewIdent(g))
	p.portDecls = append(p.portDecls, pd)
	return &binding{kind: bindGlobal, name: g, decl: pd}, nil
}

// mergePort applies a net or reg declaration to an already bound port.
func (p *pass) mergePort(b *binding, decl ast.NodeID, sc *scope) error {
	n := p.e.src.Node(decl)
	if n.Kind == ast.IntegerDeclaration {
		return errors.Errorf("port %s declared as integer", p.e.src.Name(n.ID))
	}
	r, _, err := p.declShape(decl, sc)
	if err != nil {
		return err
	}
	d := p.dst.DeclOf(b.decl)
	dn := p.dst.Node(d)
	if n.Kind == ast.RegDeclaration {
		dn.Kind = ast.RegDeclaration
	}
	if r.IsValid() && !dn.Range.IsValid() {
		dn.Range = r
	}
	return nil
}
