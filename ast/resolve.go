// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

import (
	"github.com/pkg/errors"
)

// Resolution is a side table mapping identifier uses to the identifier of
// their declaration within one module.
//
type Resolution struct {
	decl  map[NodeID]NodeID // identifier -> declaring identifier
	node  map[NodeID]NodeID // declaring identifier -> declaration
	port  map[NodeID]NodeID // declaring identifier -> port declaration
	names map[string]NodeID
}

// Resolve resolves every identifier of module md against the module's
// declarations. Names in generate blocks share the module's namespace, which
// is exact for elaborated (flat) modules.
//
func Resolve(t *Tree, md NodeID) (*Resolution, error) {
	r := &Resolution{
		decl:  make(map[NodeID]NodeID),
		node:  make(map[NodeID]NodeID),
		port:  make(map[NodeID]NodeID),
		names: make(map[string]NodeID),
	}
	m := t.Node(md)
	if m.Kind != ModuleDeclaration {
		return nil, errors.New("resolve: " + m.Kind.String() + " is not a module declaration")
	}
	if err := r.declare(t, m.Items); err != nil {
		return nil, err
	}
	for _, p := range m.Ports {
		if err := r.use(t, p); err != nil {
			return nil, err
		}
	}
	for _, it := range m.Items {
		if err := r.resolveItem(t, it); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resolution) declare(t *Tree, items []NodeID) error {
	for _, it := range items {
		n := t.Node(it)
		switch n.Kind {
		case GenerateBlock, GenerateRegion:
			if err := r.declare(t, n.Items); err != nil {
				return err
			}
			continue
		}
		id := t.DeclID(it)
		if id == NoNode {
			continue
		}
		name := t.Name(id)
		if _, ok := r.names[name]; ok {
			return errors.Errorf("resolve: duplicate declaration of %q", name)
		}
		r.names[name] = id
		r.decl[id] = id
		r.node[id] = t.DeclOf(it)
		if n.Kind == PortDeclaration {
			r.port[id] = it
		}
	}
	return nil
}

func (r *Resolution) resolveItem(t *Tree, it NodeID) error {
	var err error
	t.Inspect(it, func(c NodeID) bool {
		if err != nil {
			return false
		}
		n := t.Node(c)
		switch {
		case n.Kind == ModuleInstantiation:
			// instance and module names are not variables
			for _, a := range append(append([]NodeID(nil), n.Params...), n.Ports...) {
				if err = r.resolveItem(t, a); err != nil {
					return false
				}
			}
			return false
		case n.Kind == Identifier:
			err = r.use(t, c)
		}
		return true
	})
	return err
}

func (r *Resolution) use(t *Tree, id NodeID) error {
	if _, ok := r.decl[id]; ok {
		return nil
	}
	name := t.Name(id)
	d, ok := r.names[name]
	if !ok {
		return errors.Errorf("resolve: unresolved identifier %q", name)
	}
	r.decl[id] = d
	return nil
}

// Decl returns the declaring identifier of id, or NoNode.
//
func (r *Resolution) Decl(id NodeID) NodeID {
	return r.decl[id]
}

// Declaration returns the declaration node of a declaring identifier.
//
func (r *Resolution) Declaration(id NodeID) NodeID {
	return r.node[r.decl[id]]
}

// Port returns the port declaration of a declaring identifier, or NoNode if
// the variable is not a port.
//
func (r *Resolution) Port(id NodeID) NodeID {
	return r.port[r.decl[id]]
}

// Lookup returns the declaring identifier for name, or NoNode.
//
func (r *Resolution) Lookup(name string) NodeID {
	return r.names[name]
}
