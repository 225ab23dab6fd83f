// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

// ModuleInfo classifies the variables of a module.
//
// Inputs and outputs are the declaring identifiers of input and output ports.
// Stateful variables are all reg and integer declarations, including output
// ports declared as reg. All lists are in declaration order.
//
type ModuleInfo struct {
	r        *Resolution
	inputs   []NodeID
	outputs  []NodeID
	stateful []NodeID
	isState  map[NodeID]bool
}

// NewModuleInfo returns the ModuleInfo for module md resolved by r.
//
func NewModuleInfo(t *Tree, md NodeID, r *Resolution) *ModuleInfo {
	mi := &ModuleInfo{r: r, isState: make(map[NodeID]bool)}
	mi.collect(t, t.Node(md).Items)
	return mi
}

func (mi *ModuleInfo) collect(t *Tree, items []NodeID) {
	for _, it := range items {
		n := t.Node(it)
		switch n.Kind {
		case GenerateBlock, GenerateRegion:
			mi.collect(t, n.Items)
			continue
		case PortDeclaration:
			switch n.Dir {
			case Input:
				mi.inputs = append(mi.inputs, t.DeclID(it))
			case Output:
				mi.outputs = append(mi.outputs, t.DeclID(it))
			case Inout:
				mi.inputs = append(mi.inputs, t.DeclID(it))
				mi.outputs = append(mi.outputs, t.DeclID(it))
			}
		}
		switch t.Kind(t.DeclOf(it)) {
		case RegDeclaration, IntegerDeclaration:
			id := t.DeclID(it)
			mi.stateful = append(mi.stateful, id)
			mi.isState[id] = true
		}
	}
}

// Inputs returns the module's input ports.
//
func (mi *ModuleInfo) Inputs() []NodeID { return mi.inputs }

// Outputs returns the module's output ports.
//
func (mi *ModuleInfo) Outputs() []NodeID { return mi.outputs }

// Stateful returns the module's stateful variables.
//
func (mi *ModuleInfo) Stateful() []NodeID { return mi.stateful }

// IsStateful returns true if id refers to a stateful variable.
//
func (mi *ModuleInfo) IsStateful(id NodeID) bool {
	return mi.isState[mi.r.Decl(id)]
}
