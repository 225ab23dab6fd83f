// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast

import (
	"math/big"
	"strconv"
)

// NodeID is a handle to a node in a Tree. The zero value denotes no node.
//
type NodeID uint32

// NoNode is the invalid node handle.
//
const NoNode NodeID = 0

// IsValid returns true if id is not NoNode.
//
func (id NodeID) IsValid() bool { return id != NoNode }

// Kind tags the variant held by a Node.
//
type Kind uint8

// Node kinds.
//
const (
	Invalid Kind = iota

	// expressions
	Identifier
	Number
	String
	Unary
	Binary
	Conditional
	Concat

	// module items
	ModuleDeclaration
	PortDeclaration
	NetDeclaration
	RegDeclaration
	IntegerDeclaration
	GenvarDeclaration
	ParameterDeclaration
	LocalparamDeclaration
	ContinuousAssign
	InitialConstruct
	AlwaysConstruct
	ModuleInstantiation
	ArgAssign
	IfGenerate
	CaseGenerate
	CaseGenerateItem
	LoopGenerate
	GenerateBlock
	GenerateRegion

	// statements
	SeqBlock
	BlockingAssign
	NonblockingAssign
	IfStatement
	DisplayStatement
	WriteStatement
	FinishStatement

	kindCount
)

var kindNames = [...]string{
	Invalid:               "Invalid",
	Identifier:            "Identifier",
	Number:                "Number",
	String:                "String",
	Unary:                 "Unary",
	Binary:                "Binary",
	Conditional:           "Conditional",
	Concat:                "Concat",
	ModuleDeclaration:     "ModuleDeclaration",
	PortDeclaration:       "PortDeclaration",
	NetDeclaration:        "NetDeclaration",
	RegDeclaration:        "RegDeclaration",
	IntegerDeclaration:    "IntegerDeclaration",
	GenvarDeclaration:     "GenvarDeclaration",
	ParameterDeclaration:  "ParameterDeclaration",
	LocalparamDeclaration: "LocalparamDeclaration",
	ContinuousAssign:      "ContinuousAssign",
	InitialConstruct:      "InitialConstruct",
	AlwaysConstruct:       "AlwaysConstruct",
	ModuleInstantiation:   "ModuleInstantiation",
	ArgAssign:             "ArgAssign",
	IfGenerate:            "IfGenerate",
	CaseGenerate:          "CaseGenerate",
	CaseGenerateItem:      "CaseGenerateItem",
	LoopGenerate:          "LoopGenerate",
	GenerateBlock:         "GenerateBlock",
	GenerateRegion:        "GenerateRegion",
	SeqBlock:              "SeqBlock",
	BlockingAssign:        "BlockingAssign",
	NonblockingAssign:     "NonblockingAssign",
	IfStatement:           "IfStatement",
	DisplayStatement:      "DisplayStatement",
	WriteStatement:        "WriteStatement",
	FinishStatement:       "FinishStatement",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsDeclaration returns true for kinds that declare a named variable, net,
// parameter or genvar.
//
func (k Kind) IsDeclaration() bool {
	switch k {
	case NetDeclaration, RegDeclaration, IntegerDeclaration, GenvarDeclaration,
		ParameterDeclaration, LocalparamDeclaration:
		return true
	}
	return false
}

// Dir is a port direction.
//
type Dir uint8

// Port directions.
//
const (
	DirNone Dir = iota
	Input
	Output
	Inout
)

func (d Dir) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Inout:
		return "inout"
	}
	return ""
}

// Edge qualifies an event control.
//
type Edge uint8

// Event edges.
//
const (
	AnyEdge Edge = iota
	Posedge
	Negedge
)

// Event is one term of an always construct's sensitivity list.
//
type Event struct {
	Edge Edge
	ID   NodeID
}

// Range is a [msb:lsb] pair of constant expressions. A zero Range means the
// declaration has no explicit range.
//
type Range struct {
	Msb, Lsb NodeID
}

// IsValid returns true if r is an explicit range.
//
func (r Range) IsValid() bool { return r.Msb.IsValid() }

// Node is a tagged union of all AST node variants. Which fields are
// meaningful depends on Kind:
//
//	Identifier            Name, List (selects)
//	Number                Value, Size (0 when unsized), Text
//	String                Text
//	Unary                 Op, X
//	Binary                Op, X, Y
//	Conditional           X ? Y : Z
//	Concat                List
//	ModuleDeclaration     ID, Ports (identifiers), Items
//	PortDeclaration       Dir, X (wrapped net or reg declaration)
//	*Declaration          ID, Signed, Range, Dims, X (initializer)
//	ContinuousAssign      X = Y
//	InitialConstruct      Body
//	AlwaysConstruct       Events, Star, Body
//	ModuleInstantiation   Name (module), ID (instance), Params, Ports (ArgAssign)
//	ArgAssign             Name (explicit name or ""), X (actual or NoNode)
//	IfGenerate            List (conditions), Items (blocks, one more if else)
//	CaseGenerate          X (selector), Items (CaseGenerateItem)
//	CaseGenerateItem      List (labels, empty for default), Body
//	LoopGenerate          X (init), Y (condition), Z (step), Body
//	GenerateBlock         Name (label or ""), Items
//	GenerateRegion        Items
//	SeqBlock              Name, Items
//	BlockingAssign        X = Y
//	NonblockingAssign     X <= Y
//	IfStatement           if (X) Y else Z
//	DisplayStatement      List (args)
//	WriteStatement        List (args)
//	FinishStatement       X (arg or NoNode)
//
type Node struct {
	Kind   Kind
	Name   string
	Text   string
	Op     string
	Value  *big.Int
	Size   int
	Dir    Dir
	Signed bool
	Star   bool
	ID     NodeID
	X      NodeID
	Y      NodeID
	Z      NodeID
	Body   NodeID
	Range  Range
	Dims   []Range
	List   []NodeID
	Ports  []NodeID
	Params []NodeID
	Items  []NodeID
	Events []Event
	Line   int
}

// Tree is an arena of AST nodes. Nodes reference each other through NodeID
// handles, never through pointers, so subtrees can be built, copied and
// rewritten without dangling references.
//
// A Tree is not safe for concurrent mutation. Concurrent readers are fine as
// long as nobody calls Add.
//
type Tree struct {
	nodes []Node
	// Modules lists the top-level module declarations in source order.
	Modules []NodeID
}

// New returns a new empty Tree.
//
func New() *Tree {
	return &Tree{nodes: make([]Node, 0, 64)}
}

// Add appends n to the tree and returns its handle.
//
func (t *Tree) Add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes))
}

// Node returns the node for id. The returned pointer is only valid until the
// next call to Add. Node panics if id is not a valid handle in t.
//
func (t *Tree) Node(id NodeID) *Node {
	if id == NoNode || int(id) > len(t.nodes) {
		panic("ast: invalid node handle " + strconv.Itoa(int(id)))
	}
	return &t.nodes[id-1]
}

// Kind returns the kind of node id, or Invalid for NoNode.
//
func (t *Tree) Kind(id NodeID) Kind {
	if id == NoNode {
		return Invalid
	}
	return t.Node(id).Kind
}

// Len returns the number of nodes in the tree.
//
func (t *Tree) Len() int { return len(t.nodes) }

// Module returns the module declaration named name, or NoNode.
//
func (t *Tree) Module(name string) NodeID {
	for _, m := range t.Modules {
		if t.Name(t.Node(m).ID) == name {
			return m
		}
	}
	return NoNode
}

// Name returns the name of an identifier node.
//
func (t *Tree) Name(id NodeID) string {
	if id == NoNode {
		return ""
	}
	return t.Node(id).Name
}

// ModuleName returns the declared name of a module declaration.
//
func (t *Tree) ModuleName(md NodeID) string {
	return t.Name(t.Node(md).ID)
}
