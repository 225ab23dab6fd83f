// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package eval provides constant folding and a host side evaluator for
// elaborated modules.
//
// The Evaluator keeps one value per declared variable (one per element for
// arrays). It answers width and arity queries, moves 32 bits words in and out
// of variables and evaluates expressions with unsigned, width truncated
// arithmetic.
//
package eval

import (
	"math/big"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/pkg/errors"
)

// IntegerWidth is the width of integer and genvar variables and of unsized
// literals.
//
const IntegerWidth = 32

// Evaluator evaluates expressions of a resolved module.
//
type Evaluator struct {
	t    *ast.Tree
	md   ast.NodeID
	r    *ast.Resolution
	vals map[ast.NodeID][]*bits.Bits
	// cached declaration shapes
	widths map[ast.NodeID]int
	arity  map[ast.NodeID][]dim
	task   func(ast.NodeID)
}

type dim struct {
	lo, n int
}

// New returns an Evaluator for module md of t, resolved by r. All variables
// start at zero.
//
func New(t *ast.Tree, md ast.NodeID, r *ast.Resolution) *Evaluator {
	return &Evaluator{
		t:      t,
		md:     md,
		r:      r,
		vals:   make(map[ast.NodeID][]*bits.Bits),
		widths: make(map[ast.NodeID]int),
		arity:  make(map[ast.NodeID][]dim),
	}
}

// Tree returns the tree being evaluated.
//
func (e *Evaluator) Tree() *ast.Tree { return e.t }

// Resolution returns the module's resolution table.
//
func (e *Evaluator) Resolution() *ast.Resolution { return e.r }

// lookup folds parameters of the module so that declarations in modules that
// have not been elaborated still have well defined shapes.
func (e *Evaluator) lookup(id ast.NodeID) (*big.Int, bool) {
	d := e.r.Declaration(id)
	if d == ast.NoNode {
		return nil, false
	}
	n := e.t.Node(d)
	switch n.Kind {
	case ast.ParameterDeclaration, ast.LocalparamDeclaration:
		v, err := Fold(e.t, n.X, e.lookup)
		return v, err == nil
	}
	return nil, false
}

func (e *Evaluator) fold(id ast.NodeID) int {
	v, err := FoldInt(e.t, id, e.lookup)
	if err != nil {
		panic(errors.Wrap(err, "eval: non constant declaration shape"))
	}
	return v
}

func (e *Evaluator) span(r ast.Range) (lo, n int) {
	msb, lsb := e.fold(r.Msb), e.fold(r.Lsb)
	if msb < lsb {
		msb, lsb = lsb, msb
	}
	return lsb, msb - lsb + 1
}

// declWidth returns the declared width of the variable declared by decl.
func (e *Evaluator) declWidth(decl ast.NodeID) int {
	if w, ok := e.widths[decl]; ok {
		return w
	}
	n := e.t.Node(e.r.Declaration(decl))
	w := 1
	switch n.Kind {
	case ast.IntegerDeclaration, ast.GenvarDeclaration:
		w = IntegerWidth
	case ast.ParameterDeclaration, ast.LocalparamDeclaration:
		w = IntegerWidth
		if n.Range.IsValid() {
			_, w = e.span(n.Range)
		}
	case ast.NetDeclaration, ast.RegDeclaration:
		if n.Range.IsValid() {
			_, w = e.span(n.Range)
		}
	default:
		panic("eval: " + n.Kind.String() + " does not declare a variable")
	}
	e.widths[decl] = w
	return w
}

func (e *Evaluator) dims(decl ast.NodeID) []dim {
	if ds, ok := e.arity[decl]; ok {
		return ds
	}
	n := e.t.Node(e.r.Declaration(decl))
	var ds []dim
	for _, r := range n.Dims {
		lo, cnt := e.span(r)
		ds = append(ds, dim{lo, cnt})
	}
	e.arity[decl] = ds
	return ds
}

func (e *Evaluator) decl(id ast.NodeID) ast.NodeID {
	d := e.r.Decl(id)
	if d == ast.NoNode {
		panic("eval: unresolved identifier " + e.t.Name(id))
	}
	return d
}

// Arity returns the dimension sizes of the variable referenced by identifier
// id. It is empty for scalars.
//
func (e *Evaluator) Arity(id ast.NodeID) []int {
	ds := e.dims(e.decl(id))
	a := make([]int, len(ds))
	for i, d := range ds {
		a[i] = d.n
	}
	return a
}

// Elements returns the number of elements of the variable referenced by id:
// the product of its arity, 1 for scalars.
//
func (e *Evaluator) Elements(id ast.NodeID) int {
	n := 1
	for _, d := range e.dims(e.decl(id)) {
		n *= d.n
	}
	return n
}

// DeclaredWidth returns the declared width of the variable referenced by
// identifier id.
//
func (e *Evaluator) DeclaredWidth(id ast.NodeID) int {
	return e.declWidth(e.decl(id))
}

// Width returns the self-determined width of expression id. An identifier
// with more selects than its variable has dimensions is a bit select of
// width 1.
//
func (e *Evaluator) Width(id ast.NodeID) int {
	n := e.t.Node(id)
	switch n.Kind {
	case ast.Identifier:
		d := e.decl(id)
		if len(n.List) > len(e.dims(d)) {
			return 1
		}
		return e.declWidth(d)
	case ast.Number:
		if n.Size > 0 {
			return n.Size
		}
		return IntegerWidth
	case ast.String:
		if len(n.Text) == 0 {
			return 8
		}
		return 8 * len(n.Text)
	case ast.Unary:
		switch n.Op {
		case "-", "+", "~":
			return e.Width(n.X)
		}
		return 1
	case ast.Binary:
		switch n.Op {
		case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "&&", "||":
			return 1
		case "<<", ">>", "<<<", ">>>", "**":
			return e.Width(n.X)
		}
		return maxInt(e.Width(n.X), e.Width(n.Y))
	case ast.Conditional:
		return maxInt(e.Width(n.Y), e.Width(n.Z))
	case ast.Concat:
		w := 0
		for _, c := range n.List {
			w += e.Width(c)
		}
		return w
	case ast.ModuleDeclaration, ast.PortDeclaration, ast.NetDeclaration, ast.RegDeclaration,
		ast.IntegerDeclaration, ast.GenvarDeclaration, ast.ParameterDeclaration,
		ast.LocalparamDeclaration, ast.ContinuousAssign, ast.InitialConstruct,
		ast.AlwaysConstruct, ast.ModuleInstantiation, ast.ArgAssign, ast.IfGenerate,
		ast.CaseGenerate, ast.CaseGenerateItem, ast.LoopGenerate, ast.GenerateBlock,
		ast.GenerateRegion, ast.SeqBlock, ast.BlockingAssign, ast.NonblockingAssign,
		ast.IfStatement, ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
		panic("eval: " + n.Kind.String() + " has no width")
	default:
		panic("eval: unhandled node kind " + n.Kind.String())
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// storage returns the element storage of the variable declared by decl.
func (e *Evaluator) storage(decl ast.NodeID) []*bits.Bits {
	if vs, ok := e.vals[decl]; ok {
		return vs
	}
	n := 1
	for _, d := range e.dims(decl) {
		n *= d.n
	}
	w := e.declWidth(decl)
	vs := make([]*bits.Bits, n)
	for i := range vs {
		vs[i] = bits.New(w)
	}
	e.vals[decl] = vs
	return vs
}

// Value returns the value of the scalar variable referenced by id. For arrays
// it returns element 0. The returned value is live: it changes when the
// variable is assigned.
//
func (e *Evaluator) Value(id ast.NodeID) *bits.Bits {
	return e.storage(e.decl(id))[0]
}

// ArrayValue returns the elements of the variable referenced by id, in
// element-major order.
//
func (e *Evaluator) ArrayValue(id ast.NodeID) []*bits.Bits {
	return e.storage(e.decl(id))
}

// SetValue assigns v to the scalar variable referenced by id, zero extending
// or truncating it to the declared width.
//
func (e *Evaluator) SetValue(id ast.NodeID, v *bits.Bits) {
	e.storage(e.decl(id))[0].Assign(v)
}

// SetArrayValue assigns vs element by element to the variable referenced by
// id. Extra values are ignored; missing ones leave elements unchanged.
//
func (e *Evaluator) SetArrayValue(id ast.NodeID, vs []*bits.Bits) {
	st := e.storage(e.decl(id))
	for i := 0; i < len(st) && i < len(vs); i++ {
		st[i].Assign(vs[i])
	}
}

// AssignWord sets 32 bits word w of element elem of the variable referenced by
// id. Words past the declared width are discarded.
//
func (e *Evaluator) AssignWord(id ast.NodeID, elem, w int, word uint32) {
	st := e.storage(e.decl(id))
	if elem < 0 || elem >= len(st) {
		panic(errors.Errorf("eval: element %d out of range for %s", elem, e.t.Name(id)))
	}
	st[elem].SetWord(w, word)
}

// element returns the flat element index selected by the leading selects of
// an identifier, or -1 if out of range.
func (e *Evaluator) element(decl ast.NodeID, sel []ast.NodeID) int {
	ds := e.dims(decl)
	idx := 0
	for i, d := range ds {
		if i >= len(sel) {
			return 0
		}
		v := e.Eval(sel[i]).Big()
		off := new(big.Int).Sub(v, big.NewInt(int64(d.lo)))
		if off.Sign() < 0 || off.Cmp(big.NewInt(int64(d.n))) >= 0 {
			return -1
		}
		idx = idx*d.n + int(off.Int64())
	}
	return idx
}

// Eval evaluates expression id and returns a new value of width Width(id).
// Out of range selects read as zero.
//
func (e *Evaluator) Eval(id ast.NodeID) *bits.Bits {
	n := e.t.Node(id)
	w := e.Width(id)
	switch n.Kind {
	case ast.Identifier:
		d := e.decl(id)
		ds := e.dims(d)
		el := e.element(d, n.List)
		if el < 0 {
			return bits.New(w)
		}
		v := e.storage(d)[el]
		if len(n.List) > len(ds) {
			b := e.Eval(n.List[len(ds)]).Big()
			if !b.IsInt64() || b.Int64() >= int64(v.Width()) {
				return bits.New(1)
			}
			return bits.FromUint64(1, uint64(v.Big().Bit(int(b.Int64()))))
		}
		return v.Clone()
	case ast.Number:
		return bits.FromBig(w, n.Value)
	case ast.String:
		return bits.FromBig(w, new(big.Int).SetBytes([]byte(n.Text)))
	case ast.Unary:
		x := e.Eval(n.X)
		switch n.Op {
		case "+":
			return x
		case "-":
			return bits.FromBig(w, new(big.Int).Neg(x.Big()))
		case "~":
			return bits.FromBig(w, new(big.Int).Not(x.Big()))
		}
		v, _, err := foldUnary(n.Op, x.Big(), x.Width())
		if err != nil {
			panic(err)
		}
		return bits.FromBig(1, v)
	case ast.Binary:
		x, y := e.Eval(n.X), e.Eval(n.Y)
		switch n.Op {
		case "/", "%":
			if y.IsZero() {
				return bits.New(w)
			}
		case "<<", ">>", "<<<", ">>>", "**":
			if y.Big().Cmp(big.NewInt(MaxShift)) > 0 {
				if n.Op[0] == '<' || n.Op[0] == '>' {
					return bits.New(w)
				}
				panic(errors.Errorf("eval: exponent %s too large", y))
			}
		}
		v, _, err := foldBinary(n.Op, x.Big(), y.Big(), x.Width(), y.Width())
		if err != nil {
			panic(err)
		}
		return bits.FromBig(w, v)
	case ast.Conditional:
		if !e.Eval(n.X).IsZero() {
			return e.Eval(n.Y).Resize(w)
		}
		return e.Eval(n.Z).Resize(w)
	case ast.Concat:
		v := new(big.Int)
		for _, c := range n.List {
			cv := e.Eval(c)
			v.Lsh(v, uint(cv.Width()))
			v.Or(v, cv.Big())
		}
		return bits.FromBig(w, v)
	case ast.ModuleDeclaration, ast.PortDeclaration, ast.NetDeclaration, ast.RegDeclaration,
		ast.IntegerDeclaration, ast.GenvarDeclaration, ast.ParameterDeclaration,
		ast.LocalparamDeclaration, ast.ContinuousAssign, ast.InitialConstruct,
		ast.AlwaysConstruct, ast.ModuleInstantiation, ast.ArgAssign, ast.IfGenerate,
		ast.CaseGenerate, ast.CaseGenerateItem, ast.LoopGenerate, ast.GenerateBlock,
		ast.GenerateRegion, ast.SeqBlock, ast.BlockingAssign, ast.NonblockingAssign,
		ast.IfStatement, ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
		panic("eval: " + n.Kind.String() + " is not an expression")
	default:
		panic("eval: unhandled node kind " + n.Kind.String())
	}
}

// assign stores v into lvalue lhs. It returns true if the stored value
// changed.
func (e *Evaluator) assign(lhs ast.NodeID, v *bits.Bits) bool {
	n := e.t.Node(lhs)
	switch n.Kind {
	case ast.Identifier:
		d := e.decl(lhs)
		ds := e.dims(d)
		el := e.element(d, n.List)
		if el < 0 {
			return false
		}
		dst := e.storage(d)[el]
		if len(n.List) > len(ds) {
			b := e.Eval(n.List[len(ds)]).Big()
			if !b.IsInt64() || b.Int64() >= int64(dst.Width()) {
				return false
			}
			i := int(b.Int64())
			old := dst.Bit(i)
			dst.SetBit(i, v.Bit(0))
			return old != v.Bit(0)
		}
		nv := v.Resize(dst.Width())
		if nv.Equal(dst) {
			return false
		}
		dst.Assign(nv)
		return true
	case ast.Concat:
		// the last element gets the low bits
		x := v.Big()
		changed := false
		for i := len(n.List) - 1; i >= 0; i-- {
			c := n.List[i]
			cw := e.Width(c)
			if e.assign(c, bits.FromBig(cw, x)) {
				changed = true
			}
			x.Rsh(x, uint(cw))
		}
		return changed
	}
	panic("eval: " + n.Kind.String() + " is not an lvalue")
}
