// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eval

import (
	"math/big"

	"github.com/db47h/hwbind/ast"
	"github.com/pkg/errors"
)

// Lookup returns the constant value bound to identifier id, if any.
//
type Lookup func(id ast.NodeID) (*big.Int, bool)

// MaxShift is the largest shift amount accepted in constant expressions.
//
const MaxShift = 1 << 16

var one = big.NewInt(1)

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Fold evaluates the constant expression id of t with unbounded signed
// integer arithmetic. Identifiers are resolved through lookup, which may be
// nil. Comparisons and logical operators yield 0 or 1.
//
func Fold(t *ast.Tree, id ast.NodeID, lookup Lookup) (*big.Int, error) {
	v, _, err := fold(t, id, lookup)
	return v, err
}

// FoldInt is like Fold but requires the result to fit in an int.
//
func FoldInt(t *ast.Tree, id ast.NodeID, lookup Lookup) (int, error) {
	v, err := Fold(t, id, lookup)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() != int64(int(v.Int64())) {
		return 0, errors.Errorf("constant %s out of range", v)
	}
	return int(v.Int64()), nil
}

// fold returns the value and size of a constant expression. A size of 0
// denotes an unsized value.
func fold(t *ast.Tree, id ast.NodeID, lookup Lookup) (*big.Int, int, error) {
	n := t.Node(id)
	switch n.Kind {
	case ast.Number:
		return new(big.Int).Set(n.Value), n.Size, nil
	case ast.String:
		return new(big.Int).SetBytes([]byte(n.Text)), 8 * len(n.Text), nil
	case ast.Identifier:
		if len(n.List) > 0 {
			return nil, 0, errors.Errorf("%s[...] is not a constant", n.Name)
		}
		if lookup != nil {
			if v, ok := lookup(id); ok {
				return new(big.Int).Set(v), 0, nil
			}
		}
		return nil, 0, errors.Errorf("%s is not a constant", n.Name)
	case ast.Unary:
		x, sz, err := fold(t, n.X, lookup)
		if err != nil {
			return nil, 0, err
		}
		return foldUnary(n.Op, x, sz)
	case ast.Binary:
		x, sx, err := fold(t, n.X, lookup)
		if err != nil {
			return nil, 0, err
		}
		y, sy, err := fold(t, n.Y, lookup)
		if err != nil {
			return nil, 0, err
		}
		return foldBinary(n.Op, x, y, sx, sy)
	case ast.Conditional:
		c, _, err := fold(t, n.X, lookup)
		if err != nil {
			return nil, 0, err
		}
		if c.Sign() != 0 {
			return fold(t, n.Y, lookup)
		}
		return fold(t, n.Z, lookup)
	case ast.Concat:
		res, size := new(big.Int), 0
		for _, e := range n.List {
			v, sz, err := fold(t, e, lookup)
			if err != nil {
				return nil, 0, err
			}
			if sz == 0 {
				return nil, 0, errors.New("unsized constant in concatenation")
			}
			res.Lsh(res, uint(sz))
			res.Or(res, truncate(v, sz))
			size += sz
		}
		return res, size, nil
	case ast.ModuleDeclaration, ast.PortDeclaration, ast.NetDeclaration, ast.RegDeclaration,
		ast.IntegerDeclaration, ast.GenvarDeclaration, ast.ParameterDeclaration,
		ast.LocalparamDeclaration, ast.ContinuousAssign, ast.InitialConstruct,
		ast.AlwaysConstruct, ast.ModuleInstantiation, ast.ArgAssign, ast.IfGenerate,
		ast.CaseGenerate, ast.CaseGenerateItem, ast.LoopGenerate, ast.GenerateBlock,
		ast.GenerateRegion, ast.SeqBlock, ast.BlockingAssign, ast.NonblockingAssign,
		ast.IfStatement, ast.DisplayStatement, ast.WriteStatement, ast.FinishStatement:
		return nil, 0, errors.Errorf("%s is not an expression", n.Kind)
	default:
		panic("eval: unhandled node kind " + n.Kind.String())
	}
}

// truncate returns the low size bits of v as a non-negative integer.
func truncate(v *big.Int, size int) *big.Int {
	mask := new(big.Int).Lsh(one, uint(size))
	mask.Sub(mask, one)
	return new(big.Int).And(v, mask)
}

func maxSize(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		return a
	}
	return b
}

func foldUnary(op string, x *big.Int, sz int) (*big.Int, int, error) {
	switch op {
	case "+":
		return x, sz, nil
	case "-":
		return new(big.Int).Neg(x), sz, nil
	case "!":
		return boolInt(x.Sign() == 0), 1, nil
	case "~":
		return new(big.Int).Not(x), sz, nil
	}
	// reductions
	if x.Sign() < 0 {
		if sz == 0 {
			return nil, 0, errors.Errorf("reduction %s of a negative unsized constant", op)
		}
		x = truncate(x, sz)
	}
	n := sz
	if n == 0 {
		n = x.BitLen()
	}
	ones := 0
	for i := 0; i < x.BitLen(); i++ {
		ones += int(x.Bit(i))
	}
	var r bool
	switch op {
	case "&", "~&":
		r = n > 0 && ones == n
	case "|", "~|":
		r = ones > 0
	case "^", "~^", "^~":
		r = ones%2 == 1
	default:
		return nil, 0, errors.Errorf("unknown unary operator %q", op)
	}
	if len(op) == 2 {
		r = !r
	}
	return boolInt(r), 1, nil
}

func foldBinary(op string, x, y *big.Int, sx, sy int) (*big.Int, int, error) {
	sz := maxSize(sx, sy)
	switch op {
	case "+":
		return new(big.Int).Add(x, y), sz, nil
	case "-":
		return new(big.Int).Sub(x, y), sz, nil
	case "*":
		return new(big.Int).Mul(x, y), sz, nil
	case "/", "%":
		if y.Sign() == 0 {
			return nil, 0, errors.New("division by zero in constant expression")
		}
		if op == "/" {
			return new(big.Int).Quo(x, y), sz, nil
		}
		return new(big.Int).Rem(x, y), sz, nil
	case "**":
		if y.Sign() < 0 {
			return nil, 0, errors.New("negative exponent in constant expression")
		}
		if y.Cmp(big.NewInt(MaxShift)) > 0 {
			return nil, 0, errors.Errorf("exponent %s too large", y)
		}
		return new(big.Int).Exp(x, y, nil), sz, nil
	case "<<", "<<<", ">>", ">>>":
		if y.Sign() < 0 || y.Cmp(big.NewInt(MaxShift)) > 0 {
			return nil, 0, errors.Errorf("invalid shift amount %s", y)
		}
		if op[0] == '<' {
			return new(big.Int).Lsh(x, uint(y.Int64())), sx, nil
		}
		return new(big.Int).Rsh(x, uint(y.Int64())), sx, nil
	case "&":
		return new(big.Int).And(x, y), sz, nil
	case "|":
		return new(big.Int).Or(x, y), sz, nil
	case "^":
		return new(big.Int).Xor(x, y), sz, nil
	case "~^", "^~":
		return new(big.Int).Not(new(big.Int).Xor(x, y)), sz, nil
	case "==", "===":
		return boolInt(x.Cmp(y) == 0), 1, nil
	case "!=", "!==":
		return boolInt(x.Cmp(y) != 0), 1, nil
	case "<":
		return boolInt(x.Cmp(y) < 0), 1, nil
	case "<=":
		return boolInt(x.Cmp(y) <= 0), 1, nil
	case ">":
		return boolInt(x.Cmp(y) > 0), 1, nil
	case ">=":
		return boolInt(x.Cmp(y) >= 0), 1, nil
	case "&&":
		return boolInt(x.Sign() != 0 && y.Sign() != 0), 1, nil
	case "||":
		return boolInt(x.Sign() != 0 || y.Sign() != 0), 1, nil
	}
	return nil, 0, errors.Errorf("unknown binary operator %q", op)
}
