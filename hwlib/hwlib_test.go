package hwlib_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/eval"
	hl "github.com/db47h/hwbind/hwlib"
	"github.com/db47h/hwbind/hwtest"
)

// flat isolates module top of src and returns an initialized evaluator for it.
func flat(t *testing.T, src, top string) (*eval.Evaluator, *ast.ModuleInfo) {
	t.Helper()
	res := hwtest.Isolate(t, src, top)
	r, err := ast.Resolve(res.Tree, res.Module)
	if err != nil {
		t.Fatal(err)
	}
	ev := eval.New(res.Tree, res.Module, r)
	if err := ev.Init(hwtest.MaxIter); err != nil {
		t.Fatal(err)
	}
	return ev, ast.NewModuleInfo(res.Tree, res.Module, r)
}

func testGate(t *testing.T, src, name string, result [][]bool) {
	t.Helper()
	ev, info := flat(t, src, name)
	inputs := info.Inputs()
	outputs := info.Outputs()
	vals := make([]bool, len(inputs))

	tot := 1 << uint(len(inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			vals[len(inputs)-bit-1] = (i & (1 << uint(bit))) != 0
		}
		for k, in := range inputs {
			var v uint64
			if vals[k] {
				v = 1
			}
			ev.SetValue(in, bits.FromUint64(1, v))
		}
		if err := ev.Settle(hwtest.MaxIter); err != nil {
			t.Fatal(err)
		}
		for o, out := range outputs {
			exp := result[o][i]
			if got := !ev.Value(out).IsZero(); exp != got {
				t.Errorf("%s %v = %v, got %v", name, vals, exp, got)
			}
		}
	}
}

const constGates = `
module True(input a, output out);
  And g(.a(1'b1), .b(1'b1), .out(out));
endmodule
module False(input a, output out);
  Or g(.a(1'b0), .b(1'b0), .out(out));
endmodule
`

func Test_gate_builtin(t *testing.T) {
	src := hl.MustSource(hl.Not, hl.And, hl.Nand, hl.Or, hl.Nor, hl.Xor, hl.Xnor,
		hl.Mux, hl.MuxGates, hl.DMux) + constGates
	td := []struct {
		name   string
		result [][]bool // a=0 && b=0, a=0 && b=1, a=1 && b=0, a=1 && b=1
	}{
		{hl.Not, [][]bool{{true, false}}},
		{hl.And, [][]bool{{false, false, false, true}}},
		{hl.Nand, [][]bool{{true, true, true, false}}},
		{hl.Or, [][]bool{{false, true, true, true}}},
		{hl.Nor, [][]bool{{true, false, false, false}}},
		{hl.Xor, [][]bool{{false, true, true, false}}},
		{hl.Xnor, [][]bool{{true, false, false, true}}},
		{"True", [][]bool{{true, true}}},
		{"False", [][]bool{{false, false}}},
		{hl.Mux, [][]bool{{false, false, false, true, true, false, true, true}}},
		{hl.MuxGates, [][]bool{{false, false, false, true, true, false, true, true}}},
		{hl.DMux, [][]bool{{false, false, true, false}, {false, false, false, true}}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			testGate(t, src, d.name, d.result)
		})
	}
}

func Test_gateN_builtin(t *testing.T) {
	src := hl.MustSource(hl.AndN, hl.NandN, hl.OrN, hl.NorN, hl.NotN)
	td := []struct {
		name string
		ctrl func(a, b uint16) uint16
	}{
		{hl.AndN, func(a, b uint16) uint16 { return a & b }},
		{hl.NandN, func(a, b uint16) uint16 { return ^(a & b) }},
		{hl.OrN, func(a, b uint16) uint16 { return a | b }},
		{hl.NorN, func(a, b uint16) uint16 { return ^(a | b) }},
		{hl.NotN, func(a, b uint16) uint16 { return ^a }},
	}

	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			ev, info := flat(t, src, d.name)
			in := info.Inputs()
			out := info.Outputs()[0]
			f := func(x, y uint16) bool {
				ev.SetValue(in[0], bits.FromUint64(16, uint64(x)))
				if len(in) > 1 {
					ev.SetValue(in[1], bits.FromUint64(16, uint64(y)))
				}
				if err := ev.Settle(hwtest.MaxIter); err != nil {
					t.Fatal(err)
				}
				return uint16(ev.Value(out).Uint64()) == d.ctrl(x, y)
			}
			if err := quick.Check(f, nil); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestOrNWays(t *testing.T) {
	src := hl.MustSource(hl.OrNWay) + `
module myOr4Way(input [3:0] in, output out);
  wire o1, o2;
  Or g0(.a(in[0]), .b(in[1]), .out(o1));
  Or g1(.a(in[2]), .b(in[3]), .out(o2));
  Or g2(.a(o1), .b(o2), .out(out));
endmodule
`
	hwtest.CompareModules(t, src, hl.OrNWay, "myOr4Way")
}

func TestAndNWays(t *testing.T) {
	src := hl.MustSource(hl.AndNWay) + `
module myAnd4Way(input [3:0] in, output out);
  wire o1, o2;
  And g0(.a(in[0]), .b(in[1]), .out(o1));
  And g1(.a(in[2]), .b(in[3]), .out(o2));
  And g2(.a(o1), .b(o2), .out(out));
endmodule
`
	hwtest.CompareModules(t, src, hl.AndNWay, "myAnd4Way")
}

func TestMuxN(t *testing.T) {
	src := hl.MustSource(hl.MuxN, hl.Mux) + `
module Mux4(input [3:0] a, b, input sel, output [3:0] out);
  MuxN #(4) m(.a(a), .b(b), .sel(sel), .out(out));
endmodule
module myMux4(input [3:0] a, b, input sel, output [3:0] out);
  genvar i;
  for (i = 0; i < 4; i = i + 1) begin : bit_
    Mux m(.a(a[i]), .b(b[i]), .sel(sel), .out(out[i]));
  end
endmodule
`
	hwtest.CompareModules(t, src, "Mux4", "myMux4")
}
