package hwlib_test

import (
	"strings"
	"testing"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	hl "github.com/db47h/hwbind/hwlib"
	"github.com/db47h/hwbind/hwtest"
	"github.com/db47h/hwbind/target"
)

func TestDFF(t *testing.T) {
	ev, info := flat(t, hl.MustSource(hl.DFF), hl.DFF)
	clk, in := info.Inputs()[0], info.Inputs()[1]
	out := info.Outputs()[0]

	var prev uint64
	for i := 0; i < 8; i++ {
		v := uint64(i*5) & 1
		ev.SetValue(in, bits.FromUint64(1, v))
		if err := ev.Settle(hwtest.MaxIter); err != nil {
			t.Fatal(err)
		}
		if got := ev.Value(out).Uint64(); got != prev {
			t.Fatalf("bad output for input %d before tick: expected out = %d, got %d", v, prev, got)
		}
		for _, c := range []uint64{1, 0} {
			if err := ev.Drive(clk, bits.FromUint64(1, c), hwtest.MaxIter); err != nil {
				t.Fatal(err)
			}
			if got := ev.Value(out).Uint64(); got != v {
				t.Fatalf("bad output for input %d after clk=%d: expected out = %d, got %d", v, c, v, got)
			}
		}
		prev = v
	}
}

func TestRegister(t *testing.T) {
	src := hl.MustSource(hl.Register) + `
module Reg4(input clk, input [3:0] in, input load, output [3:0] out);
  Register #(.N(4)) r(.clk(clk), .in(in), .load(load), .out(out));
endmodule
`
	l, rec, tg := hwtest.Bind(t, src, "Reg4")
	vid := func(name string) target.VId {
		t.Helper()
		var v target.VId
		found := false
		l.MapEach(func(id ast.NodeID, vid target.VId) {
			if l.Tree().Name(id) == name {
				v, found = vid, true
			}
		})
		if !found {
			t.Fatalf("%s not bound", name)
		}
		return v
	}
	clk, in, load, out := vid("clk"), vid("in"), vid("load"), vid("out")

	tick := func() {
		l.Read(clk, bits.FromUint64(1, 1))
		l.Update()
		l.Read(clk, bits.FromUint64(1, 0))
		l.Update()
	}
	td := []struct {
		in   uint64
		load uint64
		out  uint64
	}{
		{5, 1, 5},
		{9, 0, 5},
		{9, 1, 9},
		{0, 0, 9},
		{15, 1, 15},
	}
	for _, d := range td {
		l.Read(in, bits.FromUint64(4, d.in))
		l.Read(load, bits.FromUint64(1, d.load))
		tick()
		if err := tg.Err(); err != nil {
			t.Fatal(err)
		}
		if got := rec.Outputs[out].Uint64(); got != d.out {
			t.Fatalf("in=%d load=%d: expected out = %d, got %d", d.in, d.load, d.out, got)
		}
	}
}

func TestCounter(t *testing.T) {
	src := hl.MustSource(hl.Counter) + `
module Blink(input clk);
  Counter #(.N(2), .Wraps(3)) c(.clk(clk));
endmodule
`
	l, rec, tg := hwtest.Bind(t, src, "Blink")
	if !l.OpenLoopEnabled() {
		t.Fatal("open loop not enabled")
	}
	clk, _ := l.VId(l.OpenLoopClock())
	n := l.OpenLoop(clk, true, 100)
	if err := tg.Err(); err != nil {
		t.Fatal(err)
	}
	// 4 ticks per wrap, finish on the third one
	if n != 12 {
		t.Fatalf("expected 12 iterations, got %d", n)
	}
	if !l.ThereWereTasks() || !rec.Finished || rec.Code != 1 {
		t.Fatalf("expected $finish(1), got %v", rec.Events)
	}
	if len(rec.Displays) != 1 || !strings.HasSuffix(rec.Displays[0], " 3") {
		t.Fatalf("unexpected displays %q", rec.Displays)
	}
}
