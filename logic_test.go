// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwbind_test

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/db47h/hwbind"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/hwtest"
	"github.com/db47h/hwbind/isolate"
	"github.com/db47h/hwbind/mmio"
	"github.com/db47h/hwbind/target"
)

const base = 0x1000

// load binds module top of src to a bare memory, with no firmware behind it.
func load(t *testing.T, src, top string) (*hwbind.Logic, *hwtest.Recorder, *mmio.Mem) {
	t.Helper()
	m := mmio.NewMem(base, 256)
	rec := hwtest.NewRecorder()
	l, err := hwbind.Load(rec, hwtest.Isolate(t, src, top), m, base)
	if err != nil {
		t.Fatal(err)
	}
	return l, rec, m
}

// srcName strips the prefix of a mangled local.
func srcName(name string) string {
	if strings.HasPrefix(name, "__l") {
		return name[strings.LastIndexByte(name, '_')+1:]
	}
	return name
}

// entries returns the table entries of variable name in allocation order.
func entries(l *hwbind.Logic, name string) []*hwbind.VarInfo {
	var vis []*hwbind.VarInfo
	l.TableEach(func(vi *hwbind.VarInfo) {
		if srcName(l.Tree().Name(vi.ID())) == name {
			vis = append(vis, vi)
		}
	})
	return vis
}

func vidOf(t *testing.T, l *hwbind.Logic, name string) target.VId {
	t.Helper()
	var (
		vid target.VId
		ok  bool
	)
	l.MapEach(func(id ast.NodeID, v target.VId) {
		if srcName(l.Tree().Name(id)) == name {
			vid, ok = v, true
		}
	})
	if !ok {
		t.Fatalf("%s not bound", name)
	}
	return vid
}

func mustPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	f()
}

func TestCounterState(t *testing.T) {
	l, _, _ := hwtest.Bind(t, `
module M;
  reg [7:0] counter;
endmodule`, "M")

	n := 0
	l.TableEach(func(vi *hwbind.VarInfo) {
		n++
		if vi.Elements() != 1 || vi.ElementSize() != 1 || vi.EntrySize() != 1 {
			t.Fatalf("elements = %d, element size = %d, entry size = %d", vi.Elements(), vi.ElementSize(), vi.EntrySize())
		}
		if !vi.Materialized() || vi.BitSize() != 8 {
			t.Fatalf("materialized = %v, bit size = %d", vi.Materialized(), vi.BitSize())
		}
	})
	if n != 1 {
		t.Fatalf("expected 1 table entry, got %d", n)
	}
	s := l.GetState()
	if len(s) != 1 {
		t.Fatalf("expected 1 state entry, got %d", len(s))
	}
	vid := vidOf(t, l, "counter")
	l.SetState(target.State{vid: {bits.FromUint64(8, 42)}})
	s = l.GetState()
	if got := s[vid][0].Uint64(); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestControlSlots(t *testing.T) {
	l, _, m := load(t, `
module M(input clk);
  reg [7:0] counter;
endmodule`, "M")
	if l.TableSize() != 2 {
		t.Fatalf("table size: expected 2, got %d", l.TableSize())
	}
	idx := []int{l.LiveIdx(), l.ThereAreUpdatesIdx(), l.UpdateIdx(), l.SysTaskIdx(), l.OpenLoopIdx()}
	for i, x := range idx {
		if x != 2+i {
			t.Fatalf("control slots: got %v", idx)
		}
	}
	m.SetWord(l.SysTaskIdx(), 0xff)
	l.Resync()
	if m.Word(l.LiveIdx()) != 1 || m.Word(l.SysTaskIdx()) != 0 {
		t.Fatalf("live = %d, sys_task = %d", m.Word(l.LiveIdx()), m.Word(l.SysTaskIdx()))
	}
	m.SetWord(l.ThereAreUpdatesIdx(), 1)
	if !l.ThereAreUpdates() {
		t.Fatal("ThereAreUpdates = false")
	}
	l.Update()
	if m.Word(l.UpdateIdx()) != 1 {
		t.Fatal("update not triggered")
	}
}

const tasks = `
module T(input clk);
  reg [7:0] a;
  always @(posedge clk) begin
    $display("t0");
    $write("t1");
    $display("t2 %d", a);
    $finish;
    $write("t4");
    $display("t5");
    $finish(3);
  end
endmodule`

func TestTaskMask(t *testing.T) {
	l, rec, m := load(t, tasks, "T")
	if n := len(l.Tasks()); n != 7 {
		t.Fatalf("expected 7 tasks, got %d", n)
	}
	// the slot of the $display argument, not the one of the state variable
	vis := entries(l, "a")
	if len(vis) != 2 {
		t.Fatalf("expected 2 slots for a, got %d", len(vis))
	}
	m.SetWord(vis[0].Index(), 7)

	m.SetWord(l.SysTaskIdx(), 1<<2|1<<5)
	l.Evaluate()
	want := []string{"display: t2 7", "display: t5"}
	if strings.Join(rec.Events, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, rec.Events)
	}
	if !l.ThereWereTasks() {
		t.Fatal("ThereWereTasks = false")
	}
	if m.Word(l.SysTaskIdx()) != 0 {
		t.Fatal("task mask not cleared")
	}

	rec.Reset()
	l.Evaluate()
	if l.ThereWereTasks() || len(rec.Events) != 0 {
		t.Fatalf("spurious tasks %q", rec.Events)
	}

	m.SetWord(l.SysTaskIdx(), 1<<3|1<<6)
	l.Update()
	want = []string{"finish: 0", "finish: 3"}
	if strings.Join(rec.Events, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, rec.Events)
	}

	m.SetWord(l.SysTaskIdx(), 1<<7)
	mustPanic(t, l.Evaluate)
}

func TestOpenLoopEnabled(t *testing.T) {
	td := []struct {
		name string
		src  string
		ok   bool
	}{
		{"clock", "module M(input clk); reg [3:0] r; endmodule", true},
		{"wide", "module M(input [1:0] clk); endmodule", false},
		{"output", "module M(input clk, output o); assign o = clk; endmodule", false},
		{"inputs", "module M(input a, b); endmodule", false},
		{"none", "module M; reg r; endmodule", false},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			l, _, m := load(t, d.src, "M")
			if l.OpenLoopEnabled() != d.ok {
				t.Fatalf("expected %v, got %v", d.ok, l.OpenLoopEnabled())
			}
			clk := l.OpenLoopClock()
			if d.ok != (clk != ast.NoNode) {
				t.Fatalf("clock: %v", clk)
			}
			if !d.ok {
				return
			}
			m.OnWrite = func(idx int, v uint32) {
				if idx == l.OpenLoopIdx() {
					m.SetWord(idx, v/2)
				}
			}
			vid, _ := l.VId(clk)
			if n := l.OpenLoop(vid, true, 10); n != 5 {
				t.Fatalf("expected 5 iterations, got %d", n)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	l, _, _ := load(t, `
module W(input clk, input [39:0] wide, output [7:0] o);
  reg [7:0] mem [0:3];
  reg [69:0] big;
  integer k;
  assign o = mem[0];
  always @(posedge clk) begin
    big <= {big, wide};
    $display("%d %d", mem[1], big);
  end
endmodule`, "W")

	type rng struct {
		name       string
		start, end int
	}
	var rs []rng
	l.TableEach(func(vi *hwbind.VarInfo) {
		rs = append(rs, rng{srcName(l.Tree().Name(vi.ID())), vi.Index(), vi.Index() + vi.EntrySize()})
	})
	if !sort.SliceIsSorted(rs, func(i, j int) bool { return rs[i].start < rs[j].start }) {
		t.Fatalf("slots not allocated in order: %v", rs)
	}
	next := 0
	for _, r := range rs {
		if r.start != next {
			t.Fatalf("%s starts at %d, expected %d", r.name, r.start, next)
		}
		next = r.end
	}
	// task arguments, inputs, outputs, then state
	want := []rng{
		{"mem", 0, 4}, {"big", 4, 7},
		{"clk", 7, 8}, {"wide", 8, 10},
		{"o", 10, 11},
		{"mem", 11, 15}, {"big", 15, 18}, {"k", 18, 19},
	}
	if len(rs) != len(want) {
		t.Fatalf("expected %v, got %v", want, rs)
	}
	for i := range want {
		if rs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, rs)
		}
	}
	if l.TableSize() != 19 || l.Span() != 24 {
		t.Fatalf("table size = %d, span = %d", l.TableSize(), l.Span())
	}
	o := entries(l, "o")[0]
	if o.Materialized() {
		t.Fatal("combinational output is materialized")
	}
	mem := entries(l, "mem")[1]
	if a := mem.Arity(); len(a) != 1 || a[0] != 4 {
		t.Fatalf("mem arity: %v", a)
	}
	if big := entries(l, "big")[0]; big.BitSize() != 70 || big.ElementSize() != 3 {
		t.Fatalf("big: bit size %d, element size %d", big.BitSize(), big.ElementSize())
	}
}

func TestArrays(t *testing.T) {
	l, _, m := load(t, `
module A;
  reg [39:0] mem [0:2];
  reg [7:0] r;
endmodule`, "A")
	vid, rv := vidOf(t, l, "mem"), vidOf(t, l, "r")
	vi := entries(l, "mem")[0]
	if vi.ElementSize() != 2 || vi.EntrySize() != 6 {
		t.Fatalf("element size = %d, entry size = %d", vi.ElementSize(), vi.EntrySize())
	}
	vals := []*bits.Bits{
		bits.FromUint64(40, 0x11_0000_0001),
		bits.FromUint64(40, 0x22_0000_0002),
		bits.FromUint64(40, 0x33_0000_0003),
	}
	l.SetState(target.State{vid: vals})
	for i := range vals {
		for j := 0; j < 2; j++ {
			got := m.Word(vi.Index() + i*vi.ElementSize() + j)
			if want := vals[i].Word(j); got != want {
				t.Fatalf("element %d word %d: expected %#x, got %#x", i, j, want, got)
			}
		}
	}
	// r is left untouched by a partial state
	if m.Word(entries(l, "r")[0].Index()) != 0 {
		t.Fatal("r overwritten")
	}
	s := l.GetState()
	for i := range vals {
		if !s[vid][i].Equal(vals[i]) {
			t.Fatalf("element %d: expected %v, got %v", i, vals[i], s[vid][i])
		}
	}
	if s[rv][0].Uint64() != 0 {
		t.Fatalf("r = %v", s[rv][0])
	}
}

func TestStateRoundTrip(t *testing.T) {
	l, _, tg := hwtest.Bind(t, `
module S(input clk);
  reg [69:0] big;
  reg [3:0] mem [0:7];
  reg [2:0] p;
  integer n;
  always @(posedge clk) begin
    n <= n + 1;
    p <= p + 1;
    mem[p] <= n;
    big <= {big, n};
  end
endmodule`, "S")
	l.SetState(target.State{
		vidOf(t, l, "big"): {bits.FromUint64(70, 0xdead_beef_0bad_f00d)},
		vidOf(t, l, "n"):   {bits.FromUint64(32, 12)},
	})
	vid, _ := l.VId(l.OpenLoopClock())
	if n := l.OpenLoop(vid, true, 5); n != 5 {
		t.Fatalf("expected 5 ticks, got %d", n)
	}
	before := make([]uint32, tg.Mem.Len())
	for i := range before {
		before[i] = tg.Mem.Word(i)
	}
	s := l.GetState()
	l.SetState(s)
	for i := range before {
		if got := tg.Mem.Word(i); got != before[i] {
			t.Fatalf("word %d changed from %#x to %#x", i, before[i], got)
		}
	}
	s2 := l.GetState()
	for vid, vs := range s {
		for i := range vs {
			if !vs[i].Equal(s2[vid][i]) {
				t.Fatalf("vid %d element %d: %v != %v", vid, i, vs[i], s2[vid][i])
			}
		}
	}
	if err := tg.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestInputs(t *testing.T) {
	l, _, m := load(t, `
module I(input [7:0] a, input [47:0] b, output reg [7:0] o);
endmodule`, "I")
	a, b := vidOf(t, l, "a"), vidOf(t, l, "b")
	l.Read(a, bits.FromUint64(8, 0x5a))
	l.Read(b, bits.FromUint64(48, 0x1234_89ab_cdef))
	ai, bi := entries(l, "a")[0].Index(), entries(l, "b")[0].Index()
	if m.Word(ai) != 0x5a || m.Word(bi) != 0x89ab_cdef || m.Word(bi+1) != 0x1234 {
		t.Fatalf("words %#x %#x %#x", m.Word(ai), m.Word(bi), m.Word(bi+1))
	}
	in := l.GetInput()
	if len(in) != 2 || in[a].Uint64() != 0x5a || in[b].Uint64() != 0x1234_89ab_cdef {
		t.Fatalf("inputs: %v", in)
	}
	l.SetInput(target.Input{a: bits.FromUint64(8, 1)})
	if m.Word(ai) != 1 || m.Word(bi) != 0x89ab_cdef {
		t.Fatal("SetInput")
	}
	// output reg is materialized
	if o := entries(l, "o")[0]; !o.Materialized() {
		t.Fatal("stateful output not materialized")
	}
	mustPanic(t, func() { l.Read(99, bits.New(1)) })
}

func TestRebind(t *testing.T) {
	l, _, _ := load(t, "module M(input a); endmodule", "M")
	id := l.Evaluator().Resolution().Lookup("a")
	vid, _ := l.VId(id)
	l.BindInput(id, vid)
	mustPanic(t, func() { l.BindInput(id, vid+1) })
}

const program = `
module Child(input i, output reg o);
  reg s;
  always @(posedge i) begin
    s <= ~s;
    o <= s;
  end
endmodule
module Parent(input a, b, output x, y);
  Child c0(.i(a), .o(x));
  Child c1(.i(b), .o(y));
endmodule
module Main;
  wire a, b, x, y;
  Child c0(.i(a), .o(x));
  Child c1(.i(b), .o(y));
endmodule`

func TestTwoInstances(t *testing.T) {
	l, _, _ := hwtest.Bind(t, program, "Parent")
	var state []string
	vids := make(map[target.VId]bool)
	l.MapEach(func(id ast.NodeID, vid target.VId) {
		if vids[vid] {
			t.Fatalf("vid %d bound twice", vid)
		}
		vids[vid] = true
		if srcName(l.Tree().Name(id)) == "s" {
			state = append(state, l.Tree().Name(id))
		}
	})
	if len(state) != 2 || state[0] == state[1] {
		t.Fatalf("s of both instances: %v", state)
	}
	if !strings.Contains(state[0], "_Child0_") || !strings.Contains(state[1], "_Child1_") {
		t.Fatalf("s of both instances: %v", state)
	}
	s := l.GetState()
	if _, ok := s[vidOf(t, l, "x")]; ok {
		t.Fatal("wire output in state")
	}
}

func TestLoadAll(t *testing.T) {
	tree := hwtest.Parse(t, program)
	rs, err := isolate.Program(context.Background(), tree, tree.Module("Main"))
	if err != nil {
		t.Fatal(err)
	}
	m := mmio.NewMem(0, 64)
	rec := hwtest.NewRecorder()
	ls, end, err := hwbind.LoadAll(rec, rs, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(ls) != 2 {
		t.Fatalf("expected 2 logics, got %d", len(ls))
	}
	if want := uint64(hwbind.WordSize * (ls[0].Span() + ls[1].Span())); end != want {
		t.Fatalf("end: expected %#x, got %#x", want, end)
	}
	ins := make(map[target.VId]bool)
	for _, l := range ls {
		l.MapEach(func(id ast.NodeID, vid target.VId) {
			if l.Tree().Name(id) == "i" {
				t.Fatal("formal i bound")
			}
		})
		for vid := range l.GetInput() {
			if ins[vid] {
				t.Fatalf("input vid %d used twice", vid)
			}
			ins[vid] = true
		}
	}
	if len(ins) != 2 {
		t.Fatalf("expected 2 distinct inputs, got %v", ins)
	}
	// regions do not overlap
	ls[1].Resync()
	if m.Word(ls[0].LiveIdx()) != 0 {
		t.Fatal("regions overlap")
	}
}

func TestLoadExpressionActual(t *testing.T) {
	const src = `
module Acc (input wire clk, input wire [7:0] in);
  reg [7:0] sum;
  always @(posedge clk) sum <= sum + in;
endmodule
module main;
  wire clk;
  wire [7:0] v;
  Acc a0 (clk, v);
  Acc a1 (.clk(clk), .in(v + 1));
endmodule`
	tree := hwtest.Parse(t, src)
	rs, err := isolate.Program(context.Background(), tree, tree.Module("main"))
	if err != nil {
		t.Fatal(err)
	}
	m := mmio.NewMem(0, 64)
	l, err := hwbind.Load(hwtest.NewRecorder(), rs[1], m, 0)
	if err != nil {
		t.Fatal(err)
	}
	in := l.GetInput()
	for _, vid := range []target.VId{0, 1} {
		if _, ok := in[vid]; !ok {
			t.Errorf("global %d is not an input of a1: %v", vid, in)
		}
	}
}
