// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing modules and the
// bindings of modules to a target.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/eval"
	"github.com/db47h/hwbind/isolate"
)

// a settled module under test.
type dut struct {
	res  *isolate.Result
	ev   *eval.Evaluator
	info *ast.ModuleInfo
}

func newDUT(t *testing.T, tree *ast.Tree, name string) *dut {
	t.Helper()
	md := tree.Module(name)
	if md == ast.NoNode {
		t.Fatalf("module %s not found", name)
	}
	res, err := isolate.Module(tree, md)
	if err != nil {
		t.Fatal(err)
	}
	r, err := ast.Resolve(res.Tree, res.Module)
	if err != nil {
		t.Fatal(err)
	}
	d := &dut{res, eval.New(res.Tree, res.Module, r), ast.NewModuleInfo(res.Tree, res.Module, r)}
	if err := d.ev.Init(MaxIter); err != nil {
		t.Fatal(err)
	}
	return d
}

func (d *dut) names(ids []ast.NodeID) []string {
	ns := make([]string, len(ids))
	for i, id := range ids {
		ns[i] = d.res.Tree.Name(id)
	}
	return ns
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CompareModules flattens modules ref and other of src and compares their
// outputs given the same inputs. Both modules must have the same inputs and
// outputs, in the same order.
//
// All input combinations are tried if the inputs have at most 12 bits in
// total. Otherwise, all zeros, all ones and 4096 random combinations are.
//
func CompareModules(t *testing.T, src, ref, other string) {
	t.Helper()
	tree := Parse(t, src)
	d1, d2 := newDUT(t, tree, ref), newDUT(t, tree, other)

	in1, in2 := d1.info.Inputs(), d2.info.Inputs()
	if !sameNames(d1.names(in1), d2.names(in2)) {
		t.Fatalf("inputs %v != %v", d1.names(in1), d2.names(in2))
	}
	out1, out2 := d1.info.Outputs(), d2.info.Outputs()
	if !sameNames(d1.names(out1), d2.names(out2)) {
		t.Fatalf("outputs %v != %v", d1.names(out1), d2.names(out2))
	}

	widths := make([]int, len(in1))
	total := 0
	for i, id := range in1 {
		widths[i] = d1.ev.DeclaredWidth(id)
		total += widths[i]
	}

	inputs := make([]*bits.Bits, len(in1))
	errString := func(o int, ex, got *bits.Bits) string {
		var b strings.Builder
		for i, id := range in1 {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", d1.res.Tree.Name(id), inputs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), d1.res.Tree.Name(out1[o]), ex, got)
	}
	check := func() {
		t.Helper()
		for i := range in1 {
			d1.ev.SetValue(in1[i], inputs[i])
			d2.ev.SetValue(in2[i], inputs[i])
		}
		if err := d1.ev.Settle(MaxIter); err != nil {
			t.Fatal(err)
		}
		if err := d2.ev.Settle(MaxIter); err != nil {
			t.Fatal(err)
		}
		for o := range out1 {
			ex, got := d1.ev.Value(out1[o]), d2.ev.Value(out2[o])
			if !ex.Equal(got) {
				t.Fatal(errString(o, ex, got))
			}
		}
	}
	// spread the bits of n over the inputs
	set := func(n func(bit int) bool) {
		k := 0
		for i, w := range widths {
			v := bits.New(w)
			for j := 0; j < w; j++ {
				v.SetBit(j, n(k))
				k++
			}
			inputs[i] = v
		}
	}

	start := time.Now()
	iter := 0
	if total <= 12 {
		for n := 0; n < 1<<uint(total); n++ {
			set(func(bit int) bool { return n&(1<<uint(bit)) != 0 })
			check()
			iter++
		}
	} else {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		set(func(int) bool { return false })
		check()
		set(func(int) bool { return true })
		check()
		for i := 0; i < 1<<12; i++ {
			set(func(int) bool { return rnd.Int63()&(1<<62) != 0 })
			check()
		}
		iter = 1<<12 + 2
	}
	t.Logf("%s vs %s: %d input combinations in %v", ref, other, iter, time.Since(start))
}
