// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"testing"

	"github.com/db47h/hwbind"
	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/internal/hdl"
	"github.com/db47h/hwbind/isolate"
	"github.com/db47h/hwbind/mmio"
)

// MemWords is the size in words of the memory used by Bind.
//
const MemWords = 1 << 12

// Parse parses src or fails the test.
//
func Parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := hdl.Parse(t.Name()+".v", src)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

// Isolate parses src and isolates module top on its own.
//
func Isolate(t *testing.T, src, top string) *isolate.Result {
	t.Helper()
	tree := Parse(t, src)
	md := tree.Module(top)
	if md == ast.NoNode {
		t.Fatalf("module %s not found", top)
	}
	res, err := isolate.Module(tree, md)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// Bind isolates module top of src, loads it at address 0 of a fresh memory
// and attaches a fake firmware to that memory. The Logic is resynced.
//
func Bind(t *testing.T, src, top string) (*hwbind.Logic, *Recorder, *Target) {
	t.Helper()
	return BindResult(t, Isolate(t, src, top))
}

// BindResult is like Bind for an already isolated module.
//
func BindResult(t *testing.T, res *isolate.Result) (*hwbind.Logic, *Recorder, *Target) {
	t.Helper()
	m := mmio.NewMem(0, MemWords)
	rec := NewRecorder()
	l, err := hwbind.Load(rec, res, m, 0)
	if err != nil {
		t.Fatal(err)
	}
	tg, err := NewTarget(l, m)
	if err != nil {
		t.Fatal(err)
	}
	l.Resync()
	return l, rec, tg
}
