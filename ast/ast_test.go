// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ast_test

import (
	"strings"
	"testing"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/internal/hdl"
)

const flat = `
module M(input clk, input [7:0] a, output reg [7:0] q, output w);
  reg [3:0] mem [0:1];
  integer n;
  wire t;
  assign t = a[0] & clk;
  assign w = t | q[7];
  always @(posedge clk) begin
    mem[n] <= a;
    q <= mem[0] + a;
    $display("%d", mem[n]);
  end
endmodule
`

func parse(t *testing.T, src string) (*ast.Tree, ast.NodeID) {
	t.Helper()
	tree, err := hdl.Parse(t.Name()+".v", src)
	if err != nil {
		t.Fatal(err)
	}
	return tree, tree.Modules[0]
}

func names(t *ast.Tree, ids []ast.NodeID) string {
	ns := make([]string, len(ids))
	for i, id := range ids {
		ns[i] = t.Name(id)
	}
	return strings.Join(ns, ",")
}

func TestResolve(t *testing.T) {
	tree, md := parse(t, flat)
	r, err := ast.Resolve(tree, md)
	if err != nil {
		t.Fatal(err)
	}
	uses := 0
	check := func(id ast.NodeID) bool {
		if tree.Kind(id) != ast.Identifier {
			return true
		}
		d := r.Decl(id)
		if d == ast.NoNode {
			t.Fatalf("%s unresolved", tree.Name(id))
		}
		if tree.Name(d) != tree.Name(id) {
			t.Fatalf("%s resolved to %s", tree.Name(id), tree.Name(d))
		}
		if id != d {
			uses++
		}
		return true
	}
	// the module name is not a variable
	for _, it := range tree.Node(md).Items {
		tree.Inspect(it, check)
	}
	if uses == 0 {
		t.Fatal("no identifier uses found")
	}
	q := r.Lookup("q")
	if tree.Kind(r.Declaration(q)) != ast.RegDeclaration || r.Port(q) == ast.NoNode {
		t.Fatal("q: expected a reg port")
	}
	if tk := r.Lookup("t"); tree.Kind(r.Declaration(tk)) != ast.NetDeclaration || r.Port(tk) != ast.NoNode {
		t.Fatal("t: expected a local net")
	}
	if r.Lookup("nope") != ast.NoNode {
		t.Fatal("Lookup of an undeclared name")
	}
}

func TestResolveErrors(t *testing.T) {
	tree, md := parse(t, "module M(input a); assign b = a; endmodule")
	if _, err := ast.Resolve(tree, md); err == nil || !strings.Contains(err.Error(), `"b"`) {
		t.Fatalf("expected an unresolved identifier error, got %v", err)
	}
}

func TestModuleInfo(t *testing.T) {
	tree, md := parse(t, flat)
	r, err := ast.Resolve(tree, md)
	if err != nil {
		t.Fatal(err)
	}
	mi := ast.NewModuleInfo(tree, md, r)
	td := []struct {
		what string
		got  []ast.NodeID
		want string
	}{
		{"inputs", mi.Inputs(), "clk,a"},
		{"outputs", mi.Outputs(), "q,w"},
		{"stateful", mi.Stateful(), "q,mem,n"},
	}
	for _, d := range td {
		if got := names(tree, d.got); got != d.want {
			t.Errorf("%s: expected %s, got %s", d.what, d.want, got)
		}
	}
	var use ast.NodeID
	tree.Inspect(md, func(id ast.NodeID) bool {
		if tree.Kind(id) == ast.DisplayStatement {
			use = tree.Identifiers(id)[0]
			return false
		}
		return true
	})
	if tree.Name(use) != "mem" || !mi.IsStateful(use) {
		t.Fatalf("display argument %s: expected a stateful use of mem", tree.Name(use))
	}
	if mi.IsStateful(r.Lookup("t")) {
		t.Fatal("t is not stateful")
	}
}

func TestIdentifiers(t *testing.T) {
	tree, md := parse(t, flat)
	var got []string
	tree.Inspect(md, func(id ast.NodeID) bool {
		if tree.Kind(id) == ast.NonblockingAssign {
			got = append(got, names(tree, tree.Identifiers(id)))
		}
		return true
	})
	want := []string{"mem,n,a", "q,mem,a"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSprint(t *testing.T) {
	tree, md := parse(t, flat)
	s := ast.Sprint(tree, md)
	for _, frag := range []string{"module M(", "always @(posedge clk)", "q <= mem[0] + a;", "endmodule"} {
		if !strings.Contains(s, frag) {
			t.Errorf("missing %q in\n%s", frag, s)
		}
	}
}
