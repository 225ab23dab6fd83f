// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"os"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/internal/hdl"
	"github.com/db47h/hwbind/isolate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var elabCmd = &cobra.Command{
	Use:   "elab FILE",
	Short: "Print the flattened modules of a Verilog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := elaborate(cmd, args[0])
		if err != nil {
			return err
		}
		for _, r := range rs {
			header("// %s: vids %d..%d", r.Tree.ModuleName(r.Module), first(r), r.Next)
			if err := ast.Fprint(os.Stdout, r.Tree, r.Module); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{elabCmd, layoutCmd, runCmd} {
		c.Flags().String("top", "", "module to isolate (overrides elab.top)")
		c.Flags().String("root", "", "root program module (overrides elab.root)")
	}
}

// first returns the lowest VId used by r.
func first(r *isolate.Result) uint32 {
	lo := uint32(r.Next)
	for _, v := range r.VIds {
		if uint32(v) < lo {
			lo = uint32(v)
		}
	}
	return lo
}

// elaborate parses file and isolates either the root program's instances or
// the top module, as selected by the flags and configuration.
func elaborate(cmd *cobra.Command, file string) ([]*isolate.Result, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}
	t, err := hdl.Parse(file, string(src))
	if err != nil {
		return nil, err
	}
	top, root := cfg.Elab.Top, cfg.Elab.Root
	if s, _ := cmd.Flags().GetString("top"); s != "" {
		top, root = s, ""
	}
	if s, _ := cmd.Flags().GetString("root"); s != "" {
		root = s
	}
	if root != "" {
		md := t.Module(root)
		if md == ast.NoNode {
			return nil, errors.Errorf("root module %s not found", root)
		}
		return isolate.Program(context.Background(), t, md)
	}
	md := t.Module(top)
	if md == ast.NoNode {
		return nil, errors.Errorf("module %s not found", top)
	}
	r, err := isolate.Module(t, md)
	if err != nil {
		return nil, err
	}
	return []*isolate.Result{r}, nil
}
