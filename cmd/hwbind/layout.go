// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/db47h/hwbind"
	"github.com/db47h/hwbind/mmio"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout FILE",
	Short: "Print the variable table and control slots of each module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := elaborate(cmd, args[0])
		if err != nil {
			return err
		}
		// nothing is read or written while binding
		ls, end, err := hwbind.LoadAll(newConsole(false), rs, mmio.NewMem(cfg.Device.Base, 0), cfg.Device.Base)
		if err != nil {
			return err
		}
		for _, l := range ls {
			printLayout(l)
		}
		fmt.Printf("%d bytes used of %d\n", end-cfg.Device.Base, cfg.Device.Span)
		return nil
	},
}

func printLayout(l *hwbind.Logic) {
	t := l.Tree()
	header("%s", t.ModuleName(l.Module()))
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SLOTS\tNAME\tVID\tBITS\tELEMENTS\tMATERIALIZED")
	l.TableEach(func(vi *hwbind.VarInfo) {
		vid := "task"
		if v, ok := l.VId(vi.ID()); ok {
			vid = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "%d-%d\t%s\t%s\t%d\t%d\t%v\n",
			vi.Index(), vi.Index()+vi.EntrySize()-1, t.Name(vi.ID()), vid, vi.BitSize(), vi.Elements(), vi.Materialized())
	})
	for _, c := range []struct {
		name string
		idx  int
	}{
		{"live", l.LiveIdx()},
		{"there_are_updates", l.ThereAreUpdatesIdx()},
		{"update", l.UpdateIdx()},
		{"sys_task", l.SysTaskIdx()},
		{"open_loop", l.OpenLoopIdx()},
	} {
		fmt.Fprintf(w, "%d\t%s\t-\t32\t1\ttrue\n", c.idx, c.name)
	}
	w.Flush()
	fmt.Printf("%d tasks, open loop: %v\n\n", len(l.Tasks()), l.OpenLoopEnabled())
}
