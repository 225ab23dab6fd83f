// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/db47h/hwbind/bits"
	"github.com/db47h/hwbind/target"
	"github.com/fatih/color"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
)

func header(format string, args ...interface{}) {
	bold.Printf(format+"\n", args...)
}

// console prints task output to w and remembers $finish requests.
type console struct {
	w        io.Writer
	verbose  bool
	finished bool
	code     int
}

func newConsole(verbose bool) *console {
	return &console{w: os.Stdout, verbose: verbose}
}

func (c *console) Output(vid target.VId, v *bits.Bits) {
	if c.verbose {
		faint.Fprintf(c.w, "vid %d = %s\n", vid, v.Text(16))
	}
}

func (c *console) Display(s string) { fmt.Fprintln(c.w, s) }

func (c *console) Write(s string) { fmt.Fprint(c.w, s) }

func (c *console) Finish(code int) {
	c.finished = true
	c.code = code
}
