// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"os"

	"github.com/db47h/hwbind"
	"github.com/db47h/hwbind/mmio"
	"github.com/db47h/hwbind/target"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Bind the modules of a Verilog file to the target and run them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cycles, _ := cmd.Flags().GetInt("cycles")
		checkpoint, _ := cmd.Flags().GetString("checkpoint")
		restore, _ := cmd.Flags().GetString("restore")
		verbose, _ := cmd.Flags().GetBool("verbose")

		rs, err := elaborate(cmd, args[0])
		if err != nil {
			return err
		}
		dev, err := mmio.OpenDevice(cfg.Device.Path, cfg.Device.Base, cfg.Device.Span)
		if err != nil {
			return err
		}
		defer dev.Close()
		var ch mmio.Channel = dev
		if log.IsLevelEnabled(log.TraceLevel) {
			ch = mmio.Logged(dev, log.WithField("device", cfg.Device.Path))
		}

		con := newConsole(verbose)
		ls, end, err := hwbind.LoadAll(con, rs, ch, cfg.Device.Base)
		if err != nil {
			return err
		}
		if used := end - cfg.Device.Base; used > uint64(cfg.Device.Span) {
			return errors.Errorf("modules need %d bytes, device span is %d", used, cfg.Device.Span)
		}
		for _, l := range ls {
			l.Resync()
		}
		if restore != "" {
			s, err := readState(restore)
			if err != nil {
				return err
			}
			for _, l := range ls {
				l.SetState(s)
			}
		}

		n := run(ls, con, cycles)
		log.WithField("cycles", n).Info("run complete")

		if checkpoint != "" {
			if err = writeState(checkpoint, ls); err != nil {
				return err
			}
		}
		if con.finished {
			color.Yellow("$finish(%d) after %d cycles", con.code, n)
			if con.code != 0 {
				return exitCode(con.code)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Int("cycles", 1000, "maximum number of cycles")
	runCmd.Flags().String("checkpoint", "", "save the final state to this file")
	runCmd.Flags().String("restore", "", "load the initial state from this file")
}

// run drives all modules for up to cycles cycles or until a $finish. A single
// open loop module runs unattended.
func run(ls []*hwbind.Logic, con *console, cycles int) int {
	if len(ls) == 1 && ls[0].OpenLoopEnabled() {
		l := ls[0]
		clk, _ := l.VId(l.OpenLoopClock())
		return l.OpenLoop(clk, true, cycles)
	}
	n := 0
	for ; n < cycles && !con.finished; n++ {
		for _, l := range ls {
			if l.ThereAreUpdates() {
				l.Update()
			} else {
				l.Evaluate()
			}
		}
	}
	return n
}

func readState(path string) (target.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "restore")
	}
	defer f.Close()
	return target.LoadState(f)
}

func writeState(path string, ls []*hwbind.Logic) error {
	s := make(target.State)
	for _, l := range ls {
		for vid, v := range l.GetState() {
			s[vid] = v
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "checkpoint")
	}
	if err = s.Save(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "checkpoint")
}
