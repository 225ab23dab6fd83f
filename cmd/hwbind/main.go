// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command hwbind elaborates Verilog modules and runs them on a memory mapped
// target.
//
package main

import (
	"fmt"
	"os"

	"github.com/db47h/hwbind/config"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "hwbind",
	Short:         "Bind Verilog modules to a memory mapped target",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		path, _ := cmd.Flags().GetString("config")
		if cfg, err = config.Load(path); err != nil {
			return err
		}
		lvl, _ := cfg.Level()
		if v, _ := cmd.Flags().GetBool("verbose"); v && lvl < log.DebugLevel {
			lvl = log.DebugLevel
		}
		log.SetLevel(lvl)

		c, _ := cmd.Flags().GetString("color")
		switch c {
		case "auto":
			color.NoColor = !isTerminal(os.Stdout)
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		default:
			return errors.Errorf("invalid --color value %q", c)
		}
		log.SetFormatter(&log.TextFormatter{DisableColors: color.NoColor})
		return nil
	},
}

// exitCode is returned by commands that terminate with a non zero status
// without an error to report.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func main() {
	rootCmd.AddCommand(elabCmd, layoutCmd, runCmd, stateCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		if c, ok := errors.Cause(err).(exitCode); ok {
			os.Exit(int(c))
		}
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
