// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state FILE",
	Short: "Dump a state checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := readState(args[0])
		if err != nil {
			return err
		}
		header("%d variables", len(s))
		for _, vid := range s.VIds() {
			vs := make([]string, len(s[vid]))
			for i, v := range s[vid] {
				vs[i] = fmt.Sprintf("%d'h%s", v.Width(), v.Text(16))
			}
			fmt.Printf("%6d  %s\n", vid, strings.Join(vs, " "))
		}
		return nil
	},
}
