// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"testing"

	"github.com/pkg/errors"
)

func TestExitCode(t *testing.T) {
	data := []struct {
		name string
		err  error
		code int
		ok   bool
	}{
		{"bare", exitCode(3), 3, true},
		{"wrapped", errors.Wrap(exitCode(2), "run"), 2, true},
		{"other", errors.New("boom"), 0, false},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			c, ok := errors.Cause(d.err).(exitCode)
			if ok != d.ok || int(c) != d.code {
				t.Fatalf("got (%d, %v), expected (%d, %v)", c, ok, d.code, d.ok)
			}
		})
	}
	if got := exitCode(3).Error(); got != "exit status 3" {
		t.Fatalf("Error: got %q", got)
	}
}
