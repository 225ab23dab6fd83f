// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable Verilog modules.
//
// Modules are plain Verilog source. Source returns the text of a set of
// modules together with the modules they instantiate, ready to be parsed:
//
//	src, err := hwlib.Source("AdderN", "Counter")
//	tree, err := hdl.Parse("lib.v", src+mySrc)
//
package hwlib

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type module struct {
	src  string
	deps []string
}

var modules = make(map[string]module)

func register(name string, src string, deps ...string) {
	if _, ok := modules[name]; ok {
		panic("hwlib: module " + name + " registered twice")
	}
	modules[name] = module{strings.TrimSpace(src) + "\n", deps}
}

// Names returns the names of all library modules, sorted.
//
func Names() []string {
	ns := make([]string, 0, len(modules))
	for n := range modules {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// Source returns the source of the named modules and of their dependencies.
// Dependencies come first and each module appears once.
//
func Source(names ...string) (string, error) {
	var sb strings.Builder
	done := make(map[string]bool)
	var add func(n string) error
	add = func(n string) error {
		if done[n] {
			return nil
		}
		m, ok := modules[n]
		if !ok {
			return errors.Errorf("hwlib: unknown module %s", n)
		}
		done[n] = true
		for _, d := range m.deps {
			if err := add(d); err != nil {
				return err
			}
		}
		sb.WriteString(m.src)
		return nil
	}
	for _, n := range names {
		if err := add(n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// MustSource is like Source but panics on error.
//
func MustSource(names ...string) string {
	s, err := Source(names...)
	if err != nil {
		panic(err)
	}
	return s
}
