// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the TOML configuration of the hwbind command.
//
// A configuration file looks like:
//
//	[device]
//	path = "/dev/mem"
//	base = 0xC0000000
//	span = 0x10000
//
//	[elab]
//	top = "Main"
//	root = ""
//
//	[log]
//	level = "info"
//
// Missing keys keep their default value.
//
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is the file loaded when no path is given.
//
const DefaultPath = "hwbind.toml"

// Device describes the memory mapped region shared with the target.
//
type Device struct {
	Path string `toml:"path"`
	Base uint64 `toml:"base"`
	Span int    `toml:"span"`
}

// Elab selects the module(s) to elaborate.
//
type Elab struct {
	// Top is the module isolated on its own when Root is empty.
	Top string `toml:"top"`
	// Root, if set, names a module whose declarations are globals and whose
	// instantiations are isolated one by one.
	Root string `toml:"root"`
}

// Log configures logging.
//
type Log struct {
	Level string `toml:"level"`
}

// Config is the full configuration.
//
type Config struct {
	Device Device `toml:"device"`
	Elab   Elab   `toml:"elab"`
	Log    Log    `toml:"log"`
}

// Default returns the default configuration.
//
func Default() *Config {
	return &Config{
		Device: Device{Path: "/dev/mem", Base: 0xC0000000, Span: 0x10000},
		Elab:   Elab{Top: "Main"},
		Log:    Log{Level: "info"},
	}
}

// Load reads the configuration at path over the defaults and validates it. An
// empty path loads DefaultPath, in which case a missing file is not an error.
//
func Load(path string) (*Config, error) {
	c := Default()
	implicit := path == ""
	if implicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if implicit && os.IsNotExist(err) {
			return c, nil
		}
		return nil, errors.Wrap(err, "load configuration")
	}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	if u := meta.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err = c.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

// Validate checks the consistency of c.
//
func (c *Config) Validate() error {
	if c.Device.Path == "" {
		return errors.New("device: empty path")
	}
	if c.Device.Base&3 != 0 {
		return errors.Errorf("device: misaligned base address %#x", c.Device.Base)
	}
	if c.Device.Span < 4 {
		return errors.Errorf("device: span %d too small", c.Device.Span)
	}
	if c.Elab.Top == "" && c.Elab.Root == "" {
		return errors.New("elab: no top or root module")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
//
func (c *Config) Level() (log.Level, error) {
	l, err := log.ParseLevel(c.Log.Level)
	return l, errors.Wrap(err, "log")
}
