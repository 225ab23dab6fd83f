// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hwbind/config"
	log "github.com/sirupsen/logrus"
)

func write(t *testing.T, text string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hwbind.toml")
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefault(t *testing.T) {
	c := config.Default()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if l, _ := c.Level(); l != log.InfoLevel {
		t.Fatalf("level: %v", l)
	}
}

func TestLoad(t *testing.T) {
	c, err := config.Load(write(t, `
[device]
base = 0x40000000
span = 256

[elab]
root = "Main"

[log]
level = "debug"
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Device.Path != "/dev/mem" || c.Device.Base != 0x40000000 || c.Device.Span != 256 {
		t.Fatalf("device: %+v", c.Device)
	}
	if c.Elab.Root != "Main" || c.Elab.Top != "Main" {
		t.Fatalf("elab: %+v", c.Elab)
	}
	if l, _ := c.Level(); l != log.DebugLevel {
		t.Fatalf("level: %v", l)
	}
}

func TestLoadErrors(t *testing.T) {
	td := []struct {
		name string
		text string
	}{
		{"syntax", "[device\n"},
		{"unknown", "[device]\nport = 1\n"},
		{"misaligned", "[device]\nbase = 2\n"},
		{"span", "[device]\nspan = 3\n"},
		{"level", "[log]\nlevel = \"loud\"\n"},
		{"modules", "[elab]\ntop = \"\"\n"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			if _, err := config.Load(write(t, d.text)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatal("expected an error for an explicit path")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err = os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Device.Span != config.Default().Device.Span {
		t.Fatalf("expected defaults, got %+v", c)
	}
}
