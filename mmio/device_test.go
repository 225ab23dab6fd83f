// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

//go:build unix

package mmio_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/hwbind/mmio"
)

func devFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mem")
	if err := os.WriteFile(path, make([]byte, size), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenDeviceErrors(t *testing.T) {
	path := devFile(t, 4096)
	data := []struct {
		name string
		path string
		base uint64
		span int
		msg  string
	}{
		{"misaligned", path, 2, 16, "misaligned"},
		{"span", path, 0, 2, "too small"},
		{"base overflow", path, 1 << 63, 16, "base address"},
		{"missing file", filepath.Join(t.TempDir(), "nope"), 0, 16, "open device"},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			dev, err := mmio.OpenDevice(d.path, d.base, d.span)
			if err == nil {
				dev.Close()
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), d.msg) {
				t.Fatalf("error %q does not contain %q", err, d.msg)
			}
		})
	}
}

func TestDevice(t *testing.T) {
	dev, err := mmio.OpenDevice(devFile(t, 4096), 0, 4096)
	if err != nil {
		t.Fatal(err)
	}
	dev.WriteWord(8, 0xdeadbeef)
	if v := dev.ReadWord(8); v != 0xdeadbeef {
		t.Fatalf("got %#x", v)
	}
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
}
