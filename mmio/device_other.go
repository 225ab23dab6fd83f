// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

//go:build !unix

package mmio

import (
	"github.com/pkg/errors"
)

// Device is a Channel backed by a memory mapped device file. It is only
// available on unix systems.
//
type Device struct{}

// OpenDevice always fails on this platform.
//
func OpenDevice(path string, base uint64, span int) (*Device, error) {
	return nil, errors.New("memory mapped devices are not supported on this platform")
}

// ReadWord implements Channel.
//
func (d *Device) ReadWord(addr uint64) uint32 { panic("mmio: no device") }

// WriteWord implements Channel.
//
func (d *Device) WriteWord(addr uint64, v uint32) { panic("mmio: no device") }

// Close implements io.Closer.
//
func (d *Device) Close() error { return nil }
