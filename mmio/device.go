// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

//go:build unix

package mmio

import (
	"os"
	"sync/atomic"
	"unsafe"

	"fortio.org/safecast"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Device is a Channel backed by a memory mapping of a device file such as
// /dev/mem.
//
type Device struct {
	f    *os.File
	base uint64
	data []byte
}

// OpenDevice maps span bytes of the device file at path, starting at physical
// address base. Base must be page aligned for /dev/mem and is required to be
// at least 4 bytes aligned.
//
func OpenDevice(path string, base uint64, span int) (*Device, error) {
	if base&3 != 0 {
		return nil, errors.Errorf("misaligned base address %#x", base)
	}
	if span < 4 {
		return nil, errors.Errorf("span %d too small", span)
	}
	off, err := safecast.Conv[int64](base)
	if err != nil {
		return nil, errors.Wrapf(err, "base address %#x", base)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, errors.Wrap(err, "open device")
	}
	data, err := unix.Mmap(int(f.Fd()), off, span, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to memory map %s at %#x", path, base)
	}
	return &Device{f: f, base: base, data: data}, nil
}

func (d *Device) word(addr uint64) *uint32 {
	off := addr - d.base
	if addr&3 != 0 || addr < d.base || off+4 > uint64(len(d.data)) {
		panic(errors.Errorf("mmio: invalid device access at %#x", addr))
	}
	return (*uint32)(unsafe.Pointer(&d.data[off]))
}

// ReadWord implements Channel.
//
func (d *Device) ReadWord(addr uint64) uint32 {
	return atomic.LoadUint32(d.word(addr))
}

// WriteWord implements Channel.
//
func (d *Device) WriteWord(addr uint64, v uint32) {
	atomic.StoreUint32(d.word(addr), v)
}

// Close unmaps the device and closes the underlying file.
//
func (d *Device) Close() error {
	err := unix.Munmap(d.data)
	d.data = nil
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "close device")
}
