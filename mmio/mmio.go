// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package mmio provides word addressed access to a memory mapped target.
//
// Addresses are byte addresses. All accesses are 32 bits wide and must be 4
// bytes aligned.
//
package mmio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Channel reads and writes 32 bits words of a memory mapped target. Each
// access is individually atomic; there is no multi-word atomicity.
//
type Channel interface {
	ReadWord(addr uint64) uint32
	WriteWord(addr uint64, v uint32)
}

// Mem is an in-memory Channel covering Span bytes from Base. It panics on out
// of range or misaligned accesses.
//
type Mem struct {
	base  uint64
	words []uint32
	// OnWrite, if not nil, is called after every write with the word index
	// relative to Base and the written value.
	OnWrite func(idx int, v uint32)
}

// NewMem returns a zeroed Mem of n words starting at byte address base.
//
func NewMem(base uint64, n int) *Mem {
	if base&3 != 0 {
		panic(fmt.Sprintf("mmio: misaligned base address %#x", base))
	}
	return &Mem{base: base, words: make([]uint32, n)}
}

func (m *Mem) index(addr uint64) int {
	if addr&3 != 0 {
		panic(fmt.Sprintf("mmio: misaligned access at %#x", addr))
	}
	if addr < m.base || (addr-m.base)/4 >= uint64(len(m.words)) {
		panic(fmt.Sprintf("mmio: access at %#x outside [%#x, %#x)", addr, m.base, m.base+4*uint64(len(m.words))))
	}
	return int((addr - m.base) / 4)
}

// ReadWord implements Channel.
//
func (m *Mem) ReadWord(addr uint64) uint32 {
	return m.words[m.index(addr)]
}

// WriteWord implements Channel.
//
func (m *Mem) WriteWord(addr uint64, v uint32) {
	i := m.index(addr)
	m.words[i] = v
	if m.OnWrite != nil {
		m.OnWrite(i, v)
	}
}

// Word returns word idx relative to the base address. Unlike ReadWord, it
// does not count as a target access.
//
func (m *Mem) Word(idx int) uint32 { return m.words[idx] }

// SetWord sets word idx relative to the base address without triggering
// OnWrite. Fake firmware uses it to update its own memory.
//
func (m *Mem) SetWord(idx int, v uint32) { m.words[idx] = v }

// Len returns the size of m in words.
//
func (m *Mem) Len() int { return len(m.words) }

type logged struct {
	ch  Channel
	log log.FieldLogger
}

// Logged returns a Channel that logs every access to ch at trace level.
//
func Logged(ch Channel, l log.FieldLogger) Channel {
	return &logged{ch, l}
}

func (c *logged) ReadWord(addr uint64) uint32 {
	v := c.ch.ReadWord(addr)
	c.log.WithFields(log.Fields{"addr": fmt.Sprintf("%#x", addr), "value": v}).Trace("read")
	return v
}

func (c *logged) WriteWord(addr uint64, v uint32) {
	c.log.WithFields(log.Fields{"addr": fmt.Sprintf("%#x", addr), "value": v}).Trace("write")
	c.ch.WriteWord(addr, v)
}
