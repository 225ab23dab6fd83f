// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bits implements fixed width bit vectors of arbitrary size.
//
// A Bits value is stored as little-endian 32 bits words, which is also the
// layout used to exchange values with a memory mapped target: word 0 holds bits
// 0 to 31, word 1 bits 32 to 63, and so on. Bits beyond the vector's width are
// always zero.
//
package bits

import (
	"math/big"
)

// Bits is a fixed width bit vector.
//
type Bits struct {
	width int
	words []uint32
}

// New returns a zero valued bit vector of the given width. It panics if width
// is less than 1.
//
func New(width int) *Bits {
	if width < 1 {
		panic("bits: invalid width")
	}
	return &Bits{width: width, words: make([]uint32, (width+31)/32)}
}

// FromUint64 returns a bit vector of the given width holding v, truncated to
// width bits.
//
func FromUint64(width int, v uint64) *Bits {
	b := New(width)
	b.words[0] = uint32(v)
	if len(b.words) > 1 {
		b.words[1] = uint32(v >> 32)
	}
	b.trim()
	return b
}

// FromBig returns a bit vector of the given width holding the two's complement
// representation of v, truncated to width bits.
//
func FromBig(width int, v *big.Int) *Bits {
	b := New(width)
	x := new(big.Int).Set(v)
	if x.Sign() < 0 {
		// two's complement over the full word range
		m := new(big.Int).Lsh(big.NewInt(1), uint(len(b.words)*32))
		x.Add(x, m)
	}
	for i := range b.words {
		b.words[i] = uint32(new(big.Int).And(x, big.NewInt(0xffffffff)).Uint64())
		x.Rsh(x, 32)
	}
	b.trim()
	return b
}

func (b *Bits) trim() {
	if r := b.width % 32; r != 0 {
		b.words[len(b.words)-1] &= 1<<uint(r) - 1
	}
}

// Width returns the width of b in bits.
//
func (b *Bits) Width() int { return b.width }

// Words returns the number of 32 bits words needed to store b.
//
func (b *Bits) Words() int { return len(b.words) }

// Word returns the i-th 32 bits word of b. Words past the end of b read as 0.
//
func (b *Bits) Word(i int) uint32 {
	if i < 0 || i >= len(b.words) {
		return 0
	}
	return b.words[i]
}

// SetWord sets the i-th 32 bits word of b. Bits past the width of b are
// discarded.
//
func (b *Bits) SetWord(i int, w uint32) {
	if i < 0 || i >= len(b.words) {
		return
	}
	b.words[i] = w
	if i == len(b.words)-1 {
		b.trim()
	}
}

// Bit returns the value of bit i.
//
func (b *Bits) Bit(i int) bool {
	if i < 0 || i >= b.width {
		return false
	}
	return b.words[i/32]&(1<<uint(i%32)) != 0
}

// SetBit sets bit i to v. Out of range bits are ignored.
//
func (b *Bits) SetBit(i int, v bool) {
	if i < 0 || i >= b.width {
		return
	}
	if v {
		b.words[i/32] |= 1 << uint(i%32)
	} else {
		b.words[i/32] &^= 1 << uint(i%32)
	}
}

// IsZero returns true if all bits of b are 0.
//
func (b *Bits) IsZero() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Uint64 returns the low 64 bits of b.
//
func (b *Bits) Uint64() uint64 {
	return uint64(b.Word(0)) | uint64(b.Word(1))<<32
}

// Int returns the low bits of b as an int.
//
func (b *Bits) Int() int {
	return int(int64(b.Uint64()))
}

// Big returns the unsigned value of b.
//
func (b *Bits) Big() *big.Int {
	x := new(big.Int)
	for i := len(b.words) - 1; i >= 0; i-- {
		x.Lsh(x, 32)
		x.Or(x, big.NewInt(int64(b.words[i])))
	}
	return x
}

// Equal returns true if b and o have the same width and value.
//
func (b *Bits) Equal(o *Bits) bool {
	if b.width != o.width {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of b.
//
func (b *Bits) Clone() *Bits {
	c := &Bits{width: b.width, words: make([]uint32, len(b.words))}
	copy(c.words, b.words)
	return c
}

// Resize returns a copy of b zero extended or truncated to width bits.
//
func (b *Bits) Resize(width int) *Bits {
	c := New(width)
	copy(c.words, b.words)
	c.trim()
	return c
}

// Assign copies the value of o into b, zero extending or truncating it to the
// width of b.
//
func (b *Bits) Assign(o *Bits) {
	for i := range b.words {
		b.words[i] = o.Word(i)
	}
	b.trim()
}

// Text returns the unsigned value of b in the given base.
//
func (b *Bits) Text(base int) string {
	return b.Big().Text(base)
}

// String returns the decimal representation of b.
//
func (b *Bits) String() string {
	return b.Text(10)
}
