// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bits_test

import (
	"math/big"
	"testing"
	"testing/quick"

	"github.com/db47h/hwbind/bits"
)

func TestFromUint64(t *testing.T) {
	td := []struct {
		width int
		v     uint64
		words []uint32
	}{
		{1, 3, []uint32{1}},
		{8, 0x1ff, []uint32{0xff}},
		{32, 0xdeadbeef, []uint32{0xdeadbeef}},
		{40, 0x12_3456_789a, []uint32{0x3456789a, 0x12}},
		{36, 0xff_ffff_ffff, []uint32{0xffffffff, 0xf}},
		{70, 1 << 63, []uint32{0, 0x80000000, 0}},
	}
	for _, d := range td {
		b := bits.FromUint64(d.width, d.v)
		if b.Words() != len(d.words) {
			t.Fatalf("%d bits: expected %d words, got %d", d.width, len(d.words), b.Words())
		}
		for i, w := range d.words {
			if b.Word(i) != w {
				t.Fatalf("%d bits %#x: word %d: expected %#x, got %#x", d.width, d.v, i, w, b.Word(i))
			}
		}
	}
}

func TestFromBig(t *testing.T) {
	b := bits.FromBig(8, big.NewInt(-1))
	if b.Uint64() != 0xff {
		t.Fatalf("-1: got %v", b)
	}
	x, _ := new(big.Int).SetString("123456789abcdef0123", 16)
	b = bits.FromBig(76, x)
	if b.Text(16) != "123456789abcdef0123" {
		t.Fatalf("got %s", b.Text(16))
	}
	if b.Big().Cmp(x) != 0 {
		t.Fatalf("Big: got %v", b.Big())
	}
	b = bits.FromBig(12, x)
	if b.Uint64() != 0x123 {
		t.Fatalf("truncated: got %#x", b.Uint64())
	}
}

func TestWords(t *testing.T) {
	b := bits.New(40)
	b.SetWord(1, 0xffffffff)
	if b.Word(1) != 0xff {
		t.Fatalf("high word not trimmed: %#x", b.Word(1))
	}
	b.SetWord(2, 1)
	if b.Word(2) != 0 || b.Words() != 2 {
		t.Fatal("out of range word")
	}
	b.SetBit(39, false)
	b.SetBit(0, true)
	if b.Uint64() != 0x7f_0000_0001 {
		t.Fatalf("got %#x", b.Uint64())
	}
	if !b.Bit(0) || b.Bit(39) || b.Bit(40) {
		t.Fatal("Bit")
	}
}

func TestResize(t *testing.T) {
	b := bits.FromUint64(16, 0xabcd)
	if r := b.Resize(8); r.Width() != 8 || r.Uint64() != 0xcd {
		t.Fatalf("truncate: %v", r)
	}
	if r := b.Resize(48); r.Width() != 48 || r.Uint64() != 0xabcd {
		t.Fatalf("extend: %v", r)
	}
	c := bits.New(4)
	c.Assign(b)
	if c.Uint64() != 0xd {
		t.Fatalf("Assign: %v", c)
	}
	if c.Equal(bits.FromUint64(8, 0xd)) {
		t.Fatal("Equal ignores width")
	}
	d := c.Clone()
	d.SetBit(3, false)
	if c.Uint64() != 0xd {
		t.Fatal("Clone shares storage")
	}
}

func TestWordsRoundTrip(t *testing.T) {
	f := func(lo, hi uint32, w uint8) bool {
		width := int(w%64) + 1
		b := bits.New(width)
		b.SetWord(0, lo)
		b.SetWord(1, hi)
		c := bits.New(width)
		for i := 0; i < b.Words(); i++ {
			c.SetWord(i, b.Word(i))
		}
		v := (uint64(hi)<<32 | uint64(lo))
		if width < 64 {
			v &= 1<<uint(width) - 1
		}
		return c.Equal(b) && c.Uint64() == v
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}
