// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mmio_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/hwbind/mmio"
	log "github.com/sirupsen/logrus"
)

func TestMem(t *testing.T) {
	m := mmio.NewMem(0x1000, 4)
	var writes []int
	m.OnWrite = func(idx int, v uint32) { writes = append(writes, idx) }

	m.WriteWord(0x1004, 0xcafe)
	m.WriteWord(0x100c, 7)
	if v := m.ReadWord(0x1004); v != 0xcafe {
		t.Fatalf("got %#x", v)
	}
	if m.Word(3) != 7 {
		t.Fatalf("got %d", m.Word(3))
	}
	m.SetWord(0, 1)
	if len(writes) != 2 || writes[0] != 1 || writes[1] != 3 {
		t.Fatalf("OnWrite calls: %v", writes)
	}

	for _, addr := range []uint64{0x1002, 0x0ffc, 0x1010} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("access at %#x did not panic", addr)
				}
			}()
			m.ReadWord(addr)
		}()
	}
}

func TestLogged(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	l.SetOutput(&buf)
	l.SetLevel(log.TraceLevel)

	ch := mmio.Logged(mmio.NewMem(0, 2), l)
	ch.WriteWord(4, 9)
	if v := ch.ReadWord(4); v != 9 {
		t.Fatalf("got %d", v)
	}
	out := buf.String()
	if !strings.Contains(out, "msg=write") || !strings.Contains(out, "msg=read") || !strings.Contains(out, "addr=0x4") {
		t.Fatalf("unexpected log output: %s", out)
	}
}
