// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eval

import (
	"strconv"
	"strings"

	"github.com/db47h/hwbind/ast"
	"github.com/db47h/hwbind/bits"
)

// Format renders the arguments of a $display or $write statement. If the
// first argument is a string literal, it is used as a format string with
// %d, %h, %x, %b, %o, %s, %c, %t, %m and %% conversions, each optionally
// preceded by a decimal field width. Arguments left over after the format
// is consumed, or all arguments if there is no format string, are appended in
// decimal.
//
func (e *Evaluator) Format(args []ast.NodeID) string {
	var sb strings.Builder
	i := 0
	if len(args) > 0 && e.t.Kind(args[0]) == ast.String {
		i = e.format(&sb, e.t.Node(args[0]).Text, args[1:]) + 1
	}
	for ; i < len(args); i++ {
		if e.t.Kind(args[i]) == ast.String {
			sb.WriteString(e.t.Node(args[i]).Text)
			continue
		}
		sb.WriteString(e.Eval(args[i]).String())
	}
	return sb.String()
}

// format writes f to sb and returns the number of arguments consumed.
func (e *Evaluator) format(sb *strings.Builder, f string, args []ast.NodeID) int {
	used := 0
	next := func() *bits.Bits {
		if used >= len(args) {
			return nil
		}
		v := e.Eval(args[used])
		used++
		return v
	}
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' || i+1 == len(f) {
			sb.WriteByte(c)
			continue
		}
		i++
		j := i
		for i < len(f) && '0' <= f[i] && f[i] <= '9' {
			i++
		}
		width, pad := -1, byte(' ')
		if i > j {
			width, _ = strconv.Atoi(f[j:i])
			if f[j] == '0' {
				pad = '0'
			}
		}
		if i == len(f) {
			sb.WriteString(f[j-1:])
			break
		}
		var s string
		switch f[i] {
		case '%':
			sb.WriteByte('%')
			continue
		case 'm', 'M':
			sb.WriteString(e.t.ModuleName(e.md))
			continue
		case 'd', 'D', 't', 'T':
			if v := next(); v != nil {
				s = v.Text(10)
			}
		case 'h', 'H', 'x', 'X':
			if v := next(); v != nil {
				s = v.Text(16)
			}
		case 'b', 'B':
			if v := next(); v != nil {
				s = v.Text(2)
			}
		case 'o', 'O':
			if v := next(); v != nil {
				s = v.Text(8)
			}
		case 'c', 'C':
			if v := next(); v != nil {
				s = string([]byte{byte(v.Word(0))})
			}
		case 's', 'S':
			if used < len(args) && e.t.Kind(args[used]) == ast.String {
				s = e.t.Node(args[used]).Text
				used++
			} else if v := next(); v != nil {
				s = text(v)
			}
		default:
			// unknown conversions are copied verbatim
			sb.WriteString(f[j-1 : i+1])
			continue
		}
		if width > 0 && len(s) < width {
			sb.WriteString(strings.Repeat(string(pad), width-len(s)))
		}
		sb.WriteString(s)
	}
	return used
}

// text returns the bytes of v, most significant first, without leading NULs.
func text(v *bits.Bits) string {
	b := v.Big().Bytes()
	return string(b)
}
