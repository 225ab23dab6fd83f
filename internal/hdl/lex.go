// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	SysIdent
	Number
	String
	Punct
)

var typeNames = [...]string{
	EOF:      "end of input",
	Raw:      "invalid character",
	Ident:    "identifier",
	SysIdent: "system task",
	Number:   "number",
	String:   "string",
	Punct:    "punctuation",
}

func (t Type) String() string { return typeNames[t] }

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Value string
	Line  int
	Col   int
}

func (i Item) String() string {
	switch i.Type {
	case EOF:
		return i.Type.String()
	case String:
		return "string literal"
	}
	return "\"" + i.Value + "\""
}

// is returns true if i is the punctuation or keyword v.
func (i Item) is(v string) bool {
	return (i.Type == Punct || i.Type == Ident) && i.Value == v
}

type stateFn func(l *lexer) stateFn

type lexer struct {
	src       string
	start     int
	pos       int
	width     int
	line, col int // current position
	pl, pc    int // position before the last call to next
	sl, sc    int // token start position
	items     []Item
}

// Lex splits src into tokens. The returned slice always ends with an EOF
// item. Lexing stops at the first invalid character, which is returned as a
// Raw item right before EOF.
//
func Lex(src string) []Item {
	l := &lexer{src: src, line: 1, col: 1}
	var state stateFn = lexInit
	for state != nil {
		state = state(l)
	}
	return l.items
}

const eof = -1

func (l *lexer) next() rune {
	if l.pos >= len(l.src) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.width = w
	l.pos += w
	l.pl, l.pc = l.line, l.col
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

// backup steps back one rune. It must be called only once per call of next.
func (l *lexer) backup() {
	if l.width > 0 {
		l.pos -= l.width
		l.line, l.col = l.pl, l.pc
	}
	l.width = 0
}

func (l *lexer) acceptWhile(f func(rune) bool) {
	for {
		r := l.next()
		if r == eof {
			return
		}
		if !f(r) {
			l.backup()
			return
		}
	}
}

func (l *lexer) mark() {
	l.start, l.sl, l.sc = l.pos, l.line, l.col
}

func (l *lexer) emit(t Type, v string) {
	l.items = append(l.items, Item{Type: t, Value: v, Line: l.sl, Col: l.sc})
	l.mark()
}

func (l *lexer) current() string { return l.src[l.start:l.pos] }

var puncts = []string{
	"<<<", ">>>", "===", "!==",
	"<=", ">=", "==", "!=", "&&", "||", "<<", ">>", "**", "~&", "~|", "~^", "^~",
	"(", ")", "[", "]", "{", "}", ";", ",", ":", ".", "#", "@", "?", "=",
	"<", ">", "+", "-", "*", "/", "%", "&", "|", "^", "~", "!",
}

func lexInit(l *lexer) stateFn {
	l.mark()
	r := l.next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		l.acceptWhile(unicode.IsSpace)
		return lexInit
	case r == '/' && l.peek() == '/':
		l.acceptWhile(func(r rune) bool { return r != '\n' })
		return lexInit
	case r == '/' && l.peek() == '*':
		l.next()
		i := strings.Index(l.src[l.pos:], "*/")
		if i < 0 {
			l.emit(Raw, "unterminated comment")
			return lexEOF
		}
		for end := l.pos + i + 2; l.pos < end; {
			l.next()
		}
		return lexInit
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case r == '$':
		return lexIdent
	case '0' <= r && r <= '9' || r == '\'':
		l.backup()
		return lexNumber
	case r == '"':
		return lexString
	}
	l.backup()
	rest := l.src[l.pos:]
	for _, p := range puncts {
		if strings.HasPrefix(rest, p) {
			for range p {
				l.next()
			}
			l.emit(Punct, p)
			return lexInit
		}
	}
	l.next()
	l.emit(Raw, l.current())
	return lexEOF
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}

func lexIdent(l *lexer) stateFn {
	l.acceptWhile(isIdentRune)
	v := l.current()
	if v[0] == '$' {
		l.emit(SysIdent, v)
	} else {
		l.emit(Ident, v)
	}
	return lexInit
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' || r == '_' }

func isBasedDigit(r rune) bool {
	return isDigit(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F' ||
		r == 'x' || r == 'X' || r == 'z' || r == 'Z' || r == '?'
}

// lexNumber lexes decimal literals and sized or unsized based literals such as
// 8'hff or 'b1010.
func lexNumber(l *lexer) stateFn {
	l.acceptWhile(isDigit)
	if l.peek() == '\'' {
		l.next()
		if r := l.peek(); r == 's' || r == 'S' {
			l.next()
		}
		switch l.next() {
		case 'b', 'B', 'o', 'O', 'd', 'D', 'h', 'H':
		default:
			l.emit(Raw, l.current())
			return lexEOF
		}
		l.acceptWhile(isBasedDigit)
	}
	l.emit(Number, l.current())
	return lexInit
}

func lexString(l *lexer) stateFn {
	var b strings.Builder
	for {
		r := l.next()
		switch r {
		case eof, '\n':
			l.emit(Raw, "unterminated string")
			return lexEOF
		case '"':
			l.emit(String, b.String())
			return lexInit
		case '\\':
			switch e := l.next(); e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case eof:
				l.emit(Raw, "unterminated string")
				return lexEOF
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// lexEOF emits the final EOF item.
//
func lexEOF(l *lexer) stateFn {
	l.mark()
	l.emit(EOF, "end of input")
	return nil
}
