// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encodation

import (
	"errors"
	"strconv"

	"github.com/unixdj/iec16022/coding"
)

var ErrPartial = errors.New("iec16022: incomplete X12 triplet")

// An InvalidCharacterError reports a byte not encodable in a mode.
type InvalidCharacterError struct {
	Mode Mode
	Char byte
	Pos  int // offset in text
}

func (e *InvalidCharacterError) Error() string {
	return "iec16022: character " + strconv.QuoteRune(rune(e.Char)) +
		" at " + strconv.Itoa(e.Pos) + " not encodable in " +
		e.Mode.String() + " mode"
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }
func isLower(c byte) bool { return 'a' <= c && c <= 'z' }

// Basic sets.
func isC40(c byte) bool     { return c == ' ' || isDigit(c) || isUpper(c) }
func isText(c byte) bool    { return c == ' ' || isDigit(c) || isLower(c) }
func isX12(c byte) bool     { _, ok := x12Value(c); return ok }
func isX12Term(c byte) bool { return c == '\r' || c == '*' || c == '>' }
func isEDIFACT(c byte) bool { return ' ' <= c && c <= '^' }

func appendASCII(dst []byte, c byte, gs1 bool) []byte {
	switch {
	case gs1 && c == gs:
		return append(dst, fnc1)
	case c >= 128:
		return append(dst, upperShift, c-127)
	}
	return append(dst, c+1)
}

// asciiLen returns the number of ASCII codewords encoding text.
func asciiLen(text []byte) int {
	n := 0
	for i := 0; i < len(text); i++ {
		switch {
		case i+1 < len(text) && isDigit(text[i]) && isDigit(text[i+1]):
			i++
		case text[i] >= 128:
			n++
		}
		n++
	}
	return n
}

// appendC40 appends the C40 or Text values of c.  Values 0, 1 and 2
// are Shift 1, 2 and 3.
func appendC40(dst []byte, c byte, text, gs1 bool) []byte {
	switch {
	case c == ' ':
		return append(dst, 3)
	case isDigit(c):
		return append(dst, c-'0'+4)
	case !text && isUpper(c):
		return append(dst, c-'A'+14)
	case text && isLower(c):
		return append(dst, c-'a'+14)
	case gs1 && c == gs:
		return append(dst, 1, 27)
	case c < ' ':
		return append(dst, 0, c)
	case c <= '/':
		return append(dst, 1, c-'!')
	case c <= '@':
		return append(dst, 1, c-':'+15)
	case '[' <= c && c <= '_':
		return append(dst, 1, c-'['+22)
	case c == '`':
		return append(dst, 2, 0)
	case isUpper(c):
		return append(dst, 2, c-'A'+1)
	case isLower(c):
		return append(dst, 2, c-'a'+1)
	case c < 128:
		return append(dst, 2, c-'{'+27)
	}
	// Upper Shift
	return appendC40(append(dst, 1, 30), c-128, text, false)
}

func x12Value(c byte) (byte, bool) {
	switch {
	case c == '\r':
		return 0, true
	case c == '*':
		return 1, true
	case c == '>':
		return 2, true
	case c == ' ':
		return 3, true
	case isDigit(c):
		return c - '0' + 4, true
	case isUpper(c):
		return c - 'A' + 14, true
	}
	return 0, false
}

// appendTriplets packs each three values into two codewords.
// Trailing values not filling a triplet are ignored.
func appendTriplets(dst, vals []byte) []byte {
	for i := 0; i+3 <= len(vals); i += 3 {
		v := 1600*int(vals[i]) + 40*int(vals[i+1]) + int(vals[i+2]) + 1
		dst = append(dst, byte(v>>8), byte(v))
	}
	return dst
}

// appendQuad packs up to four 6-bit EDIFACT values into up to three
// codewords, omitting codewords holding no value bits.
func appendQuad(dst, vals []byte) []byte {
	var v uint32
	for i := 0; i < 4; i++ {
		v <<= 6
		if i < len(vals) {
			v |= uint32(vals[i] & 0x3f)
		}
	}
	n := len(vals)
	if n > 3 {
		n = 3
	}
	for i := 0; i < n; i++ {
		dst = append(dst, byte(v>>(16-8*i)))
	}
	return dst
}

// Pack encodes all of text in mode m, without latch or unlatch
// codewords.  In C40 and Text a trailing partial triplet is padded
// with Shift 1; in X12 it is an error.  Base256 output is the length
// field and data, not randomised.
func Pack(m Mode, text []byte) ([]byte, error) {
	var dst []byte
	switch m {
	case ASCII:
		for i := 0; i < len(text); i++ {
			if i+1 < len(text) && isDigit(text[i]) && isDigit(text[i+1]) {
				dst = append(dst, digitPair+(text[i]-'0')*10+text[i+1]-'0')
				i++
				continue
			}
			dst = appendASCII(dst, text[i], false)
		}
	case C40, Text:
		var vals []byte
		for _, c := range text {
			vals = appendC40(vals, c, m == Text, false)
		}
		for len(vals)%3 != 0 {
			vals = append(vals, 0)
		}
		dst = appendTriplets(dst, vals)
	case X12:
		vals := make([]byte, len(text))
		for i, c := range text {
			v, ok := x12Value(c)
			if !ok {
				return nil, &InvalidCharacterError{m, c, i}
			}
			vals[i] = v
		}
		if len(vals)%3 != 0 {
			return nil, ErrPartial
		}
		dst = appendTriplets(dst, vals)
	case EDIFACT:
		for i := 0; i < len(text); i += 4 {
			j := i + 4
			if j > len(text) {
				j = len(text)
			}
			for k, c := range text[i:j] {
				if !isEDIFACT(c) {
					return nil, &InvalidCharacterError{m, c, i + k}
				}
			}
			dst = appendQuad(dst, text[i:j])
		}
	case Base256:
		switch n := len(text); {
		case n <= 249:
			dst = append(dst, byte(n))
		case n <= maxBase256:
			dst = append(dst, byte(n/250+249), byte(n%250))
		default:
			return nil, coding.ErrCapacity
		}
		dst = append(dst, text...)
	default:
		return nil, errors.New("iec16022: invalid mode " + m.String())
	}
	return dst, nil
}
