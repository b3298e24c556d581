// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encodation implements the high-level DataMatrix ECC200
// encoder, converting text to data codewords.
//
// Text is encoded in the ASCII, C40, Text, X12, EDIFACT and Base256
// encodation schemes, switching between them as suggested by the
// look-ahead test of ISO/IEC 16022 Annex P.
package encodation // import "github.com/unixdj/iec16022/encodation"

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/unixdj/iec16022/coding"
)

// A Mode is an encodation scheme.
type Mode int

const (
	ASCII Mode = iota
	C40
	Text
	X12
	EDIFACT
	Base256
)

var modeNames = [...]string{"ASCII", "C40", "Text", "X12", "EDIFACT", "Base256"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Codewords and values with special meaning.
const (
	latchC40       = 230
	latchBase256   = 231
	fnc1           = 232
	structAppend   = 233
	upperShift     = 235
	macro05        = 236
	macro06        = 237
	latchX12       = 238
	latchText      = 239
	latchEDIFACT   = 240
	unlatch        = 254
	unlatchEDIFACT = 31 // EDIFACT value
	digitPair      = 130

	gs = 0x1d // group separator, FNC1 in GS1 mode
)

var latches = [...]byte{
	C40:     latchC40,
	Text:    latchText,
	X12:     latchX12,
	EDIFACT: latchEDIFACT,
	Base256: latchBase256,
}

var ErrAppend = errors.New("iec16022: invalid structured append parameters")

// Append places a symbol in a structured append sequence.
type Append struct {
	Index  int     // position in the sequence, 1 to Count
	Count  int     // number of symbols, 2 to 16
	FileID [2]byte // file identification, each byte 1 to 254
}

func (a *Append) codewords() ([]byte, error) {
	if a.Count < 2 || a.Count > 16 || a.Index < 1 || a.Index > a.Count {
		return nil, ErrAppend
	}
	for _, v := range a.FileID {
		if v < 1 || v > 254 {
			return nil, ErrAppend
		}
	}
	return []byte{
		structAppend,
		byte((a.Index-1)<<4 | (17 - a.Count)),
		a.FileID[0],
		a.FileID[1],
	}, nil
}

// Options control encoding.  The zero value selects the smallest
// symbol of any shape.
type Options struct {
	Shape  coding.Shape   // restricts automatic symbol selection
	Symbol *coding.Symbol // fixed symbol; nil to select automatically
	GS1    bool           // FNC1 in first position, GS encoded as FNC1
	Append *Append        // structured append header, if not nil
}

// A Message is encoded text.
type Message struct {
	Codewords []byte         // data codewords, padded to capacity
	Len       int            // number of codewords before padding
	Symbol    *coding.Symbol // symbol holding the message
}

// Encode encodes text into data codewords.  If opt.Symbol is nil,
// the smallest symbol of shape opt.Shape holding the data is chosen.
// It returns coding.ErrCapacity if the data does not fit.
func Encode(text []byte, opt *Options) (*Message, error) {
	if opt == nil {
		opt = &Options{}
	}
	e := &encoder{
		text:  text,
		end:   len(text),
		gs1:   opt.GS1,
		shape: opt.Shape,
		fixed: opt.Symbol,
	}
	if opt.Append != nil {
		cw, err := opt.Append.codewords()
		if err != nil {
			return nil, err
		}
		e.msg = append(e.msg, cw...)
	}
	if e.gs1 {
		e.msg = append(e.msg, fnc1)
	} else if len(e.msg) == 0 {
		e.macro()
	}
	for e.pos < e.end {
		start, mode := e.pos, e.mode
		switch e.mode {
		case ASCII:
			e.ascii()
		case C40, Text:
			e.c40()
		case X12:
			e.x12()
		case EDIFACT:
			e.edifact()
		case Base256:
			e.base256()
		}
		if mode != ASCII && e.pos == start && e.asciiTo <= e.pos {
			// latched without encoding anything
			e.asciiTo = e.pos + 1
		}
	}
	return e.finish()
}

type encoder struct {
	text     []byte
	pos, end int // text[pos:end] is to be encoded
	gs1      bool
	shape    coding.Shape
	fixed    *coding.Symbol
	msg      []byte
	mode     Mode
	asciiTo  int // text before asciiTo must be encoded in ASCII
}

// fit returns the symbol for n data codewords and whether they fit.
func (e *encoder) fit(n int) (*coding.Symbol, bool) {
	if e.fixed != nil {
		return e.fixed, n <= e.fixed.DataWords
	}
	s, err := coding.Fit(n, e.shape)
	if err != nil {
		return coding.Largest(e.shape), false
	}
	return s, true
}

// room returns the number of data codewords left in the symbol after
// n more are written.
func (e *encoder) room(n int) int {
	n += len(e.msg)
	s, _ := e.fit(n)
	return s.DataWords - n
}

var (
	macroHeader  = []byte("[)>\x1e0")
	macroTrailer = []byte("\x1e\x04")
)

// macro replaces a Macro 05 or 06 header and trailer by a single
// codeword.
func (e *encoder) macro() {
	t := e.text
	if len(t) < 9 || !bytes.HasPrefix(t, macroHeader) || t[6] != gs ||
		!bytes.HasSuffix(t, macroTrailer) {
		return
	}
	switch t[5] {
	case '5':
		e.msg = append(e.msg, macro05)
	case '6':
		e.msg = append(e.msg, macro06)
	default:
		return
	}
	e.pos, e.end = 7, len(t)-2
}

func (e *encoder) ascii() {
	c := e.text[e.pos]
	if e.pos+1 < e.end && isDigit(c) && isDigit(e.text[e.pos+1]) {
		e.msg = append(e.msg, digitPair+(c-'0')*10+e.text[e.pos+1]-'0')
		e.pos += 2
		return
	}
	if e.pos >= e.asciiTo {
		if m, _ := NextMode(e.text[:e.end], e.pos, ASCII, e.gs1); m != ASCII {
			e.msg = append(e.msg, latches[m])
			e.mode = m
			return
		}
	}
	e.msg = appendASCII(e.msg, c, e.gs1)
	e.pos++
}

// unlatch returns from C40, Text or X12 to ASCII.  The unlatch
// codeword is omitted when the rest of the text is one ASCII
// codeword filling the symbol.
func (e *encoder) unlatch() {
	if asciiLen(e.text[e.pos:e.end]) == 1 && e.room(1) == 0 {
		e.asciiTo = e.end
	} else {
		e.msg = append(e.msg, unlatch)
	}
	e.mode = ASCII
}

// c40 encodes text in C40 or Text mode until the look-ahead test
// suggests another mode or the text ends.
func (e *encoder) c40() {
	text := e.mode == Text
	var (
		vals  []byte
		sizes []int // number of values per character
	)
	for e.pos < e.end {
		n := len(vals)
		vals = appendC40(vals, e.text[e.pos], text, e.gs1)
		sizes = append(sizes, len(vals)-n)
		e.pos++
		if e.pos < e.end && len(vals)%3 == 0 {
			if m, _ := NextMode(e.text[:e.end], e.pos, e.mode, e.gs1); m != e.mode {
				e.msg = appendTriplets(e.msg, vals)
				e.unlatch()
				return
			}
		}
	}

	// At the end of data, a partial triplet is allowed only when
	// exactly two codewords are left, and a single basic set
	// character when exactly one codeword is left.  Otherwise
	// characters are returned to ASCII, after an unlatch unless
	// the returned text is one codeword filling the symbol.
	for len(sizes) > 0 {
		rem, room := len(vals)%3, e.room(len(vals)/3*2)
		last := e.pos == e.end
		if rem == 0 || last && rem == 2 && room == 2 ||
			last && rem == 1 && room == 1 && sizes[len(sizes)-1] == 1 {
			break
		}
		vals = vals[:len(vals)-sizes[len(sizes)-1]]
		sizes = sizes[:len(sizes)-1]
		e.pos--
	}
	switch len(vals) % 3 {
	case 2:
		e.msg = appendTriplets(e.msg, append(vals, 0))
	case 1:
		e.msg = appendTriplets(e.msg, vals[:len(vals)-1])
		e.pos--
		e.mode = ASCII
		e.asciiTo = e.end
		return
	default:
		e.msg = appendTriplets(e.msg, vals)
	}
	if e.pos < e.end {
		e.unlatch()
	}
}

// x12 encodes text in X12 mode.  It stops before any character
// outside the X12 set, and returns trailing characters that do not
// fill a triplet to ASCII.
func (e *encoder) x12() {
	var vals []byte
	for e.pos < e.end {
		v, ok := x12Value(e.text[e.pos])
		if !ok {
			break
		}
		vals = append(vals, v)
		e.pos++
		if len(vals) == 3 {
			e.msg = appendTriplets(e.msg, vals)
			vals = vals[:0]
			if e.pos < e.end {
				if m, _ := NextMode(e.text[:e.end], e.pos, X12, e.gs1); m != X12 {
					break
				}
			}
		}
	}
	e.pos -= len(vals)
	if e.pos < e.end {
		e.unlatch()
	}
}

// edifact encodes text in EDIFACT mode.  It stops before any
// character outside the EDIFACT set.
func (e *encoder) edifact() {
	var vals []byte
	for e.pos < e.end {
		c := e.text[e.pos]
		if !isEDIFACT(c) {
			break
		}
		vals = append(vals, c&0x3f)
		e.pos++
		if len(vals) == 4 {
			e.msg = appendQuad(e.msg, vals)
			vals = vals[:0]
			if e.pos < e.end {
				if m, _ := NextMode(e.text[:e.end], e.pos, EDIFACT, e.gs1); m != EDIFACT {
					break
				}
			}
		}
	}
	e.mode = ASCII

	// With at most two codewords left at a group boundary the
	// decoder returns to ASCII without an unlatch.
	rest := asciiLen(e.text[e.pos-len(vals) : e.end])
	s, _ := e.fit(len(e.msg) + rest)
	if room := s.DataWords - len(e.msg); rest <= room && room <= 2 {
		e.pos -= len(vals)
		e.asciiTo = e.end
		return
	}
	e.msg = appendQuad(e.msg, append(vals, unlatchEDIFACT))
}

const maxBase256 = 1555

// base256 encodes bytes in Base256 mode.  The length field is 0,
// meaning the rest of the symbol, when the field ends the data and
// fills the symbol exactly.
func (e *encoder) base256() {
	start := e.pos
	for e.pos < e.end && e.pos-start < maxBase256 {
		if e.gs1 && e.text[e.pos] == gs && e.pos > start {
			break
		}
		e.pos++
		if e.pos < e.end {
			if m, _ := NextMode(e.text[:e.end], e.pos, Base256, e.gs1); m != Base256 {
				break
			}
		}
	}
	data := e.text[start:e.pos]
	var field []byte
	switch n := len(data); {
	case e.pos == e.end && e.room(n+1) == 0:
		field = []byte{0}
	case n <= 249:
		field = []byte{byte(n)}
	default:
		field = []byte{byte(n/250 + 249), byte(n % 250)}
	}
	for _, b := range append(field, data...) {
		e.msg = append(e.msg, randomise255(b, len(e.msg)+1))
	}
	e.mode = ASCII
}

// randomise255 scrambles Base256 byte b at 1-based codeword position pos.
func randomise255(b byte, pos int) byte {
	return byte(int(b) + 149*pos%255 + 1)
}

// finish unlatches if needed and pads the message.
func (e *encoder) finish() (*Message, error) {
	s, ok := e.fit(len(e.msg))
	if !ok {
		return nil, coding.ErrCapacity
	}
	switch e.mode {
	case C40, Text, X12:
		if len(e.msg) < s.DataWords {
			e.msg = append(e.msg, unlatch)
		}
	}
	m := &Message{Len: len(e.msg), Symbol: s}
	var err error
	if m.Codewords, err = coding.Pad(e.msg, s); err != nil {
		return nil, err
	}
	return m, nil
}
