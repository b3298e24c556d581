// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encodation

// Costs are counted in twelfths of a codeword.
type costs [Base256 + 1]int

// codewords returns costs rounded up to whole codewords.
func (w *costs) codewords() (r costs) {
	for i, v := range w {
		r[i] = (v + 11) / 12
	}
	return
}

func roundUp(v int) int { return (v + 11) / 12 * 12 }

// less reports whether w[m]+extra is less than the cost of every
// mode in others.
func (w *costs) less(m Mode, extra int, others ...Mode) bool {
	for _, o := range others {
		if w[m]+extra >= w[o] {
			return false
		}
	}
	return true
}

// NextMode returns the mode suggested for encoding text from pos
// onwards when the current mode is cur, and the number of characters
// examined.  It implements the look-ahead test of ISO/IEC 16022
// Annex P.  Ties favour the current mode.
//
// A mode that cannot encode text[pos] is never suggested; ASCII is
// suggested instead.
func NextMode(text []byte, pos int, cur Mode, gs1 bool) (Mode, int) {
	if pos >= len(text) {
		return cur, 0
	}
	m, n := lookAhead(text[pos:], cur, gs1)
	c := text[pos]
	switch {
	case m == X12 && !isX12(c),
		m == EDIFACT && !isEDIFACT(c),
		m == Base256 && gs1 && c == gs:
		m = ASCII
	}
	return m, n
}

func lookAhead(text []byte, cur Mode, gs1 bool) (Mode, int) {
	c := costs{0, 12, 12, 12, 12, 15}
	if cur != ASCII {
		c = costs{12, 24, 24, 24, 24, 27}
		c[cur] = 0
	}
	for i, ch := range text {
		ext := ch >= 128
		switch {
		case isDigit(ch):
			c[ASCII] += 6
		case ext:
			c[ASCII] = roundUp(c[ASCII]) + 24
		default:
			c[ASCII] = roundUp(c[ASCII]) + 12
		}
		c[C40] += textCost(isC40(ch), ext)
		c[Text] += textCost(isText(ch), ext)
		switch {
		case isX12(ch):
			c[X12] += 8
		case ext:
			c[X12] += 52
		default:
			c[X12] += 40
		}
		switch {
		case isEDIFACT(ch):
			c[EDIFACT] += 9
		case ext:
			c[EDIFACT] += 51
		default:
			c[EDIFACT] += 39
		}
		if gs1 && ch == gs {
			c[Base256] += 48
		} else {
			c[Base256] += 12
		}
		if n := i + 1; n >= 4 {
			if m, ok := decide(c.codewords(), text[n:]); ok {
				return m, n
			}
		}
	}
	return atEnd(c.codewords()), len(text)
}

func textCost(basic, ext bool) int {
	switch {
	case basic:
		return 8
	case ext:
		return 32
	}
	return 16
}

// atEnd picks the mode when the text runs out.
func atEnd(w costs) Mode {
	lo := w[0]
	for _, v := range w[1:] {
		if v < lo {
			lo = v
		}
	}
	if w[ASCII] == lo {
		return ASCII
	}
	n := 0
	for _, v := range w {
		if v == lo {
			n++
		}
	}
	if n == 1 {
		for _, m := range []Mode{Base256, EDIFACT, Text, X12} {
			if w[m] == lo {
				return m
			}
		}
	}
	return C40
}

// decide picks a mode after at least four characters, if one is
// clearly cheaper.  rest is the text not yet examined.
func decide(w costs, rest []byte) (Mode, bool) {
	switch {
	case w.less(ASCII, 0, Base256, C40, Text, X12, EDIFACT):
		return ASCII, true
	case w[Base256] < w[ASCII] || w.less(Base256, 1, C40, Text, X12, EDIFACT):
		return Base256, true
	case w.less(EDIFACT, 1, Base256, C40, Text, X12, ASCII):
		return EDIFACT, true
	case w.less(Text, 1, Base256, EDIFACT, C40, X12, ASCII):
		return Text, true
	case w.less(X12, 1, Base256, EDIFACT, C40, Text, ASCII):
		return X12, true
	case w.less(C40, 1, ASCII, Base256, EDIFACT, Text):
		if w[C40] < w[X12] {
			return C40, true
		}
		if w[C40] == w[X12] {
			// Prefer X12 if a terminator or separator follows
			// the X12 characters, starting with the first
			// character not examined yet.
			for _, c := range rest {
				if isX12Term(c) {
					return X12, true
				}
				if !isX12(c) {
					break
				}
			}
			return C40, true
		}
	}
	return 0, false
}
