// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encodation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/unixdj/iec16022/coding"
	"golang.org/x/text/encoding/charmap"
)

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		text string
		opt  *Options
		want []byte // data codewords before padding
		sym  string
	}{
		{"digits", "123456", nil, []byte{142, 164, 186}, "10x10"},
		{"ascii", "A", nil, []byte{66}, "10x10"},
		{"c40", "AIMAIMAIM", nil,
			[]byte{230, 91, 11, 91, 11, 91, 11, 254}, "14x14"},
		{"text", "aimaimaim", nil,
			[]byte{239, 91, 11, 91, 11, 91, 11, 254}, "14x14"},
		{"c40 backtrack", "AIMAIAB", nil,
			[]byte{230, 91, 11, 90, 255, 254, 67}, "14x14"},
		{"c40 end of data", "AIMAIMAIM 4", nil,
			[]byte{230, 91, 11, 91, 11, 91, 11, 254, 33, 53}, "32x8"},
		{"text end of data", "ab9 cdefgh 1 0", nil,
			[]byte{239, 89, 230, 21, 82, 115, 141, 131, 190, 254, 33, 49}, "16x16"},
		{"c40 partial triplet", "AIMAIMAI", nil,
			[]byte{230, 91, 11, 91, 11, 254, 66, 74}, "14x14"},
		{"ascii not c40", "AIMAIAb", nil,
			[]byte{66, 74, 78, 66, 74, 66, 99}, "14x14"},
		{"c40 then upper shift", "AIMAIMAIM\xcb", nil,
			[]byte{230, 91, 11, 91, 11, 91, 11, 254, 235, 76}, "32x8"},
		{"x12 implicit unlatch", "ABC>ABC123>AB", nil,
			[]byte{238, 89, 233, 14, 192, 100, 207, 44, 31, 67}, "32x8"},
		{"upper shift", "\xe4", nil, []byte{235, 101}, "10x10"},
		{"gs1", "1\x1d2", &Options{GS1: true},
			[]byte{232, 50, 232, 51}, "12x12"},
		{"macro 05", "[)>\x1e05\x1dABC\x1e\x04", nil,
			[]byte{236, 66, 67, 68}, "12x12"},
		{"macro 06", "[)>\x1e06\x1d12\x1e\x04", nil,
			[]byte{237, 142}, "10x10"},
		{"not macro", "[)>\x1e07\x1d\x1e\x04", nil,
			[]byte{92, 42, 63, 31, 137, 30, 31, 5}, "14x14"},
		{"append", "A", &Options{Append: &Append{Index: 2, Count: 3, FileID: [2]byte{1, 2}}},
			[]byte{233, 0x1e, 1, 2, 66}, "12x12"},
		{"rectangle", "1234567890", &Options{Shape: coding.Rectangle},
			[]byte{142, 164, 186, 208, 220}, "18x8"},
		{"square", "AIMAIMAIM\xcb", &Options{Shape: coding.Square},
			[]byte{230, 91, 11, 91, 11, 91, 11, 254, 235, 76}, "16x16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Encode([]byte(tt.text), tt.opt)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, m.Codewords[:m.Len]); diff != "" {
				t.Errorf("codewords (-want +got):\n%s", diff)
			}
			if got := m.Symbol.String(); got != tt.sym {
				t.Errorf("symbol %s, want %s", got, tt.sym)
			}
			if len(m.Codewords) != m.Symbol.DataWords {
				t.Errorf("%d codewords, capacity %d",
					len(m.Codewords), m.Symbol.DataWords)
			}
		})
	}
}

func TestBase256(t *testing.T) {
	// The length field is 0 as the data fills the symbol.
	m, err := Encode(latin1(t, "«äöüé»"), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{231, 44, 108, 59, 226, 126, 1, 104}
	if diff := cmp.Diff(want, m.Codewords); diff != "" {
		t.Errorf("codewords (-want +got):\n%s", diff)
	}

	// With room left the length is explicit.
	s, _ := coding.Lookup(16, 16)
	m, err = Encode(latin1(t, "«äöüé»"), &Options{Symbol: s})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Codewords[1], randomise255(6, 2); got != want {
		t.Errorf("length field %d, want %d", got, want)
	}
}

func TestRandomise255(t *testing.T) {
	for pos := 1; pos < 1000; pos++ {
		seen := make(map[byte]bool)
		for b := 0; b < 256; b++ {
			r := randomise255(byte(b), pos)
			if seen[r] {
				t.Fatalf("pos %d: randomisation not a permutation", pos)
			}
			seen[r] = true
		}
	}
}

func TestDigits(t *testing.T) {
	for n := 1; n <= 40; n++ {
		text := strings.Repeat("0123456789", 4)[:n]
		m, err := Encode([]byte(text), nil)
		if err != nil {
			t.Fatal(err)
		}
		if lim := (n+1)/2 + 1; m.Len > lim {
			t.Errorf("%d digits in %d codewords, want at most %d",
				n, m.Len, lim)
		}
		if n%2 == 0 && m.Len != n/2 {
			t.Errorf("%d digits in %d codewords, want %d", n, m.Len, n/2)
		}
	}
}

func TestCapacity(t *testing.T) {
	s, _ := coding.Lookup(10, 10)
	if _, err := Encode([]byte("12345678"), &Options{Symbol: s}); err != coding.ErrCapacity {
		t.Errorf("fixed symbol: err = %v", err)
	}
	if _, err := Encode(make([]byte, 1600), nil); err != coding.ErrCapacity {
		t.Errorf("automatic: err = %v", err)
	}
	text := []byte(strings.Repeat("12", 49))
	if _, err := Encode(text, &Options{Shape: coding.Rectangle}); err != nil {
		t.Errorf("49 codewords in a rectangle: %v", err)
	}
	text = append(text, '1', '2')
	if _, err := Encode(text, &Options{Shape: coding.Rectangle}); err != coding.ErrCapacity {
		t.Errorf("50 codewords in a rectangle: err = %v", err)
	}
	if m, err := Encode(make([]byte, 1555), nil); err != nil || m.Symbol.Width != 144 {
		t.Errorf("1555 bytes: %v", err)
	}
}

func TestAppendInvalid(t *testing.T) {
	for _, a := range []Append{
		{Index: 1, Count: 1, FileID: [2]byte{1, 1}},
		{Index: 0, Count: 2, FileID: [2]byte{1, 1}},
		{Index: 3, Count: 2, FileID: [2]byte{1, 1}},
		{Index: 1, Count: 17, FileID: [2]byte{1, 1}},
		{Index: 1, Count: 2, FileID: [2]byte{0, 1}},
		{Index: 1, Count: 2, FileID: [2]byte{1, 255}},
	} {
		if _, err := Encode([]byte("A"), &Options{Append: &a}); !errors.Is(err, ErrAppend) {
			t.Errorf("%+v: err = %v", a, err)
		}
	}
}

func TestNextMode(t *testing.T) {
	tests := []struct {
		text string
		pos  int
		cur  Mode
		want Mode
		n    int
	}{
		{"", 0, Text, Text, 0},
		{"AIMAIMAIM", 0, ASCII, C40, 9},
		{"aimaimaim", 0, ASCII, Text, 9},
		{"ABC>ABC123>AB", 0, ASCII, X12, 13},
		{"AIMAIAb", 0, ASCII, ASCII, 7},
		{"AIMAIMAIM", 3, C40, C40, 4},
		{"\xab\xe4\xf6\xfc\xe9\xbb", 0, ASCII, Base256, 4},
		{"A", 0, ASCII, ASCII, 1},
		{"B", 0, C40, C40, 1},
		// C40 and X12 tie after 15 characters; the next one is
		// an X12 terminator.
		{"DBBFD1 AC1  EFD*", 0, ASCII, X12, 15},
	}
	for _, tt := range tests {
		m, n := NextMode([]byte(tt.text), tt.pos, tt.cur, false)
		if m != tt.want || n != tt.n {
			t.Errorf("NextMode(%q, %d, %v) = %v, %d, want %v, %d",
				tt.text, tt.pos, tt.cur, m, n, tt.want, tt.n)
		}
	}
}

// Modes never suggested for a character they cannot encode.
func TestNextModeEncodable(t *testing.T) {
	texts := []string{
		"a>>>>>>>>>>>>", "\x01ABCDEFGHIJ", "\x1d\x80\x81\x82\x83",
		"xABC>ABC>ABC>", ".....A", "\x1dAAAAAAAA",
	}
	for _, s := range texts {
		for pos := range s {
			for cur := ASCII; cur <= Base256; cur++ {
				m, _ := NextMode([]byte(s), pos, cur, true)
				c := s[pos]
				if m == X12 && !isX12(c) || m == EDIFACT && !isEDIFACT(c) ||
					m == Base256 && c == gs {
					t.Errorf("NextMode(%q, %d, %v) = %v", s, pos, cur, m)
				}
			}
		}
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		m    Mode
		text string
		want []byte
	}{
		{ASCII, "12a\xe4", []byte{142, 98, 235, 101}},
		{C40, "AIM", []byte{91, 11}},
		{C40, "A", []byte{0x57, 0x81}}, // A, Shift 1, Shift 1
		{Text, "aim", []byte{91, 11}},
		{X12, "ABC", []byte{89, 233}},
		{EDIFACT, ".A.C", []byte{184, 27, 131}},
		{EDIFACT, ".A.C1", []byte{184, 27, 131, 196}},
		{Base256, "ab", []byte{2, 'a', 'b'}},
	}
	for _, tt := range tests {
		got, err := Pack(tt.m, []byte(tt.text))
		if err != nil {
			t.Errorf("Pack(%v, %q): %v", tt.m, tt.text, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Pack(%v, %q) (-want +got):\n%s", tt.m, tt.text, diff)
		}
	}

	_, err := Pack(X12, []byte("AB!"))
	var ice *InvalidCharacterError
	if !errors.As(err, &ice) || ice.Char != '!' || ice.Pos != 2 {
		t.Errorf("Pack(X12, %q): err = %v", "AB!", err)
	}
	if _, err = Pack(X12, []byte("AB")); err != ErrPartial {
		t.Errorf("Pack(X12, %q): err = %v", "AB", err)
	}
	if _, err = Pack(EDIFACT, []byte("ab")); !errors.As(err, &ice) || ice.Mode != EDIFACT {
		t.Errorf("Pack(EDIFACT, %q): err = %v", "ab", err)
	}
}

func TestC40Values(t *testing.T) {
	tests := []struct {
		c    byte
		text bool
		want []byte
	}{
		{' ', false, []byte{3}},
		{'9', true, []byte{13}},
		{'Z', false, []byte{39}},
		{'z', true, []byte{39}},
		{'\n', false, []byte{0, 10}},
		{'!', false, []byte{1, 0}},
		{'@', false, []byte{1, 21}},
		{'_', true, []byte{1, 26}},
		{'`', false, []byte{2, 0}},
		{'a', false, []byte{2, 1}},
		{'A', true, []byte{2, 1}},
		{0x7f, true, []byte{2, 31}},
		{0xc1, false, []byte{1, 30, 14}},
		{0x9d, false, []byte{1, 30, 0, 29}},
	}
	for _, tt := range tests {
		got := appendC40(nil, tt.c, tt.text, true)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("appendC40(%#x, %v) (-want +got):\n%s",
				tt.c, tt.text, diff)
		}
	}
	if got := appendC40(nil, gs, false, true); !cmp.Equal(got, []byte{1, 27}) {
		t.Errorf("FNC1: %v", got)
	}
}
