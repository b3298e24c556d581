// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/unixdj/iec16022/raster"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
)

func mustEncode(t *testing.T, text string, w, h int) *Code {
	t.Helper()
	c, err := Encode(text, w, h, ECC200, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestEncodeText(t *testing.T) {
	c := mustEncode(t, "123456", 0, 0)
	var b bytes.Buffer
	if err := c.EncodeText(&b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("%d lines", len(lines))
	}
	if lines[0] != "* * * * * " || lines[9] != "**********" {
		t.Errorf("edges %q, %q", lines[0], lines[9])
	}
	for y, l := range lines {
		for x, ch := range l {
			if (ch == '*') != c.Black(x, y) {
				t.Fatalf("(%d,%d) = %q", x, y, ch)
			}
		}
	}
}

func TestEncodeHex(t *testing.T) {
	c := mustEncode(t, "123456", 0, 0)
	var h, b bytes.Buffer
	if err := c.EncodeHex(&h); err != nil {
		t.Fatal(err)
	}
	if err := c.EncodeBin(&b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Fields(h.String())
	if len(lines) != 10 || lines[0] != "FFC0" || lines[9] != "AA80" {
		t.Fatalf("hex dump:\n%s", h.String())
	}
	raw, err := hex.DecodeString(strings.Join(lines, ""))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(raw, b.Bytes()); diff != "" {
		t.Errorf("bin differs from hex (-hex +bin):\n%s", diff)
	}
}

// readPBM parses a P4 image.
func readPBM(t *testing.T, p []byte) (w, h int, bits []byte) {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(p))
	if _, err := fmt.Fscanf(r, "P4\n%d %d\n", &w, &h); err != nil {
		t.Fatal(err)
	}
	bits, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(bits) != (w+7)/8*h {
		t.Fatalf("%d bytes of data for %dx%d", len(bits), w, h)
	}
	return w, h, bits
}

func TestEncodePBM(t *testing.T) {
	codes := []*Code{
		mustEncode(t, "123456", 0, 0),
		mustEncode(t, "0123456789", 32, 8),
		mustEncode(t, "DataMatrix", 16, 16),
		mustEncode(t, "DataMatrix", 18, 18),
		mustEncode(t, "DataMatrix", 64, 64),
	}
	for _, c := range codes {
		for _, scale := range []int{1, 2, 3, 4, 5, 7, 8, 9, 16} {
			for _, border := range []int{0, 1, 3, 8} {
				for _, rev := range []bool{false, true} {
					c.Scale, c.Border, c.Reverse = scale, border, rev
					name := fmt.Sprintf("%v/%d/%d/%v", c.Symbol, scale, border, rev)
					var b bytes.Buffer
					if err := c.EncodePBM(&b); err != nil {
						t.Fatalf("%s: %v", name, err)
					}
					w, h, bits := readPBM(t, b.Bytes())
					if ww, hh := c.size(); w != ww || h != hh {
						t.Fatalf("%s: size %dx%d, want %dx%d", name, w, h, ww, hh)
					}
					stride := (w + 7) / 8
					for y := 0; y < h; y++ {
						for x := 0; x < w; x++ {
							got := bits[y*stride+x/8]&(0x80>>(x&7)) != 0
							want := c.Black(x/scale-border, y/scale-border) != rev
							if got != want {
								t.Fatalf("%s: pixel (%d,%d) = %v", name, x, y, got)
							}
						}
					}
				}
			}
		}
	}
}

func TestEncodeEPS(t *testing.T) {
	c := mustEncode(t, "123456", 0, 0)
	c.Scale = 5
	var b bytes.Buffer
	if err := c.EncodeEPS(&b); err != nil {
		t.Fatal(err)
	}
	s := b.String()
	for _, want := range []string{
		"%!PS-Adobe-3.0 EPSF-3.0\n",
		"%%BoundingBox: 0 0 60 60\n",
		"%%BarcodeSize: 10x10\n",
		"5 dup scale\n",
		"12 12 1 [1 0 0 1 0 0] {<\nFFFF\n801F\n",
		"\nFFFF\n>} image\n",
		"%%EOF\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in\n%s", want, s)
		}
	}

	c.Palette = &[2]color.Color{color.NRGBA{}, color.NRGBA{0, 0, 0xff, 0xff}}
	b.Reset()
	if err := c.EncodeEPS(&b); err != nil {
		t.Fatal(err)
	}
	s = b.String()
	if strings.Contains(s, "rectfill") {
		t.Error("transparent background filled")
	}
	if !strings.Contains(s, "0 0 1 setrgbcolor\n12 12 true [1 0 0 1 0 0] {<\n0000\n7FE0\n") {
		t.Errorf("imagemask:\n%s", s)
	}
}

func TestString(t *testing.T) {
	c := mustEncode(t, "123456", 0, 0)
	s := c.String()
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("%d lines:\n%s", len(lines), s)
	}
	// quiet zone over the dashed top edge
	if want := " " + strings.Repeat("▄ ", 5) + " "; lines[0] != want {
		t.Errorf("top %q, want %q", lines[0], want)
	}
	// rows 9 and 10: solid bottom edge over the quiet zone
	if want := " " + strings.Repeat("▀", 10) + " "; lines[5] != want {
		t.Errorf("bottom %q, want %q", lines[5], want)
	}
	c.Border = 0
	if n := strings.Count(c.String(), "\n"); n != 5 {
		t.Errorf("%d lines without border", n)
	}
}

func TestEncodeInfo(t *testing.T) {
	c := mustEncode(t, "123456", 0, 0)
	var b bytes.Buffer
	if err := c.EncodeInfo(&b); err != nil {
		t.Fatal(err)
	}
	want := "Size    : 10x10\nEncoded : 3 of 3 codewords with 5 codewords of ECC\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
}

func TestImageFormats(t *testing.T) {
	c := mustEncode(t, "Image formats", 0, 0)
	c.Scale, c.Border = 3, 1
	want := mustPaletted(t, c)
	decoders := []struct {
		name   string
		encode func(io.Writer) error
		decode func(io.Reader) (image.Image, error)
	}{
		{"png", func(w io.Writer) error { return c.EncodePNG(w, nil) }, png.Decode},
		{"png stored", func(w io.Writer) error {
			return c.EncodePNG(w, &raster.Options{Compression: raster.Stored})
		}, png.Decode},
		{"png huffman", func(w io.Writer) error {
			return c.EncodePNG(w, &raster.Options{Compression: raster.Huffman, Comment: "DataMatrix"})
		}, png.Decode},
		{"gif", func(w io.Writer) error { return c.EncodeGIF(w, nil) }, gif.Decode},
		{"gif interlaced", func(w io.Writer) error {
			return c.EncodeGIF(w, &raster.Options{Interlace: true})
		}, gif.Decode},
		{"bmp", c.EncodeBMP, bmp.Decode},
	}
	for _, d := range decoders {
		t.Run(d.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := d.encode(&b); err != nil {
				t.Fatal(err)
			}
			m, err := d.decode(&b)
			if err != nil {
				t.Fatal(err)
			}
			if m.Bounds() != want.Bounds() {
				t.Fatalf("bounds %v, want %v", m.Bounds(), want.Bounds())
			}
			for y := 0; y < want.Bounds().Dy(); y++ {
				for x := 0; x < want.Bounds().Dx(); x++ {
					r0, g0, b0, _ := want.At(x, y).RGBA()
					r1, g1, b1, _ := m.At(x, y).RGBA()
					if r0 != r1 || g0 != g1 || b0 != b1 {
						t.Fatalf("pixel (%d,%d)", x, y)
					}
				}
			}
			if got := decode(t, m); got != "Image formats" {
				t.Errorf("decoded %q", got)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	c := mustEncode(t, "formats", 0, 0)
	for _, name := range FormatNames() {
		f, ok := LookupFormat(name)
		if !ok || f.Name != name {
			t.Fatalf("LookupFormat(%q) = %v, %v", name, f, ok)
		}
		var b bytes.Buffer
		if err := f.Encode(c, &b, nil); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if b.Len() == 0 {
			t.Errorf("%s: no output", name)
		}
		if err := f.Encode(&Code{}, io.Discard, nil); !errors.Is(err, ErrArgs) {
			t.Errorf("%s: invalid code: %v", name, err)
		}
	}
	if _, ok := LookupFormat("stamp"); ok {
		t.Error("LookupFormat(\"stamp\") succeeded")
	}
}

type failWriter struct{ n int }

var errWrite = errors.New("write failed")

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		n := w.n
		w.n = 0
		return n, errWrite
	}
	w.n -= len(p)
	return len(p), nil
}

func TestWriteErrors(t *testing.T) {
	c := mustEncode(t, strings.Repeat("write errors ", 30), 0, 0)
	for _, f := range Formats {
		for _, n := range []int{0, 10, 50} {
			if err := f.Encode(c, &failWriter{n}, nil); !errors.Is(err, errWrite) {
				t.Errorf("%s after %d bytes: %v", f.Name, n, err)
			}
		}
	}
}
