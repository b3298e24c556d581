// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

import (
	"bufio"
	"compress/lzw"
	"encoding/binary"
	"image"
	"io"
)

const maxGIF = 0xffff

// A gifWriter writes GIF blocks, remembering the first error.
type gifWriter struct {
	w   *bufio.Writer
	err error
}

func (w *gifWriter) write(b ...byte) {
	if w.err == nil {
		_, w.err = w.w.Write(b)
	}
}

func (w *gifWriter) uint16(v int) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	w.write(b[:]...)
}

// A blockWriter splits data into sub-blocks of up to 255 bytes.
type blockWriter struct {
	w   *gifWriter
	buf [256]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	for _, c := range p {
		b.n++
		b.buf[b.n] = c
		if b.n == 255 {
			b.flush()
		}
	}
	return len(p), b.w.err
}

func (b *blockWriter) flush() {
	if b.n != 0 {
		b.buf[0] = byte(b.n)
		b.w.write(b.buf[:b.n+1]...)
		b.n = 0
	}
}

// Close writes pending data and the block terminator.
func (b *blockWriter) Close() error {
	b.flush()
	b.w.write(0)
	return b.w.err
}

// interlace lists the first row and row step of each pass.
var interlace = [4][2]int{{0, 8}, {4, 8}, {2, 4}, {1, 2}}

// rowOrder returns the order in which rows are written.
func rowOrder(height int, interlaced bool) []int {
	order := make([]int, 0, height)
	if !interlaced {
		for y := 0; y < height; y++ {
			order = append(order, y)
		}
		return order
	}
	for _, p := range interlace {
		for y := p[0]; y < height; y += p[1] {
			order = append(order, y)
		}
	}
	return order
}

// transparent returns the index of the first palette entry with alpha
// below one half, or -1.
func transparent(m *image.Paletted) int {
	for i, c := range m.Palette {
		if _, _, _, a := c.RGBA(); a < 0x8000 {
			return i
		}
	}
	return -1
}

// WriteGIF writes m to w as a GIF89a image.
//
// The global colour table has at least 4 entries.  A comment
// extension is written if o has a comment, and a graphic control
// extension if the palette has a transparent colour.
func WriteGIF(w io.Writer, m *image.Paletted, o *Options) error {
	width, height, err := check(m, maxGIF)
	if err != nil {
		return err
	}
	if o == nil {
		o = &Options{}
	}
	gw := &gifWriter{w: bufio.NewWriter(w)}
	np := len(m.Palette)
	bits := 2
	for 1<<bits < np {
		bits++
	}

	// Logical screen and global colour table.
	gw.write([]byte("GIF89a")...)
	gw.uint16(width)
	gw.uint16(height)
	var bg byte
	if 0 <= o.Background && o.Background < np {
		bg = byte(o.Background)
	}
	gw.write(0x80|byte(bits-1)<<4|byte(bits-1), bg, 0)
	ct := make([]byte, 3<<bits)
	for i, c := range m.Palette {
		nc := nrgba(c)
		ct[3*i], ct[3*i+1], ct[3*i+2] = nc.R, nc.G, nc.B
	}
	gw.write(ct...)

	if o.Comment != "" {
		gw.write(0x21, 0xfe)
		b := &blockWriter{w: gw}
		b.Write([]byte(o.Comment))
		b.Close()
	}
	if t := transparent(m); t >= 0 {
		gw.write(0x21, 0xf9, 4, 0x01, 0, 0, byte(t), 0)
	}

	// Image descriptor and data.
	gw.write(0x2c, 0, 0, 0, 0)
	gw.uint16(width)
	gw.uint16(height)
	if o.Interlace {
		gw.write(0x40)
	} else {
		gw.write(0)
	}
	gw.write(byte(bits))
	b := &blockWriter{w: gw}
	lw := lzw.NewWriter(b, lzw.LSB, bits)
	for _, y := range rowOrder(height, o.Interlace) {
		if _, err := lw.Write(row(m, y)); err != nil {
			return err
		}
	}
	if err := lw.Close(); err != nil {
		return err
	}
	b.Close()

	gw.write(0x3b)
	if gw.err == nil {
		gw.err = gw.w.Flush()
	}
	return gw.err
}
