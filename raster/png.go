// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	pngHeader = "\x89PNG\r\n\x1a\n"
	chunkSize = 0x8000 // IDAT chunks split after 32 KB
	maxPNG    = 1 << 24
)

// A pngWriter writes PNG chunks, remembering the first error.
type pngWriter struct {
	w   *bufio.Writer
	err error
	tmp [13]byte
}

func (w *pngWriter) write(b []byte) {
	if w.err == nil {
		_, w.err = w.w.Write(b)
	}
}

func (w *pngWriter) writeChunk(name string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], name)
	crc := crc32.Update(crc32.ChecksumIEEE(hdr[4:]), crc32.IEEETable, data)
	w.write(hdr[:])
	w.write(data)
	binary.BigEndian.PutUint32(hdr[:4], crc)
	w.write(hdr[:4])
}

// bitDepth returns the smallest PNG bit depth for n colours.
func bitDepth(n int) int {
	d := 1
	for 1<<d < n {
		d <<= 1
	}
	return d
}

// scanlines returns the image data of m with filter type 0 at the
// given bit depth, and the length of a scanline.
func scanlines(m *image.Paletted, width, height, depth int) ([]byte, int) {
	rowlen := 1 + (width*depth+7)/8
	data := make([]byte, rowlen*height)
	mask := byte(1<<depth - 1)
	for y := 0; y < height; y++ {
		dst := data[y*rowlen+1 : (y+1)*rowlen]
		src := row(m, y)
		if depth == 8 {
			copy(dst, src)
			continue
		}
		for x, v := range src {
			bit := x * depth
			dst[bit>>3] |= v & mask << (8 - depth - bit&7)
		}
	}
	return data, rowlen
}

// WritePNG writes m to w as a PNG image with a palette.
//
// The chunks are IHDR, PLTE, tRNS if the palette has transparent
// colours, bKGD if o is not nil, tEXt if o has a comment, IDAT and
// IEND.  o.Interlace is ignored.
func WritePNG(w io.Writer, m *image.Paletted, o *Options) error {
	width, height, err := check(m, maxPNG)
	if err != nil {
		return err
	}
	pw := &pngWriter{w: bufio.NewWriter(w)}
	np := len(m.Palette)
	depth := bitDepth(np)

	pw.write([]byte(pngHeader))
	binary.BigEndian.PutUint32(pw.tmp[0:4], uint32(width))
	binary.BigEndian.PutUint32(pw.tmp[4:8], uint32(height))
	pw.tmp[8] = byte(depth)
	pw.tmp[9] = 3  // palette
	pw.tmp[10] = 0 // deflate
	pw.tmp[11] = 0 // adaptive filtering
	pw.tmp[12] = 0 // no interlace
	pw.writeChunk("IHDR", pw.tmp[:13])

	plte := make([]byte, 3*np)
	trns := make([]byte, np)
	last := 0 // number of tRNS entries
	for i, c := range m.Palette {
		nc := nrgba(c)
		plte[3*i], plte[3*i+1], plte[3*i+2] = nc.R, nc.G, nc.B
		if trns[i] = nc.A; nc.A != 0xff {
			last = i + 1
		}
	}
	pw.writeChunk("PLTE", plte)
	if last != 0 {
		pw.writeChunk("tRNS", trns[:last])
	}
	if o != nil {
		if 0 <= o.Background && o.Background < np {
			pw.writeChunk("bKGD", []byte{byte(o.Background)})
		}
		if o.Comment != "" {
			pw.writeChunk("tEXt", []byte("Comment\x00"+o.Comment))
		}
	}

	data, rowlen := scanlines(m, width, height, depth)
	comp := Deflate
	if o != nil {
		comp = o.Compression
	}
	z, err := compress(data, rowlen, comp)
	if err != nil {
		return err
	}
	for len(z) > chunkSize {
		pw.writeChunk("IDAT", z[:chunkSize])
		z = z[chunkSize:]
	}
	pw.writeChunk("IDAT", z)
	pw.writeChunk("IEND", nil)
	if pw.err == nil {
		pw.err = pw.w.Flush()
	}
	return pw.err
}

// compress returns data compressed into a zlib stream.
func compress(data []byte, rowlen int, c Compression) ([]byte, error) {
	switch c {
	case Huffman:
		return huffmanRows(data, rowlen), nil
	case Stored:
		return storeRows(data, rowlen), nil
	case Deflate:
		var b bytes.Buffer
		zw, err := zlib.NewWriterLevel(&b, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err = zw.Write(data); err != nil {
			return nil, err
		}
		if err = zw.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	return nil, ErrImage
}
