// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

// Bespoke zlib streams for scanline data.
//
// The Huffman compressor knows two kinds of repeats: runs of a byte
// (distance 1) and repeats of the previous scanline (distance of one
// scanline).  For barcodes this covers nearly everything, and a
// single dynamic Huffman block is built from exact symbol counts.

import (
	"bytes"
	"encoding/binary"
)

const (
	minMatch = 3
	maxMatch = 258
	maxDist  = 1 << 15
	maxBlock = 0xffff // stored block length
)

// A bitWriter is a write buffer for bit-oriented data like deflate.
type bitWriter struct {
	buf  bytes.Buffer
	tmp  [8]byte
	nbit byte
	bit  uint64
}

func (w *bitWriter) flushBits() {
	if n := w.nbit; n > 0 {
		binary.LittleEndian.PutUint64(w.tmp[:], w.bit)
		w.buf.Write(w.tmp[:(n+7)/8])
		w.bit, w.nbit = 0, 0
	}
}

func (w *bitWriter) writeBits(bit uint64, nbit byte) {
	n := w.nbit
	b := w.bit | bit<<n
	n += nbit
	if n >= 64 {
		binary.LittleEndian.PutUint64(w.tmp[:], b)
		w.buf.Write(w.tmp[:8])
		n -= 64
		b = 0
		if n != 0 {
			b = bit >> (nbit - n)
		}
	}
	w.bit, w.nbit = b, n
}

func (w *bitWriter) code(c code)   { w.writeBits(uint64(c.bit), c.nbit) }
func (w *bitWriter) xcode(c xcode) { w.writeBits(c.bit, c.nbit) }

// zlibHeader writes a zlib header for an LZ77 window of at least
// window bytes.
func (w *bitWriter) zlibHeader(window int) {
	var cinfo byte // log2 window size minus 8
	for n := (window - 1) >> 8; n != 0 && cinfo < 7; n >>= 1 {
		cinfo++
	}
	cmf := cinfo<<4 | 0x08 // deflate
	w.buf.WriteByte(cmf)
	w.buf.WriteByte(byte(31 - uint16(cmf)<<8%31))
}

func (w *bitWriter) zlibFooter(sum uint32) {
	w.flushBits()
	binary.BigEndian.PutUint32(w.tmp[:4], sum)
	w.buf.Write(w.tmp[:4])
}

// storeRows writes data as a zlib stream of stored blocks, one or
// more per scanline of rowlen bytes.
func storeRows(data []byte, rowlen int) []byte {
	var w bitWriter
	var d adigest
	d.Reset()
	d.Write(data)
	w.zlibHeader(maxDist)
	for len(data) != 0 {
		n := min(rowlen, maxBlock, len(data))
		var final uint64
		if n == len(data) {
			final = 1
		}
		w.writeBits(final, 3) // BFINAL, BTYPE 00
		w.flushBits()
		binary.LittleEndian.PutUint16(w.tmp[0:], uint16(n))
		binary.LittleEndian.PutUint16(w.tmp[2:], ^uint16(n))
		w.buf.Write(w.tmp[:4])
		w.buf.Write(data[:n])
		data = data[n:]
	}
	w.zlibFooter(d.Sum32())
	return w.buf.Bytes()
}

// A token is a literal byte (dist 0) or a repeat of n bytes at
// distance dist.
type token struct {
	n, dist uint16
}

// tokenize splits data into literals and repeats at distance 1 or
// rowlen, whichever is longer.
func tokenize(data []byte, rowlen int) []token {
	match := func(i, dist int) int {
		n := 0
		for i+n < len(data) && n < maxMatch && data[i+n] == data[i+n-dist] {
			n++
		}
		return n
	}
	t := make([]token, 0, len(data)/8)
	for i := 0; i < len(data); {
		n, dist := 0, 0
		if i >= rowlen && rowlen <= maxDist {
			n, dist = match(i, rowlen), rowlen
		}
		if i >= 1 && n < maxMatch {
			if m := match(i, 1); m > n {
				n, dist = m, 1
			}
		}
		if n < minMatch {
			t = append(t, token{uint16(data[i]), 0})
			i++
			continue
		}
		t = append(t, token{uint16(n), uint16(dist)})
		i += n
	}
	return t
}

// huffmanRows writes data as a zlib stream with a single dynamic
// Huffman block of literals, runs and scanline repeats.
func huffmanRows(data []byte, rowlen int) []byte {
	toks := tokenize(data, rowlen)

	// Count symbols.
	var f [nsyms + ndcodes]int
	fl, fd := f[:nsyms], f[nsyms:]
	for _, t := range toks {
		if t.dist == 0 {
			fl[t.n]++
			continue
		}
		l, _ := lcode(int(t.n))
		d, _ := dcode(int(t.dist))
		fl[l]++
		fd[d]++
	}
	fl[256] = 1 // end of block
	nd := 0
	for _, v := range fd {
		nd += v
	}
	if nd == 0 {
		fd[0] = 1 // at least one distance code
	}
	sym := buildCodes(make(ctable, nsyms), fl, 15)
	dist := buildCodes(make(ctable, ndcodes), fd, 15)

	// Header codes.
	all := make([]code, 0, len(sym)+len(dist))
	all = append(append(all, sym...), dist...)
	lc := lenCodes(all)
	var fh [nhcodes]int
	for _, v := range lc {
		fh[v.cmd]++
	}
	hc := buildCodes(make(ctable, nhcodes), fh[:], 7)
	var clens [nhcodes]byte
	hclen := 4
	for i, s := range hcorder {
		if int(s) < len(hc) && hc[s].nbit != 0 {
			clens[i] = hc[s].nbit
			hclen = max(hclen, i+1)
		}
	}

	var w bitWriter
	var d adigest
	d.Reset()
	d.Write(data)
	w.zlibHeader(rowlen)
	w.writeBits(1, 1) // final block
	w.writeBits(2, 2) // dynamic Huffman codes
	w.writeBits(uint64(len(sym)-257), 5)
	w.writeBits(uint64(len(dist)-1), 5)
	w.writeBits(uint64(hclen-4), 4)
	for _, v := range clens[:hclen] {
		w.writeBits(uint64(v), 3)
	}
	for _, v := range lc {
		w.code(hc.codex(v.cmd, v.arg))
	}
	for _, t := range toks {
		if t.dist == 0 {
			w.code(sym.code(t.n))
			continue
		}
		w.xcode(sym.xcodex(lcode(int(t.n))))
		w.xcode(dist.xcodex(dcode(int(t.dist))))
	}
	w.code(sym.code(256))
	w.zlibFooter(d.Sum32())
	return w.buf.Bytes()
}

// An adigest computes an Adler-32 checksum.
type adigest struct {
	a, b uint32
}

func (d *adigest) Reset() { d.a, d.b = 1, 0 }

const (
	amod = 65521
	nmax = 5552 // bytes before b may overflow
)

func (d *adigest) Write(p []byte) {
	a, b := d.a, d.b
	for len(p) > 0 {
		q := p
		if len(q) > nmax {
			q = q[:nmax]
		}
		p = p[len(q):]
		for _, x := range q {
			a += uint32(x)
			b += a
		}
		a %= amod
		b %= amod
	}
	d.a, d.b = a, b
}

func (d *adigest) Sum32() uint32 { return d.b<<16 | d.a }
