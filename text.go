// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// EncodeText writes the modules as text, '*' for black and ' ' for
// white, one line per row from the top.  The rendering parameters
// are ignored.
func (c *Code) EncodeText(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	line := make([]byte, c.Width+1)
	line[c.Width] = '\n'
	for y := 0; y < c.Height; y++ {
		for x := range line[:c.Width] {
			line[x] = ' '
			if c.Black(x, y) {
				line[x] = '*'
			}
		}
		if _, err := b.Write(line); err != nil {
			return err
		}
	}
	return b.Flush()
}

// EncodeHex writes the modules in hexadecimal, 8 modules per byte
// with the leftmost in the high bit, one line per row from the
// bottom.
func (c *Code) EncodeHex(w io.Writer) error {
	return c.dump(w, func(b *bufio.Writer, row []byte) error {
		_, err := fmt.Fprintf(b, "%X\n", row)
		return err
	})
}

// EncodeBin writes the same bytes as EncodeHex in binary.
func (c *Code) EncodeBin(w io.Writer) error {
	return c.dump(w, func(b *bufio.Writer, row []byte) error {
		_, err := b.Write(row)
		return err
	})
}

func (c *Code) dump(w io.Writer, f func(*bufio.Writer, []byte) error) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	p := c.packer(1, 0, false)
	for y := c.Height - 1; y >= 0; y-- {
		if err := f(b, p.pack(y)); err != nil {
			return err
		}
	}
	return b.Flush()
}

var halfBlocks = [4]string{" ", "▀", "▄", "█"}

// String returns the code with its quiet zone drawn with UTF-8 block
// characters, two rows of modules per line.  Blocks are black
// modules, or white ones if c.Reverse is set.
func (c *Code) String() string {
	if !c.isValid() {
		return ""
	}
	dark := func(x, y int) int {
		if c.Black(x, y) != c.Reverse {
			return 1
		}
		return 0
	}
	var b strings.Builder
	bord := c.Border
	for y := -bord; y < c.Height+bord; y += 2 {
		for x := -bord; x < c.Width+bord; x++ {
			v := dark(x, y)
			if y+1 < c.Height+bord {
				v |= dark(x, y+1) << 1
			}
			b.WriteString(halfBlocks[v])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodeInfo writes a summary of the symbol size and codeword usage.
func (c *Code) EncodeInfo(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	_, err := fmt.Fprintf(w, "Size    : %dx%d\n"+
		"Encoded : %d of %d codewords with %d codewords of ECC\n",
		c.Width, c.Height, c.Encoded, c.Capacity, c.ECC)
	return err
}
