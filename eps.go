// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
)

// rgb returns c as PostScript setrgbcolor operands.
func rgb(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("%.3g %.3g %.3g",
		float64(n.R)/0xff, float64(n.G)/0xff, float64(n.B)/0xff)
}

// EncodeEPS writes an Encapsulated PostScript image of the code with
// its quiet zone.  Each module is c.Scale points wide.
//
// With the default palette the modules are drawn with the image
// operator.  Otherwise the background is filled unless it is
// transparent, and black modules are painted in the foreground colour
// with imagemask.
func (c *Code) EncodeEPS(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	bord := c.Border
	pw, ph := c.Width+2*bord, c.Height+2*bord
	fmt.Fprintf(b, `%%!PS-Adobe-3.0 EPSF-3.0
%%%%Creator: iec16022 https://github.com/unixdj/iec16022
%%%%Title: DataMatrix %dx%d
%%%%BarcodeSize: %dx%d
%%%%BarcodeEncoded: %d of %d, ECC %d
%%%%BoundingBox: 0 0 %d %d
%%%%EndComments
gsave
%d dup scale
`,
		c.Width, c.Height, c.Width, c.Height,
		c.Encoded, c.Capacity, c.ECC,
		pw*c.Scale, ph*c.Scale, c.Scale)
	var p *rowPacker
	if c.Palette == nil {
		p = c.packer(1, bord, !c.Reverse) // 1 is white
		fmt.Fprintf(b, "%d %d 1 [1 0 0 1 0 0] {<\n", pw, ph)
	} else {
		pal := c.colors()
		if _, _, _, a := pal[0].RGBA(); a != 0 {
			fmt.Fprintf(b, "%s setrgbcolor\n0 0 %d %d rectfill\n",
				rgb(pal[0]), pw, ph)
		}
		p = c.packer(1, bord, false)
		fmt.Fprintf(b, "%s setrgbcolor\n%d %d true [1 0 0 1 0 0] {<\n",
			rgb(pal[1]), pw, ph)
	}
	for y := c.Height + bord - 1; y >= -bord; y-- {
		fmt.Fprintf(b, "%X\n", p.pack(y))
	}
	if c.Palette == nil {
		b.WriteString(">} image\n")
	} else {
		b.WriteString(">} imagemask\n")
	}
	if _, err := b.WriteString("grestore\n%%EOF\n"); err != nil {
		return err
	}
	return b.Flush()
}
