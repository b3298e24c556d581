// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package raster

// Huffman code construction for the Huffman compressor.

import (
	"math/bits"
	"slices"
	"strconv"
)

const (
	nsyms   = 286 // literal/length codes
	ndcodes = 30  // distance codes
	nhcodes = 19  // header code length codes
)

// code is a Huffman code or extra bits, stored in the order they
// are written.
type code struct {
	bit  uint16 // value
	nbit byte   // bit length
}
type ctable []code

type xcode struct {
	bit  uint64 // value
	nbit byte   // bit length
}

func (c code) add(cc code) code {
	c.bit |= cc.bit << c.nbit
	if c.nbit += cc.nbit; c.nbit > 16 {
		panic("raster: internal error: code too long")
	}
	return c
}

func (c code) xadd(cc code) xcode {
	return xcode{uint64(c.bit) | uint64(cc.bit)<<c.nbit, c.nbit + cc.nbit}
}

// code returns the Huffman code for symbol v.
func (c ctable) code(v uint16) code {
	if int(v) < len(c) {
		if cc := c[v]; cc.nbit != 0 {
			return cc
		}
	}
	panic("raster: internal error: no code for symbol " + strconv.Itoa(int(v)))
}

func (c ctable) codex(v uint16, ext code) code   { return c.code(v).add(ext) }
func (c ctable) xcodex(v uint16, ext code) xcode { return c.code(v).xadd(ext) }

// A leaf is a symbol with its frequency.
type leaf struct {
	sym  uint16
	freq int
}

// depths returns the number of leaves at each depth of a Huffman
// tree built from leaves, which must be sorted by frequency and hold
// at least two entries.  Leaves deeper than maxdepth are counted at
// maxdepth.
//
// Leaves and merged nodes are kept in two queues, both ordered by
// frequency, so the two lightest nodes are always at their heads.
func depths(leaves []leaf, maxdepth int) []int {
	n := len(leaves)
	freq := make([]int, 2*n-1)
	parent := make([]int, 2*n-1)
	for i, l := range leaves {
		freq[i] = l.freq
	}
	nl, nm := 0, n // heads of the leaf and merged queues
	lightest := func(end int) int {
		if nl < n && (nm == end || freq[nl] <= freq[nm]) {
			nl++
			return nl - 1
		}
		nm++
		return nm - 1
	}
	for k := n; k < len(freq); k++ {
		a := lightest(k)
		b := lightest(k)
		freq[k] = freq[a] + freq[b]
		parent[a], parent[b] = k, k
	}

	// Parents come after their children.
	depth := freq // reuse
	depth[len(depth)-1] = 0
	count := make([]int, maxdepth+1)
	for k := len(depth) - 2; k >= 0; k-- {
		depth[k] = depth[parent[k]] + 1
		if k < n {
			count[min(depth[k], maxdepth)]++
		}
	}
	return count
}

// limit moves leaves in count until their Kraft sum is exactly one.
// Each step removes a leaf from the deepest level and splits the
// deepest shallower leaf in two.
func limit(count []int) {
	md := len(count) - 1
	total := 0
	for d := 1; d <= md; d++ {
		total += count[d] << (md - d)
	}
	for ; total > 1<<md; total-- {
		count[md]--
		for d := md - 1; d > 0; d-- {
			if count[d] != 0 {
				count[d]--
				count[d+1] += 2
				break
			}
		}
	}
}

// buildCodes returns a canonical Huffman code table with codes up to
// maxdepth bits from symbol frequencies in f, using c for storage.
// c must be at least as long as f and have zero value.  The table is
// truncated after the last symbol with a code.
func buildCodes(c ctable, f []int, maxdepth int) ctable {
	var leaves []leaf
	for i, v := range f {
		if v != 0 {
			leaves = append(leaves, leaf{uint16(i), v})
		}
	}
	if len(leaves) == 0 {
		return c[:0]
	}
	c = c[:leaves[len(leaves)-1].sym+1]
	if len(leaves) == 1 {
		c[leaves[0].sym].nbit = 1
		return c
	}
	slices.SortStableFunc(leaves, func(a, b leaf) int { return a.freq - b.freq })
	count := depths(leaves, maxdepth)
	limit(count)

	// Rarest symbols get the longest codes.
	i := 0
	for d := maxdepth; d > 0; d-- {
		for n := count[d]; n > 0; n-- {
			c[leaves[i].sym].nbit = byte(d)
			i++
		}
	}

	// Codes of each length are consecutive in symbol order.  Deflate
	// sends them most significant bit first, so they are stored
	// reversed.
	next := make([]uint16, maxdepth+1)
	var v uint16
	for d := 1; d <= maxdepth; d++ {
		v = (v + uint16(count[d-1])) << 1
		next[d] = v
	}
	for i := range c {
		if d := c[i].nbit; d != 0 {
			c[i].bit = bits.Reverse16(next[d]) >> (16 - d)
			next[d]++
		}
	}
	return c
}

// lencode is a dynamic header code length command.
type lencode struct {
	cmd uint16 // code length 0-15, or repeat command 16-18
	arg code   // repeat count in extra bits
}

// lenCodes returns the header commands describing the code lengths
// in c.  Zero lengths are sent as runs of 3-10 or 11-138, other
// lengths once followed by repeats of 3-6.
func lenCodes(c []code) []lencode {
	d := make([]lencode, 0, 64)
	for i := 0; i < len(c); {
		v := c[i].nbit
		n := 1
		for i+n < len(c) && c[i+n].nbit == v {
			n++
		}
		i += n
		if v == 0 {
			for n >= 11 {
				k := min(n, 138)
				d = append(d, lencode{18, code{uint16(k - 11), 7}})
				n -= k
			}
			if n >= 3 {
				d = append(d, lencode{17, code{uint16(n - 3), 3}})
				n = 0
			}
		} else {
			d = append(d, lencode{cmd: uint16(v)})
			for n--; n >= 3; {
				k := min(n, 6)
				d = append(d, lencode{16, code{uint16(k - 3), 2}})
				n -= k
			}
		}
		for ; n > 0; n-- {
			d = append(d, lencode{cmd: uint16(v)})
		}
	}
	return d
}

// hcorder is the order of code length code lengths in the header.
var hcorder = [nhcodes]byte{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lcode returns the length code and extra bits for a repeat of rlen
// bytes, 3 to 258.
func lcode(rlen int) (uint16, code) {
	switch {
	case rlen < minMatch || rlen > maxMatch:
		panic("raster: invalid repeat length")
	case rlen == maxMatch:
		return 285, code{}
	}
	r := uint16(rlen - minMatch)
	n := uint16(0)
	if r >= 8 {
		n = uint16(bits.Len16(r)) - 3
	}
	return 257 + n<<2 + r>>n, code{r & (1<<n - 1), byte(n)}
}

// dcode returns the distance code and extra bits for dist, 1 to 32768.
func dcode(dist int) (uint16, code) {
	if dist < 1 || dist > maxDist {
		panic("raster: invalid repeat distance")
	}
	d := uint16(dist - 1)
	n := uint16(0)
	if d >= 4 {
		n = uint16(bits.Len16(d)) - 2
	}
	return n<<1 + d>>n, code{d & (1<<n - 1), byte(n)}
}
