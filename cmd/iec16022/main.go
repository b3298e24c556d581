package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/unixdj/iec16022"
	"github.com/unixdj/iec16022/encodation"
	"github.com/unixdj/iec16022/raster"

	"github.com/google/renameio"
	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

var g = struct {
	scale   int              // pixels per module
	border  int              // quiet zone
	palette *[2]color.Color  // palette
	rev     bool             // reverse colours
	fn      string           // output filename
	in      string           // input filename
	format  *iec16022.Format // output format
	size    size             // symbol size
	shape   iec16022.Shape   // automatic size shape
	app     appendSpec       // structured append
	opt     raster.Options   // image options
	comp    compression      // PNG compression
	bg, fg  colour           // colours
	colSet  bool             // colour set
	trans   bool             // transparent background
	latin1  bool             // convert input to Latin-1
	gs1     bool             // GS1 data
}{
	bg:     colour{0xff, 0xff, 0xff, 0xff},
	fg:     colour{0x00, 0x00, 0x00, 0xff},
	border: iec16022.DefaultBorder,
}

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "DataMatrix ECC200 generator\nUsage: ", cl.Program(),
		" [options] [string ...]", `
If no string is given, data is read from standard input or the file
given with -f, and the final newline is stripped.  Each string is
encoded in a separate symbol.

`)
	cl.PrintOptions(w)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`iec16022 version 0.1.0
Copyright (c) 2024 Vadim Vygonets`)
	os.Exit(0)
}

// A size is a symbol size flag value.
type size struct{ w, h int }

func (s *size) String() string {
	if s.w == 0 {
		return "auto"
	}
	return fmt.Sprintf("%dx%d", s.w, s.h)
}

func (s *size) Set(v string, _ getopt.Option) error {
	if v == "auto" {
		*s = size{}
		return nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		hs = ws // square
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("%q: bad size", v)
	}
	*s = size{w, h}
	return nil
}

// compression is the PNG compression flag value.
type compression struct{ c raster.Compression }

func (c *compression) String() string { return c.c.String() }

func (c *compression) Set(v string, _ getopt.Option) (err error) {
	c.c, err = raster.ParseCompression(v)
	return err
}

// appendSpec is the structured append flag value.
type appendSpec struct{ a *encodation.Append }

func (a *appendSpec) String() string {
	if a.a == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d.%d", a.a.Index, a.a.Count,
		a.a.FileID[0], a.a.FileID[1])
}

func (a *appendSpec) Set(v string, _ getopt.Option) error {
	var sa encodation.Append
	sa.FileID = [2]byte{1, 1}
	f := strings.Split(v, "/")
	if len(f) < 2 || len(f) > 3 {
		return fmt.Errorf("%q: bad structured append spec", v)
	}
	var err error
	if sa.Index, err = strconv.Atoi(f[0]); err != nil {
		return err
	}
	if sa.Count, err = strconv.Atoi(f[1]); err != nil {
		return err
	}
	if len(f) == 3 {
		id1, id2, _ := strings.Cut(f[2], ".")
		for i, s := range []string{id1, id2} {
			n, err := strconv.ParseUint(s, 10, 8)
			if err != nil {
				return fmt.Errorf("%q: bad file ID", v)
			}
			sa.FileID[i] = byte(n)
		}
	}
	a.a = &sa
	return nil
}

// A colour is a colour flag value.
type colour color.NRGBA

var colourNames = map[string]colour{
	"black":       {0x00, 0x00, 0x00, 0xff},
	"white":       {0xff, 0xff, 0xff, 0xff},
	"red":         {0xff, 0x00, 0x00, 0xff},
	"green":       {0x00, 0xff, 0x00, 0xff},
	"blue":        {0x00, 0x00, 0xff, 0xff},
	"yellow":      {0xff, 0xff, 0x00, 0xff},
	"cyan":        {0x00, 0xff, 0xff, 0xff},
	"magenta":     {0xff, 0x00, 0xff, 0xff},
	"gray":        {0xbe, 0xbe, 0xbe, 0xff},
	"navy":        {0x00, 0x00, 0x80, 0xff},
	"transparent": {0x00, 0x00, 0x00, 0x00},
}

func (c *colour) String() string {
	for name, v := range colourNames {
		if v == *c {
			return name
		}
	}
	b := []byte{c.R, c.G, c.B, c.A}
	if c.A == 0xff {
		b = b[:3]
	}
	return hex.EncodeToString(b)
}

// Set parses a colour name or 3, 4, 6 or 8 hex digits.  Short forms
// double each digit.  Alpha defaults to opaque.
func (c *colour) Set(s string, _ getopt.Option) error {
	g.colSet = true
	if v, ok := colourNames[strings.ToLower(s)]; ok {
		*c = v
		return nil
	}
	digits := s
	if len(s) == 3 || len(s) == 4 {
		var long strings.Builder
		for _, r := range s {
			long.WriteRune(r)
			long.WriteRune(r)
		}
		digits = long.String()
	}
	b, err := hex.DecodeString(digits)
	if err != nil || (len(b) != 3 && len(b) != 4) {
		return fmt.Errorf("%q: bad colour", s)
	}
	b = append(b, 0xff)
	*c = colour{b[0], b[1], b[2], b[3]}
	return nil
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(&g.bg, "background", 'B', `background colour; see -F`,
		"RGB[A]|name")
	getopt.FlagLong(&g.fg, "foreground", 'F', `foreground colour `+
		`as 3, 4, 6 or 8 hex digits or colour name; `+
		`only for image types and eps`, "RGB[A]|name")
	getopt.Flag(&g.trans, 'T', "transparent background")
	getopt.Flag(&g.rev, 'r', "reverse colours")
	getopt.FlagLong(&g.size, "size", 's', `symbol size, e.g. "16x16", `+
		`"32x8" or "auto"`, "WxH")
	shape := getopt.EnumLong("shape", 'q',
		[]string{"any", "square", "rectangle"}, "any",
		"symbol shape for automatic size", "any|square|rectangle")
	getopt.FlagLong(&g.latin1, "latin1", '1',
		"convert UTF-8 input to ISO 8859-1")
	getopt.FlagLong(&g.gs1, "gs1", 'G', "GS1 data: FNC1 in first "+
		"position, GS characters encoded as FNC1")
	getopt.FlagLong(&g.app, "append", 'A', "structured append symbol "+
		"index/count[/id1.id2]", "spec")
	scale := getopt.Unsigned('S', iec16022.DefaultScale,
		&getopt.UnsignedLimit{0, 28, 1, 1 << 12},
		"image pixels (eps: points) per module", "scale")
	getopt.Flag(&g.border, 'b', "quiet zone modules", "border")
	getopt.Flag(&g.opt.Comment, 'C', "comment for png and gif", "text")
	getopt.Flag(&g.opt.Interlace, 'I', "interlaced gif")
	getopt.FlagLong(&g.comp, "compression", 'z', "png compression, "+
		"one of: deflate, huffman, stored", "method")
	getopt.Flag(&g.in, 'f', `input file, or "-" for standard input`, "file")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output; with several strings, "-01", "-02" etc. `+
		`is appended to the filename before suffix`, "file")
	ff := getopt.Enum('t', iec16022.FormatNames(), "", `output format, `+
		`one of: `+strings.Join(iec16022.FormatNames(), ", ")+
		`; if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	g.scale = int(*scale)
	g.shape = iec16022.Shape(strings.Index("asr", (*shape)[:1]))
	g.opt.Compression = g.comp.c
	if g.border < 0 {
		fmt.Fprintln(os.Stderr, "-b must not be negative")
		usage()
	}
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	g.format, _ = iec16022.LookupFormat(*ff)
	if g.fn == "-" {
		g.fn = ""
	}
	if g.trans {
		g.bg.A = 0
		g.colSet = true
	}
	if g.colSet {
		g.palette = &[2]color.Color{color.NRGBA(g.bg), color.NRGBA(g.fg)}
	}
}

// input returns the strings to encode.
func input() ([]string, error) {
	if args := getopt.Args(); len(args) != 0 {
		return args, nil
	}
	r := io.Reader(os.Stdin)
	if g.in != "" && g.in != "-" {
		f, err := os.Open(g.in)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return nil, err
	}
	s, _ := strings.CutSuffix(
		strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	return []string{s}, nil
}

// encode encodes s and renders it in the output format.
func encode(s string) ([]byte, error) {
	if g.latin1 {
		var err error
		if s, err = charmap.ISO8859_1.NewEncoder().String(s); err != nil {
			return nil, fmt.Errorf("conversion to Latin-1: %w", err)
		}
	}
	c, err := iec16022.Encode(s, g.size.w, g.size.h, iec16022.ECC200,
		&iec16022.Options{Shape: g.shape, GS1: g.gs1, Append: g.app.a})
	if err != nil {
		return nil, err
	}
	c.Scale = g.scale
	c.Border = g.border
	c.Palette = g.palette
	c.Reverse = g.rev
	var b bytes.Buffer
	if err := g.format.Encode(c, &b, &g.opt); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// write writes output number i of n.
func write(i, n int, p []byte) error {
	if g.fn == "" {
		_, err := os.Stdout.Write(p)
		return err
	}
	fn := g.fn
	if n > 1 {
		ext := path.Ext(fn)
		fn = fmt.Sprintf("%s-%02d%s", fn[:len(fn)-len(ext)], i+1, ext)
	}
	o, err := renameio.TempFile("", fn)
	if err != nil {
		return err
	}
	defer o.Cleanup()
	if _, err := o.Write(p); err != nil {
		return err
	}
	return o.CloseAtomicallyReplace()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("iec16022: ")
	parseFlags()

	texts, err := input()
	if err != nil {
		log.Fatalln(err)
	}
	out := make([][]byte, len(texts))
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range texts {
		eg.Go(func() error {
			var err error
			if out[i], err = encode(s); err != nil {
				if len(texts) > 1 {
					return fmt.Errorf("string %d: %w", i+1, err)
				}
				return err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if errors.Is(err, iec16022.ErrCapacity) && g.size.w != 0 {
			log.Printf("data does not fit in %v; "+
				"omit -s to choose the size automatically", &g.size)
		}
		log.Fatalln(err)
	}
	for i, p := range out {
		if err := write(i, len(out), p); err != nil {
			log.Fatalln(err)
		}
	}
}
