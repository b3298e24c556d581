// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iec16022

import (
	"io"

	"github.com/unixdj/iec16022/raster"
)

// A Format is an output format.
type Format struct {
	Name   string // format name
	Ext    string // file name suffix
	Binary bool   // not fit for a terminal
	Encode func(c *Code, w io.Writer, o *raster.Options) error
}

// plain adapts writers that take no options.
func plain(f func(*Code, io.Writer) error) func(*Code, io.Writer, *raster.Options) error {
	return func(c *Code, w io.Writer, _ *raster.Options) error {
		return f(c, w)
	}
}

// Formats lists the supported output formats.
var Formats = []Format{
	{"text", ".txt", false, plain((*Code).EncodeText)},
	{"hex", ".hex", false, plain((*Code).EncodeHex)},
	{"bin", ".bin", true, plain((*Code).EncodeBin)},
	{"eps", ".eps", false, plain((*Code).EncodeEPS)},
	{"png", ".png", true, (*Code).EncodePNG},
	{"gif", ".gif", true, (*Code).EncodeGIF},
	{"pbm", ".pbm", true, plain((*Code).EncodePBM)},
	{"bmp", ".bmp", true, plain((*Code).EncodeBMP)},
	{"utf8", ".txt", false, plain(func(c *Code, w io.Writer) error {
		if !c.isValid() {
			return ErrArgs
		}
		_, err := io.WriteString(w, c.String())
		return err
	})},
	{"info", ".txt", false, plain((*Code).EncodeInfo)},
}

// LookupFormat returns the format called name.
func LookupFormat(name string) (*Format, bool) {
	for i := range Formats {
		if Formats[i].Name == name {
			return &Formats[i], true
		}
	}
	return nil, false
}

// FormatNames returns the names of Formats.
func FormatNames() []string {
	s := make([]string, len(Formats))
	for i, f := range Formats {
		s[i] = f.Name
	}
	return s
}
