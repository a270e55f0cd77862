// Package xpm decodes X PixMap images.
//
// Both the file form (a C string array) and an in-memory table of the
// quoted lines are accepted.
package xpm

import (
	"bufio"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/srlehn/deskdeco/internal/errors"
)

const magic = `/* XPM */`

func init() {
	image.RegisterFormat(`xpm`, magic, Decode, DecodeConfig)
}

// Decode reads an XPM file.
func Decode(r io.Reader) (image.Image, error) {
	lines, err := readStrings(r)
	if err != nil {
		return nil, err
	}
	return DecodeLines(lines)
}

// DecodeConfig returns the dimensions without decoding the pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	lines, err := readStrings(r)
	if err != nil {
		return image.Config{}, err
	}
	if len(lines) == 0 {
		return image.Config{}, errors.New(`xpm: missing header`)
	}
	h, err := parseHeader(lines[0])
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

const (
	maxDimension     = 1 << 15
	maxColors        = 1 << 16
	maxCharsPerPixel = 8
)

type header struct {
	width, height, colors, cpp int
}

func parseHeader(s string) (header, error) {
	f := strings.Fields(s)
	if len(f) < 4 {
		return header{}, errors.Errorf(`xpm: invalid header %q`, s)
	}
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(f[i])
		if err != nil || n <= 0 {
			return header{}, errors.Errorf(`xpm: invalid header %q`, s)
		}
		v[i] = n
	}
	if v[0] > maxDimension || v[1] > maxDimension || v[2] > maxColors || v[3] > maxCharsPerPixel {
		return header{}, errors.Errorf(`xpm: header values out of range %q`, s)
	}
	return header{width: v[0], height: v[1], colors: v[2], cpp: v[3]}, nil
}

// DecodeLines decodes the already unquoted lines of an XPM image:
// the values line, the color table and the pixel rows.
func DecodeLines(lines []string) (image.Image, error) {
	if len(lines) == 0 {
		return nil, errors.New(`xpm: missing header`)
	}
	h, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}
	if len(lines) < 1+h.colors+h.height {
		return nil, errors.Errorf(`xpm: expected %d lines, got %d`, 1+h.colors+h.height, len(lines))
	}
	palette := make(map[string]color.NRGBA, h.colors)
	for _, l := range lines[1 : 1+h.colors] {
		if len(l) < h.cpp {
			return nil, errors.Errorf(`xpm: short color line %q`, l)
		}
		palette[l[:h.cpp]] = parseColorSpec(l[h.cpp:])
	}
	rows := lines[1+h.colors : 1+h.colors+h.height]
	for y, row := range rows {
		if len(row) < h.width*h.cpp {
			return nil, errors.Errorf(`xpm: short pixel row %d`, y)
		}
	}
	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	for y, row := range rows {
		for x := 0; x < h.width; x++ {
			c, ok := palette[row[x*h.cpp:(x+1)*h.cpp]]
			if !ok {
				continue
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img, nil
}

// parseColorSpec picks the color visual ("c") value, falling back to the
// grayscale and mono keys.
func parseColorSpec(s string) color.NRGBA {
	f := strings.Fields(s)
	values := make(map[string]string)
	var key string
	for _, tok := range f {
		switch tok {
		case `c`, `m`, `g`, `g4`, `s`:
			key = tok
			continue
		}
		if len(key) == 0 {
			continue
		}
		if v, ok := values[key]; ok {
			values[key] = v + ` ` + tok
		} else {
			values[key] = tok
		}
	}
	for _, k := range []string{`c`, `g`, `g4`, `m`} {
		if v, ok := values[k]; ok {
			return lookupColor(v)
		}
	}
	return color.NRGBA{A: 0xff}
}

func lookupColor(v string) color.NRGBA {
	if strings.EqualFold(v, `none`) {
		return color.NRGBA{}
	}
	if strings.HasPrefix(v, `#`) {
		hex := v[1:]
		var digits int
		switch len(hex) {
		case 3, 6, 9, 12:
			digits = len(hex) / 3
		default:
			return color.NRGBA{A: 0xff}
		}
		var c [3]uint8
		for i := range c {
			n, err := strconv.ParseUint(hex[i*digits:(i+1)*digits], 16, 16)
			if err != nil {
				return color.NRGBA{A: 0xff}
			}
			// keep the most significant byte
			switch digits {
			case 1:
				c[i] = uint8(n * 0x11)
			case 2:
				c[i] = uint8(n)
			default:
				c[i] = uint8(n >> (uint(digits-2) * 4))
			}
		}
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
	}
	name := strings.ToLower(strings.ReplaceAll(v, ` `, ``))
	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	return color.NRGBA{A: 0xff}
}

// readStrings collects the contents of all double quoted strings.
func readStrings(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var (
		lines   []string
		cur     strings.Builder
		inStr   bool
		inCmt   bool
		prev    byte
		escaped bool
	)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err)
		}
		switch {
		case inCmt:
			if prev == '*' && b == '/' {
				inCmt = false
			}
		case inStr:
			if escaped {
				cur.WriteByte(b)
				escaped = false
			} else if b == '\\' {
				escaped = true
			} else if b == '"' {
				inStr = false
				lines = append(lines, cur.String())
				cur.Reset()
			} else {
				cur.WriteByte(b)
			}
		case b == '"':
			inStr = true
		case prev == '/' && b == '*':
			inCmt = true
			b = 0 // a following '/' must not close the comment
		}
		prev = b
	}
	if inStr {
		return nil, errors.New(`xpm: unterminated string`)
	}
	return lines, nil
}
