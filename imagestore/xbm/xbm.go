// Package xbm decodes X BitMap images into 1-bit bitmaps.
package xbm

import (
	"image"
	"image/color"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/srlehn/deskdeco/internal/errors"
)

func init() {
	image.RegisterFormat(`xbm`, `#define `, Decode, DecodeConfig)
}

var _ image.Image = (*Bitmap)(nil)

// Bitmap is a 1-bit image. Rows are padded to whole bytes, bits are stored
// least significant first. A set bit is opaque foreground.
type Bitmap struct {
	Width, Height int
	Stride        int
	Bits          []byte
}

func (b *Bitmap) ColorModel() color.Model { return color.AlphaModel }

func (b *Bitmap) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

func (b *Bitmap) At(x, y int) color.Color {
	if b.IsSet(x, y) {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

// IsSet reports whether the pixel at (x, y) is foreground.
func (b *Bitmap) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Bits[y*b.Stride+x>>3]&(1<<(uint(x)&7)) != 0
}

const maxDimension = 1 << 15

var (
	reDefine = regexp.MustCompile(`#define\s+\S*?(width|height)\s+(\d+)`)
	reBits   = regexp.MustCompile(`(?s)\{(.*)\}`)
	reShort  = regexp.MustCompile(`\bshort\b`)
)

func Decode(r io.Reader) (image.Image, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err)
	}
	w, h, err := dimensions(string(src))
	if err != nil {
		return nil, err
	}
	m := reBits.FindStringSubmatch(string(src))
	if m == nil {
		return nil, errors.New(`xbm: missing bits array`)
	}
	stride := (w + 7) / 8
	// X10 files use 16 bit words
	x10 := reShort.MatchString(string(src))
	if x10 {
		stride = (w + 15) / 16 * 2
	}
	var toks []string
	for _, tok := range strings.Split(m[1], `,`) {
		if tok = strings.TrimSpace(tok); len(tok) > 0 {
			toks = append(toks, tok)
		}
	}
	size := len(toks)
	if x10 {
		size *= 2
	}
	if size < stride*h {
		return nil, errors.Errorf(`xbm: %d bytes for %dx%d bitmap`, size, w, h)
	}
	bits := make([]byte, 0, size)
	for _, tok := range toks {
		v, err := strconv.ParseUint(tok, 0, 16)
		if err != nil {
			return nil, errors.Errorf(`xbm: invalid value %q`, tok)
		}
		if x10 {
			bits = append(bits, byte(v), byte(v>>8))
			continue
		}
		bits = append(bits, byte(v))
	}
	return &Bitmap{Width: w, Height: h, Stride: stride, Bits: bits[:stride*h]}, nil
}

func DecodeConfig(r io.Reader) (image.Config, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, errors.New(err)
	}
	w, h, err := dimensions(string(src))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.AlphaModel, Width: w, Height: h}, nil
}

func dimensions(src string) (w, h int, _ error) {
	for _, m := range reDefine.FindAllStringSubmatch(src, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		switch m[1] {
		case `width`:
			w = n
		case `height`:
			h = n
		}
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.New(`xbm: missing dimensions`)
	}
	if w > maxDimension || h > maxDimension {
		return 0, 0, errors.Errorf(`xbm: dimensions %dx%d too large`, w, h)
	}
	return w, h, nil
}
