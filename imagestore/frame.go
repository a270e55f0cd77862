// Package imagestore turns icon sources (files, in-memory tables, window
// properties, drawables) into raster frames.
package imagestore

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/srlehn/deskdeco/imagestore/xbm"
	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
)

// Frame is one decoded raster of an icon at its native size.
//
// ARGB data holds 4 bytes per pixel in A, R, G, B order. Bitmap data holds
// one bit per pixel, bit index y*Width+x, least significant bit first.
type Frame struct {
	Width, Height int
	Bitmap        bool
	Data          []byte
}

func (f *Frame) Area() int {
	if f == nil {
		return 0
	}
	return f.Width * f.Height
}

// Released reports whether the pixel buffer has been dropped.
func (f *Frame) Released() bool { return f == nil || f.Data == nil }

// Release drops the pixel buffer.
func (f *Frame) Release() {
	if f != nil {
		f.Data = nil
	}
}

// BitSet reports whether the bitmap bit at index is set.
func (f *Frame) BitSet(index int) bool {
	return f.Data[index>>3]&(1<<(uint(index)&7)) != 0
}

// ARGB returns the pixels as 0xAARRGGBB values.
// Set bitmap bits become opaque fg (given as 0xRRGGBB).
func (f *Frame) ARGB(fg uint32) ([]uint32, error) {
	if f.Released() {
		return nil, errors.New(consts.ErrNoPixelData)
	}
	n := f.Width * f.Height
	px := make([]uint32, n)
	for i := 0; i < n; i++ {
		if f.Bitmap {
			if f.BitSet(i) {
				px[i] = 0xff000000 | fg&0xffffff
			}
			continue
		}
		d := f.Data[4*i : 4*i+4]
		px[i] = uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])
	}
	return px, nil
}

// NewFrame allocates an empty frame.
func NewFrame(width, height int, bitmap bool) *Frame {
	f := &Frame{Width: width, Height: height, Bitmap: bitmap}
	if bitmap {
		f.Data = make([]byte, (width*height+7)/8)
	} else {
		f.Data = make([]byte, 4*width*height)
	}
	return f
}

// FrameFromImage converts img. Bitmaps decoded by package xbm keep their
// 1-bit form.
func FrameFromImage(img image.Image) (*Frame, error) {
	if img == nil {
		return nil, errors.New(consts.ErrNilImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.Errorf(`empty image %dx%d`, b.Dx(), b.Dy())
	}
	if bm, ok := img.(*xbm.Bitmap); ok {
		f := NewFrame(bm.Width, bm.Height, true)
		for y := 0; y < bm.Height; y++ {
			for x := 0; x < bm.Width; x++ {
				if bm.IsSet(x, y) {
					i := y*bm.Width + x
					f.Data[i>>3] |= 1 << (uint(i) & 7)
				}
			}
		}
		return f, nil
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	f := NewFrame(b.Dx(), b.Dy(), false)
	for y := 0; y < f.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+4*f.Width]
		for x := 0; x < f.Width; x++ {
			s := row[4*x : 4*x+4]
			d := f.Data[4*(y*f.Width+x):]
			d[0], d[1], d[2], d[3] = s[3], s[0], s[1], s[2]
		}
	}
	return f, nil
}
