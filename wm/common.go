// Package wm describes the drawing-surface capabilities the icon and
// background code needs from a window system connection.
package wm

import (
	"image"

	"github.com/srlehn/deskdeco/internal/errors"
)

// resource ids as handed out by the window system
type (
	Window   uint32
	Pixmap   uint32
	GC       uint32
	Picture  uint32
	Drawable uint32
)

const None = 0

func (w Window) Drawable() Drawable { return Drawable(w) }
func (p Pixmap) Drawable() Drawable { return Drawable(p) }

// Color is an allocated display color.
type Color struct {
	Pixel   uint32
	R, G, B uint8
}

// Colors resolves color specifications to display pixels.
type Colors interface {
	ParseColor(spec string) (Color, error)
	RGBPixel(r, g, b uint8) uint32
}

// Background holds the window background attributes set on the root window.
// With Pixmap == None the window background is the solid Pixel.
type Background struct {
	Pixel  uint32
	Pixmap Pixmap
	Border Pixmap // legacy border pixmap slot, only set together with Pixel
	Solid  bool
}

// Conn is the opaque drawing-surface capability set.
type Conn interface {
	Colors

	Close() error
	Root() Window
	ScreenSize() (width, height int)
	Depth() uint8

	CreatePixmap(width, height int, depth uint8) (Pixmap, error)
	FreePixmap(p Pixmap)
	CreateGC(d Drawable) (GC, error)
	FreeGC(gc GC)

	SetForeground(gc GC, pixel uint32)
	FillRectangle(d Drawable, gc GC, x, y, width, height int)
	DrawLine(d Drawable, gc GC, x1, y1, x2, y2 int)
	DrawPoints(d Drawable, gc GC, pts []image.Point)
	// PutImage uploads width*height pixel values in row-major order.
	PutImage(d Drawable, gc GC, width, height int, pixels []uint32) error
	CopyArea(src, dst Drawable, gc GC, srcX, srcY, width, height, dstX, dstY int)
	SetClipMask(gc GC, mask Pixmap)
	SetClipOrigin(gc GC, x, y int)

	SetWindowBackground(w Window, bg Background)
	ClearWindow(w Window)
	SetIconSizes(w Window, minSize, maxSize, inc int) error

	// NetWMIcon returns the raw _NET_WM_ICON cardinals of w.
	NetWMIcon(w Window) ([]uint32, error)
	// HintsIcon returns the WM_HINTS icon pixmap and mask; zero values if unset.
	HintsIcon(w Window) (icon Pixmap, mask Pixmap, err error)
	// Snapshot reads a drawable (with optional 1-bit mask) into an image.
	Snapshot(d Drawable, mask Pixmap) (image.Image, error)
}

// Renderer is the optional hardware accelerated capability (XRender).
// Pictures are resolution independent; scaling happens at composite time.
type Renderer interface {
	HasRender() bool
	// CreatePicture uploads width*height ARGB values (0xAARRGGBB).
	CreatePicture(width, height int, argb []uint32) (Picture, error)
	Composite(src Picture, srcWidth, srcHeight int, dst Drawable, x, y, width, height int) error
	FreePicture(p Picture)
}

// RendererOf returns the Renderer capability of c, or nil.
func RendererOf(c Conn) Renderer {
	r, ok := c.(Renderer)
	if !ok || r == nil || !r.HasRender() {
		return nil
	}
	return r
}

type Implementation interface {
	Name() string
	Conn(display string) (Conn, error)
}

var implem Implementation

func SetImpl(impl Implementation) {
	if impl != nil {
		implem = impl
	}
}

func NewConn(display string) (Conn, error) {
	if implem == nil {
		return nil, errors.New(`no wm.Implementation set`)
	}
	return implem.Conn(display)
}
