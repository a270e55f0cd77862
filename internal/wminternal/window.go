package wminternal

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
)

var (
	_ wm.Conn     = (*Recorder)(nil)
	_ wm.Renderer = (*Recorder)(nil)
)

// Recorder is an in-memory wm.Conn that counts resource allocations and
// surface mutations. It is used by package tests in place of an X server.
type Recorder struct {
	Width, Height int
	Render        bool // report the render capability

	nextID uint32

	PixmapsLive  map[wm.Pixmap]image.Point
	GCsLive      map[wm.GC]struct{}
	PicturesLive map[wm.Picture]image.Point

	PixmapAllocs, PixmapFrees   int
	GCAllocs, GCFrees           int
	PictureAllocs, PictureFrees int

	// drawing primitive calls, any target
	DrawCalls int
	// SetWindowBackground calls
	BackgroundChanges int
	Clears            int
	LastBackground    wm.Background

	Foreground map[wm.GC]uint32
	clip       map[wm.GC]wm.Pixmap
	Images     map[wm.Drawable][]uint32
	Points     map[wm.Drawable][]image.Point
	Lines      map[wm.Drawable][]LineOp
	Fills      map[wm.Drawable][]FillOp
	Copies     []CopyOp
	Composites []CompositeOp
	IconSizes  [3]int

	NetWMIcons map[wm.Window][]uint32
	Hints      map[wm.Window][2]wm.Pixmap
	Snapshots  map[wm.Drawable]image.Image
	NamedColor map[string]color.RGBA
}

type LineOp struct {
	Pixel          uint32
	X1, Y1, X2, Y2 int
}

type FillOp struct {
	Pixel uint32
	Rect  image.Rectangle
}

type CopyOp struct {
	Src, Dst   wm.Drawable
	ClipMask   wm.Pixmap
	Rect       image.Rectangle // destination
	SrcX, SrcY int
}

type CompositeOp struct {
	Src  wm.Picture
	Dst  wm.Drawable
	Rect image.Rectangle
}

func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		Width:        width,
		Height:       height,
		nextID:       0x100,
		PixmapsLive:  make(map[wm.Pixmap]image.Point),
		GCsLive:      make(map[wm.GC]struct{}),
		PicturesLive: make(map[wm.Picture]image.Point),
		Foreground:   make(map[wm.GC]uint32),
		clip:         make(map[wm.GC]wm.Pixmap),
		Images:       make(map[wm.Drawable][]uint32),
		Points:       make(map[wm.Drawable][]image.Point),
		Lines:        make(map[wm.Drawable][]LineOp),
		Fills:        make(map[wm.Drawable][]FillOp),
		NetWMIcons:   make(map[wm.Window][]uint32),
		Hints:        make(map[wm.Window][2]wm.Pixmap),
		Snapshots:    make(map[wm.Drawable]image.Image),
		NamedColor: map[string]color.RGBA{
			`black`: {0, 0, 0, 255},
			`white`: {255, 255, 255, 255},
			`red`:   {255, 0, 0, 255},
			`green`: {0, 128, 0, 255},
			`blue`:  {0, 0, 255, 255},
		},
	}
}

func (r *Recorder) id() uint32 { r.nextID++; return r.nextID }

// Live reports the number of pixmaps, GCs and pictures not yet freed.
func (r *Recorder) Live() (pixmaps, gcs, pictures int) {
	return len(r.PixmapsLive), len(r.GCsLive), len(r.PicturesLive)
}

func (r *Recorder) Close() error           { return nil }
func (r *Recorder) Root() wm.Window        { return 1 }
func (r *Recorder) Depth() uint8           { return 24 }
func (r *Recorder) HasRender() bool        { return r.Render }
func (r *Recorder) ScreenSize() (int, int) { return r.Width, r.Height }

func (r *Recorder) ParseColor(spec string) (wm.Color, error) {
	spec = strings.TrimSpace(spec)
	var c color.RGBA
	if strings.HasPrefix(spec, `#`) && len(spec) == 7 {
		v, err := strconv.ParseUint(spec[1:], 16, 32)
		if err != nil {
			return wm.Color{}, errors.New(err)
		}
		c = color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
	} else {
		var ok bool
		c, ok = r.NamedColor[strings.ToLower(spec)]
		if !ok {
			return wm.Color{}, errors.Errorf(`unknown color %q`, spec)
		}
	}
	return wm.Color{Pixel: r.RGBPixel(c.R, c.G, c.B), R: c.R, G: c.G, B: c.B}, nil
}

func (r *Recorder) RGBPixel(red, green, blue uint8) uint32 {
	return uint32(red)<<16 | uint32(green)<<8 | uint32(blue)
}

func (r *Recorder) CreatePixmap(width, height int, depth uint8) (wm.Pixmap, error) {
	if width <= 0 || height <= 0 {
		return wm.None, errors.Errorf(`invalid pixmap size %dx%d`, width, height)
	}
	p := wm.Pixmap(r.id())
	r.PixmapsLive[p] = image.Pt(width, height)
	r.PixmapAllocs++
	return p, nil
}

func (r *Recorder) FreePixmap(p wm.Pixmap) {
	if _, ok := r.PixmapsLive[p]; !ok {
		panic(fmt.Sprintf(`free of unknown pixmap %d`, p))
	}
	delete(r.PixmapsLive, p)
	r.PixmapFrees++
}

func (r *Recorder) CreateGC(d wm.Drawable) (wm.GC, error) {
	gc := wm.GC(r.id())
	r.GCsLive[gc] = struct{}{}
	r.GCAllocs++
	return gc, nil
}

func (r *Recorder) FreeGC(gc wm.GC) {
	if _, ok := r.GCsLive[gc]; !ok {
		panic(fmt.Sprintf(`free of unknown gc %d`, gc))
	}
	delete(r.GCsLive, gc)
	r.GCFrees++
}

func (r *Recorder) SetForeground(gc wm.GC, pixel uint32) { r.Foreground[gc] = pixel }

func (r *Recorder) FillRectangle(d wm.Drawable, gc wm.GC, x, y, width, height int) {
	r.DrawCalls++
	r.Fills[d] = append(r.Fills[d], FillOp{Pixel: r.Foreground[gc], Rect: image.Rect(x, y, x+width, y+height)})
}

func (r *Recorder) DrawLine(d wm.Drawable, gc wm.GC, x1, y1, x2, y2 int) {
	r.DrawCalls++
	r.Lines[d] = append(r.Lines[d], LineOp{Pixel: r.Foreground[gc], X1: x1, Y1: y1, X2: x2, Y2: y2})
}

func (r *Recorder) DrawPoints(d wm.Drawable, gc wm.GC, pts []image.Point) {
	r.DrawCalls++
	r.Points[d] = append(r.Points[d], pts...)
}

func (r *Recorder) PutImage(d wm.Drawable, gc wm.GC, width, height int, pixels []uint32) error {
	r.DrawCalls++
	if len(pixels) != width*height {
		return errors.Errorf(`pixel count %d does not match %dx%d`, len(pixels), width, height)
	}
	r.Images[d] = append([]uint32(nil), pixels...)
	return nil
}

func (r *Recorder) CopyArea(src, dst wm.Drawable, gc wm.GC, srcX, srcY, width, height, dstX, dstY int) {
	r.DrawCalls++
	r.Copies = append(r.Copies, CopyOp{
		Src:      src,
		Dst:      dst,
		ClipMask: r.clip[gc],
		Rect:     image.Rect(dstX, dstY, dstX+width, dstY+height),
		SrcX:     srcX,
		SrcY:     srcY,
	})
}

func (r *Recorder) SetClipMask(gc wm.GC, mask wm.Pixmap) { r.clip[gc] = mask }

func (r *Recorder) SetClipOrigin(gc wm.GC, x, y int) {}

func (r *Recorder) SetWindowBackground(w wm.Window, bg wm.Background) {
	r.BackgroundChanges++
	r.LastBackground = bg
}

func (r *Recorder) ClearWindow(w wm.Window) { r.Clears++ }

func (r *Recorder) SetIconSizes(w wm.Window, minSize, maxSize, inc int) error {
	r.IconSizes = [3]int{minSize, maxSize, inc}
	return nil
}

func (r *Recorder) NetWMIcon(w wm.Window) ([]uint32, error) {
	data, ok := r.NetWMIcons[w]
	if !ok {
		return nil, errors.New(`no _NET_WM_ICON property`)
	}
	return data, nil
}

func (r *Recorder) HintsIcon(w wm.Window) (wm.Pixmap, wm.Pixmap, error) {
	h, ok := r.Hints[w]
	if !ok {
		return wm.None, wm.None, errors.New(`no WM_HINTS property`)
	}
	return h[0], h[1], nil
}

func (r *Recorder) Snapshot(d wm.Drawable, mask wm.Pixmap) (image.Image, error) {
	img, ok := r.Snapshots[d]
	if !ok {
		return nil, errors.New(consts.ErrNilImage)
	}
	return img, nil
}

func (r *Recorder) CreatePicture(width, height int, argb []uint32) (wm.Picture, error) {
	if !r.Render {
		return wm.None, errors.New(consts.ErrNoRender)
	}
	p := wm.Picture(r.id())
	r.PicturesLive[p] = image.Pt(width, height)
	r.PictureAllocs++
	return p, nil
}

func (r *Recorder) Composite(src wm.Picture, srcWidth, srcHeight int, dst wm.Drawable, x, y, width, height int) error {
	if _, ok := r.PicturesLive[src]; !ok {
		return errors.Errorf(`composite of unknown picture %d`, src)
	}
	r.DrawCalls++
	r.Composites = append(r.Composites, CompositeOp{Src: src, Dst: dst, Rect: image.Rect(x, y, x+width, y+height)})
	return nil
}

func (r *Recorder) FreePicture(p wm.Picture) {
	if _, ok := r.PicturesLive[p]; !ok {
		panic(fmt.Sprintf(`free of unknown picture %d`, p))
	}
	delete(r.PicturesLive, p)
	r.PictureFrees++
}

var _ wm.Implementation = (*dummyImplementation)(nil)

type dummyImplementation struct{ rec *Recorder }

// DummyImpl returns a wm.Implementation handing out rec for every display.
func DummyImpl(rec *Recorder) wm.Implementation { return &dummyImplementation{rec: rec} }

func (i *dummyImplementation) Name() string { return `dummy` }

func (i *dummyImplementation) Conn(display string) (wm.Conn, error) {
	if i.rec == nil {
		return nil, errors.New(consts.ErrNotImplemented)
	}
	return i.rec, nil
}
