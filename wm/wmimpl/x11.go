// based on xgbutil examples

package wmimpl

import (
	"encoding/binary"
	"image"
	"strings"

	"github.com/jezek/xgb/xproto"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/srlehn/xgbutil"
	"github.com/srlehn/xgbutil/icccm"
	"github.com/srlehn/xgbutil/xgraphics"
	"github.com/srlehn/xgbutil/xprop"
	"golang.org/x/image/colornames"

	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
)

var _ wm.Conn = (*connX11)(nil)

// connX11 ...
type connX11 struct {
	*xgbutil.XUtil
	visual    *xproto.VisualInfo
	byteOrder binary.ByteOrder
	render    *renderX11
}

func newConnDisplay(displayVar string) (*connX11, error) {
	// Connect to the X server using the DISPLAY environment variable if empty.
	xu, err := xgbutil.NewConnDisplay(displayVar)
	if err != nil {
		return nil, errors.New(err)
	}
	c := &connX11{XUtil: xu, byteOrder: binary.LittleEndian}
	if xproto.Setup(xu.Conn()).ImageByteOrder == xproto.ImageOrderMSBFirst {
		c.byteOrder = binary.BigEndian
	}
	scr := xu.Screen()
	for _, d := range scr.AllowedDepths {
		for i, v := range d.Visuals {
			if v.VisualId == scr.RootVisual {
				c.visual = &d.Visuals[i]
			}
		}
	}
	// missing render extension only disables the accelerated path
	c.render, _ = newRender(c)
	return c, nil
}

func (c *connX11) Close() error {
	if c == nil || c.XUtil == nil {
		return nil
	}
	conn := c.XUtil.Conn()
	if conn == nil {
		return nil
	}
	conn.Close()
	return nil
}

// Conn returns the *xgbutil.XUtil.
func (c *connX11) Conn() any {
	if c == nil {
		return nil
	}
	return c.XUtil
}

func (c *connX11) Root() wm.Window { return wm.Window(c.RootWin()) }

func (c *connX11) ScreenSize() (int, int) {
	scr := c.Screen()
	return int(scr.WidthInPixels), int(scr.HeightInPixels)
}

func (c *connX11) Depth() uint8 { return c.Screen().RootDepth }

// ParseColor accepts #rgb and #rrggbb values, the common color names and
// anything the server color database knows.
func (c *connX11) ParseColor(spec string) (wm.Color, error) {
	spec = strings.TrimSpace(spec)
	if len(spec) == 0 {
		return wm.Color{}, errors.New(`empty color`)
	}
	if strings.HasPrefix(spec, `#`) {
		col, err := colorful.Hex(spec)
		if err != nil {
			return wm.Color{}, errors.New(err)
		}
		r, g, b := col.RGB255()
		return c.color(r, g, b), nil
	}
	if col, ok := colornames.Map[strings.ToLower(strings.ReplaceAll(spec, ` `, ``))]; ok {
		return c.color(col.R, col.G, col.B), nil
	}
	repl, err := xproto.LookupColor(c.XUtil.Conn(), c.Screen().DefaultColormap, uint16(len(spec)), spec).Reply()
	if err != nil {
		return wm.Color{}, errors.WrapPrefix(err, `unknown color `+spec, 0)
	}
	return c.color(uint8(repl.ExactRed>>8), uint8(repl.ExactGreen>>8), uint8(repl.ExactBlue>>8)), nil
}

func (c *connX11) color(r, g, b uint8) wm.Color {
	return wm.Color{Pixel: c.RGBPixel(r, g, b), R: r, G: g, B: b}
}

// RGBPixel packs r, g, b according to the masks of the root visual.
func (c *connX11) RGBPixel(r, g, b uint8) uint32 {
	if c.visual == nil {
		return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
	return maskChannel(r, c.visual.RedMask) |
		maskChannel(g, c.visual.GreenMask) |
		maskChannel(b, c.visual.BlueMask)
}

func maskChannel(v uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	var shift, bits uint
	for mask>>shift&1 == 0 {
		shift++
	}
	for mask>>(shift+bits)&1 == 1 {
		bits++
	}
	val := uint32(v)
	if bits < 8 {
		val >>= 8 - bits
	} else {
		val <<= bits - 8
	}
	return val << shift & mask
}

func (c *connX11) CreatePixmap(width, height int, depth uint8) (wm.Pixmap, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return wm.None, errors.Errorf(`invalid pixmap size %dx%d`, width, height)
	}
	pid, err := xproto.NewPixmapId(c.XUtil.Conn())
	if err != nil {
		return wm.None, errors.New(err)
	}
	err = xproto.CreatePixmapChecked(c.XUtil.Conn(), depth, pid, xproto.Drawable(c.RootWin()), uint16(width), uint16(height)).Check()
	if err != nil {
		return wm.None, errors.New(err)
	}
	return wm.Pixmap(pid), nil
}

func (c *connX11) FreePixmap(p wm.Pixmap) { xproto.FreePixmap(c.XUtil.Conn(), xproto.Pixmap(p)) }

func (c *connX11) CreateGC(d wm.Drawable) (wm.GC, error) {
	gc, err := xproto.NewGcontextId(c.XUtil.Conn())
	if err != nil {
		return wm.None, errors.New(err)
	}
	err = xproto.CreateGCChecked(c.XUtil.Conn(), gc, xproto.Drawable(d), xproto.GcGraphicsExposures, []uint32{0}).Check()
	if err != nil {
		return wm.None, errors.New(err)
	}
	return wm.GC(gc), nil
}

func (c *connX11) FreeGC(gc wm.GC) { xproto.FreeGC(c.XUtil.Conn(), xproto.Gcontext(gc)) }

func (c *connX11) SetForeground(gc wm.GC, pixel uint32) {
	xproto.ChangeGC(c.XUtil.Conn(), xproto.Gcontext(gc), xproto.GcForeground, []uint32{pixel})
}

func (c *connX11) FillRectangle(d wm.Drawable, gc wm.GC, x, y, width, height int) {
	xproto.PolyFillRectangle(c.XUtil.Conn(), xproto.Drawable(d), xproto.Gcontext(gc), []xproto.Rectangle{{
		X: int16(x), Y: int16(y), Width: uint16(width), Height: uint16(height),
	}})
}

func (c *connX11) DrawLine(d wm.Drawable, gc wm.GC, x1, y1, x2, y2 int) {
	xproto.PolySegment(c.XUtil.Conn(), xproto.Drawable(d), xproto.Gcontext(gc), []xproto.Segment{{
		X1: int16(x1), Y1: int16(y1), X2: int16(x2), Y2: int16(y2),
	}})
}

func (c *connX11) DrawPoints(d wm.Drawable, gc wm.GC, pts []image.Point) {
	if len(pts) == 0 {
		return
	}
	xpts := make([]xproto.Point, len(pts))
	for i, p := range pts {
		xpts[i] = xproto.Point{X: int16(p.X), Y: int16(p.Y)}
	}
	xproto.PolyPoint(c.XUtil.Conn(), xproto.CoordModeOrigin, xproto.Drawable(d), xproto.Gcontext(gc), xpts)
}

// PutImage uploads pixels in ZPixmap format at the root depth, split into
// row bands fitting the maximum request length.
func (c *connX11) PutImage(d wm.Drawable, gc wm.GC, width, height int, pixels []uint32) error {
	return c.putImage(d, gc, c.Depth(), width, height, pixels)
}

func (c *connX11) putImage(d wm.Drawable, gc wm.GC, depth uint8, width, height int, pixels []uint32) error {
	if len(pixels) != width*height {
		return errors.Errorf(`pixel count %d does not match %dx%d`, len(pixels), width, height)
	}
	if bpp := c.bitsPerPixel(depth); bpp != 32 {
		return errors.Errorf(`unsupported pixmap format: depth %d with %d bits per pixel`, depth, bpp)
	}
	// request header is 6 units of 4 bytes
	maxBytes := (int(xproto.Setup(c.XUtil.Conn()).MaximumRequestLength) - 6) * 4
	rows := max(1, maxBytes/(4*width))
	buf := make([]byte, 4*width*min(rows, height))
	for y := 0; y < height; y += rows {
		n := min(rows, height-y)
		data := buf[:4*width*n]
		for i, px := range pixels[y*width : (y+n)*width] {
			c.byteOrder.PutUint32(data[4*i:], px)
		}
		err := xproto.PutImageChecked(c.XUtil.Conn(), xproto.ImageFormatZPixmap, xproto.Drawable(d), xproto.Gcontext(gc),
			uint16(width), uint16(n), 0, int16(y), 0, depth, data).Check()
		if err != nil {
			return errors.New(err)
		}
	}
	return nil
}

func (c *connX11) bitsPerPixel(depth uint8) uint8 {
	for _, f := range xproto.Setup(c.XUtil.Conn()).PixmapFormats {
		if f.Depth == depth {
			return f.BitsPerPixel
		}
	}
	return 0
}

func (c *connX11) CopyArea(src, dst wm.Drawable, gc wm.GC, srcX, srcY, width, height, dstX, dstY int) {
	xproto.CopyArea(c.XUtil.Conn(), xproto.Drawable(src), xproto.Drawable(dst), xproto.Gcontext(gc),
		int16(srcX), int16(srcY), int16(dstX), int16(dstY), uint16(width), uint16(height))
}

func (c *connX11) SetClipMask(gc wm.GC, mask wm.Pixmap) {
	xproto.ChangeGC(c.XUtil.Conn(), xproto.Gcontext(gc), xproto.GcClipMask, []uint32{uint32(mask)})
}

func (c *connX11) SetClipOrigin(gc wm.GC, x, y int) {
	xproto.ChangeGC(c.XUtil.Conn(), xproto.Gcontext(gc), xproto.GcClipOriginX|xproto.GcClipOriginY, []uint32{uint32(int32(x)), uint32(int32(y))})
}

func (c *connX11) SetWindowBackground(w wm.Window, bg wm.Background) {
	if bg.Solid {
		xproto.ChangeWindowAttributes(c.XUtil.Conn(), xproto.Window(w),
			xproto.CwBackPixmap|xproto.CwBackPixel|xproto.CwBorderPixel,
			[]uint32{xproto.BackPixmapNone, bg.Pixel, uint32(bg.Border)})
		return
	}
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), xproto.Window(w), xproto.CwBackPixmap, []uint32{uint32(bg.Pixmap)})
}

func (c *connX11) ClearWindow(w wm.Window) {
	xproto.ClearArea(c.XUtil.Conn(), false, xproto.Window(w), 0, 0, 0, 0)
}

// SetIconSizes publishes a single WM_ICON_SIZE entry.
func (c *connX11) SetIconSizes(w wm.Window, minSize, maxSize, inc int) error {
	err := xprop.ChangeProp32(c.XUtil, xproto.Window(w), `WM_ICON_SIZE`, `WM_ICON_SIZE`,
		uint(minSize), uint(minSize), uint(maxSize), uint(maxSize), uint(inc), uint(inc))
	if err != nil {
		return errors.New(err)
	}
	return nil
}

func (c *connX11) NetWMIcon(w wm.Window) ([]uint32, error) {
	nums, err := xprop.PropValNums(xprop.GetProperty(c.XUtil, xproto.Window(w), `_NET_WM_ICON`))
	if err != nil {
		return nil, errors.New(err)
	}
	data := make([]uint32, len(nums))
	for i, n := range nums {
		data[i] = uint32(n)
	}
	return data, nil
}

func (c *connX11) HintsIcon(w wm.Window) (wm.Pixmap, wm.Pixmap, error) {
	hints, err := icccm.WmHintsGet(c.XUtil, xproto.Window(w))
	if err != nil {
		return wm.None, wm.None, errors.New(err)
	}
	if hints == nil {
		return wm.None, wm.None, errors.New(`nil icccm.WmHintsGet() hints`)
	}
	var icon, mask wm.Pixmap
	if hints.Flags&icccm.HintIconPixmap > 0 {
		icon = wm.Pixmap(hints.IconPixmap)
	}
	if hints.Flags&icccm.HintIconMask > 0 {
		mask = wm.Pixmap(hints.IconMask)
	}
	return icon, mask, nil
}

// Snapshot reads d, taking transparency from mask if set. Depth 1
// drawables are read as black on white.
func (c *connX11) Snapshot(d wm.Drawable, mask wm.Pixmap) (image.Image, error) {
	ximg, err := xgraphics.NewIcccmIcon(c.XUtil, xproto.Pixmap(d), xproto.Pixmap(mask))
	if err != nil {
		return nil, errors.New(err)
	}
	return ximg, nil
}
