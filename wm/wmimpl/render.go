package wmimpl

import (
	"github.com/jezek/xgb/render"
	"github.com/jezek/xgb/xproto"

	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
)

var _ wm.Renderer = (*connX11)(nil)

// renderX11 holds the picture formats of the XRender extension.
type renderX11 struct {
	argb32 render.Pictformat
	root   render.Pictformat
}

func newRender(c *connX11) (*renderX11, error) {
	conn := c.XUtil.Conn()
	if err := render.Init(conn); err != nil {
		return nil, errors.New(err)
	}
	formats, err := render.QueryPictFormats(conn).Reply()
	if err != nil {
		return nil, errors.New(err)
	}
	r := &renderX11{}
	for _, f := range formats.Formats {
		d := f.Direct
		if f.Type == render.PictTypeDirect && f.Depth == 32 &&
			d.AlphaMask == 0xff && d.AlphaShift == 24 &&
			d.RedMask == 0xff && d.RedShift == 16 &&
			d.GreenMask == 0xff && d.GreenShift == 8 &&
			d.BlueMask == 0xff && d.BlueShift == 0 {
			r.argb32 = f.Id
			break
		}
	}
	rootVisual := c.Screen().RootVisual
	for _, s := range formats.Screens {
		for _, d := range s.Depths {
			for _, v := range d.Visuals {
				if v.Visual == rootVisual {
					r.root = v.Format
				}
			}
		}
	}
	if r.argb32 == 0 || r.root == 0 {
		return nil, errors.New(`no usable render picture formats`)
	}
	return r, nil
}

func (c *connX11) HasRender() bool { return c != nil && c.render != nil }

// CreatePicture uploads argb into a depth 32 pixmap and wraps it in a
// picture. The pixmap is released right away, the picture keeps it alive.
func (c *connX11) CreatePicture(width, height int, argb []uint32) (wm.Picture, error) {
	if !c.HasRender() {
		return wm.None, errors.New(consts.ErrNoRender)
	}
	pm, err := c.CreatePixmap(width, height, 32)
	if err != nil {
		return wm.None, err
	}
	defer c.FreePixmap(pm)
	gc, err := c.CreateGC(pm.Drawable())
	if err != nil {
		return wm.None, err
	}
	defer c.FreeGC(gc)

	// render expects premultiplied alpha
	premul := make([]uint32, len(argb))
	for i, px := range argb {
		a := px >> 24
		r := (px >> 16 & 0xff) * a / 0xff
		g := (px >> 8 & 0xff) * a / 0xff
		b := (px & 0xff) * a / 0xff
		premul[i] = a<<24 | r<<16 | g<<8 | b
	}
	if err := c.putImage(pm.Drawable(), gc, 32, width, height, premul); err != nil {
		return wm.None, err
	}

	conn := c.XUtil.Conn()
	pic, err := render.NewPictureId(conn)
	if err != nil {
		return wm.None, errors.New(err)
	}
	err = render.CreatePictureChecked(conn, pic, xproto.Drawable(pm), c.render.argb32, 0, nil).Check()
	if err != nil {
		return wm.None, errors.New(err)
	}
	const filter = `good`
	render.SetPictureFilter(conn, pic, uint16(len(filter)), filter, nil)
	return wm.Picture(pic), nil
}

// Composite draws src (of native size srcWidth x srcHeight) scaled to
// width x height at x, y onto dst.
func (c *connX11) Composite(src wm.Picture, srcWidth, srcHeight int, dst wm.Drawable, x, y, width, height int) error {
	if !c.HasRender() {
		return errors.New(consts.ErrNoRender)
	}
	if width <= 0 || height <= 0 {
		return errors.Errorf(`invalid composite size %dx%d`, width, height)
	}
	conn := c.XUtil.Conn()
	dstPic, err := render.NewPictureId(conn)
	if err != nil {
		return errors.New(err)
	}
	err = render.CreatePictureChecked(conn, dstPic, xproto.Drawable(dst), c.render.root, 0, nil).Check()
	if err != nil {
		return errors.New(err)
	}
	defer render.FreePicture(conn, dstPic)

	// the transform maps destination to source coordinates
	one := render.Fixed(1 << consts.FixedShift)
	render.SetPictureTransform(conn, render.Picture(src), render.Transform{
		Matrix11: render.Fixed((int64(srcWidth) << consts.FixedShift) / int64(width)),
		Matrix22: render.Fixed((int64(srcHeight) << consts.FixedShift) / int64(height)),
		Matrix33: one,
	})
	render.Composite(conn, render.PictOpOver, render.Picture(src), 0, dstPic,
		0, 0, 0, 0, int16(x), int16(y), uint16(width), uint16(height))
	return nil
}

func (c *connX11) FreePicture(p wm.Picture) {
	if c.HasRender() {
		render.FreePicture(c.XUtil.Conn(), render.Picture(p))
	}
}
