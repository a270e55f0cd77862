package icon

import (
	"image"

	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
)

// SelectFrame picks the frame of ic that best fits width x height.
//
// Without a target size the largest frame wins. Otherwise the frame with
// the largest overlap with the target wins (along the nonzero axis if only
// one dimension is given), ties going to the smaller frame.
func SelectFrame(ic *Icon, width, height int) *Frame {
	if ic == nil || len(ic.frames) == 0 {
		return nil
	}
	best := ic.frames[0]
	for _, f := range ic.frames[1:] {
		var bestOverlap, otherOverlap int
		switch {
		case width == 0 && height == 0:
			// compare areas only, larger wins
			bestOverlap, otherOverlap = best.Area(), f.Area()
			if otherOverlap > bestOverlap {
				best = f
			}
			continue
		case width == 0:
			bestOverlap = min(best.Height, height)
			otherOverlap = min(f.Height, height)
		case height == 0:
			bestOverlap = min(best.Width, width)
			otherOverlap = min(f.Width, width)
		default:
			bestOverlap = min(best.Width, width) * min(best.Height, height)
			otherOverlap = min(f.Width, width) * min(f.Height, height)
		}
		if otherOverlap > bestOverlap ||
			(otherOverlap == bestOverlap && f.Area() < best.Area()) {
			best = f
		}
	}
	return best
}

// FitAspect returns the largest size within width x height with the aspect
// ratio of a frameWidth x frameHeight frame. The computation is done in
// 16.16 fixed point; both results are at least 1.
func FitAspect(frameWidth, frameHeight, width, height int) (int, int) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return max(1, width), max(1, height)
	}
	ratio := (int64(frameWidth) << consts.FixedShift) / int64(frameHeight)
	if ratio == 0 {
		ratio = 1
	}
	nw := min(int64(width), (int64(height)*ratio)>>consts.FixedShift)
	nh := min(int64(height), (nw<<consts.FixedShift)/ratio)
	nw = (nh * ratio) >> consts.FixedShift
	return max(1, int(nw)), max(1, int(nh))
}

// Scaler renders frames at output sizes.
type Scaler interface {
	// Scale creates a view of f at width x height.
	Scale(f *Frame, fg uint32, width, height int) (*ScaledView, error)
	// Draw puts v with its top left corner at x, y.
	Draw(v *ScaledView, d wm.Drawable, x, y int) error
	Free(v *ScaledView)
}

var (
	_ Scaler = (*SoftwareScaler)(nil)
	_ Scaler = (*AcceleratedScaler)(nil)
)

// SoftwareScaler samples frames nearest neighbor into a color pixmap and a
// 1-bit clip mask.
type SoftwareScaler struct {
	conn wm.Conn
	gc   wm.GC
}

func NewSoftwareScaler(conn wm.Conn, gc wm.GC) *SoftwareScaler {
	return &SoftwareScaler{conn: conn, gc: gc}
}

func (s *SoftwareScaler) Scale(f *Frame, fg uint32, width, height int) (*ScaledView, error) {
	if s == nil || s.conn == nil {
		return nil, errors.NilReceiver()
	}
	if f == nil || f.Frame == nil {
		return nil, errors.NilParam()
	}
	if f.Released() {
		return nil, errors.New(consts.ErrNoPixelData)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf(`invalid output size %dx%d`, width, height)
	}
	conn := s.conn

	mask, err := conn.CreatePixmap(width, height, 1)
	if err != nil {
		return nil, err
	}
	maskGC, err := conn.CreateGC(mask.Drawable())
	if err != nil {
		conn.FreePixmap(mask)
		return nil, err
	}
	defer conn.FreeGC(maskGC)
	conn.SetForeground(maskGC, 0)
	conn.FillRectangle(mask.Drawable(), maskGC, 0, 0, width, height)
	conn.SetForeground(maskGC, 1)

	scaleX := (int64(f.Width) << consts.FixedShift) / int64(width)
	scaleY := (int64(f.Height) << consts.FixedShift) / int64(height)

	pixels := make([]uint32, width*height)
	points := make([]image.Point, 0, width)
	var srcY int64
	for y := 0; y < height; y++ {
		yIndex := int(srcY>>consts.FixedShift) * f.Width
		points = points[:0]
		var srcX int64
		for x := 0; x < width; x++ {
			index := yIndex + int(srcX>>consts.FixedShift)
			if f.Bitmap {
				if f.BitSet(index) {
					pixels[y*width+x] = fg
					points = append(points, image.Pt(x, y))
				}
			} else {
				d := f.Data[4*index : 4*index+4]
				pixels[y*width+x] = conn.RGBPixel(d[1], d[2], d[3])
				if d[0] >= 128 {
					points = append(points, image.Pt(x, y))
				}
			}
			srcX += scaleX
		}
		if len(points) > 0 {
			conn.DrawPoints(mask.Drawable(), maskGC, points)
		}
		srcY += scaleY
	}

	img, err := conn.CreatePixmap(width, height, conn.Depth())
	if err != nil {
		conn.FreePixmap(mask)
		return nil, err
	}
	if err := conn.PutImage(img.Drawable(), s.gc, width, height, pixels); err != nil {
		conn.FreePixmap(img)
		conn.FreePixmap(mask)
		return nil, err
	}
	return &ScaledView{
		Width:     width,
		Height:    height,
		FG:        fg,
		Image:     img,
		Mask:      mask,
		srcWidth:  f.Width,
		srcHeight: f.Height,
	}, nil
}

func (s *SoftwareScaler) Draw(v *ScaledView, d wm.Drawable, x, y int) error {
	if s == nil || s.conn == nil {
		return errors.NilReceiver()
	}
	if v == nil || v.Image == wm.None {
		return nil
	}
	if v.Mask != wm.None {
		s.conn.SetClipOrigin(s.gc, x, y)
		s.conn.SetClipMask(s.gc, v.Mask)
	}
	s.conn.CopyArea(v.Image.Drawable(), d, s.gc, 0, 0, v.Width, v.Height, x, y)
	if v.Mask != wm.None {
		s.conn.SetClipMask(s.gc, wm.None)
		s.conn.SetClipOrigin(s.gc, 0, 0)
	}
	return nil
}

func (s *SoftwareScaler) Free(v *ScaledView) {
	if s == nil || v == nil {
		return
	}
	if v.Image != wm.None {
		s.conn.FreePixmap(v.Image)
		v.Image = wm.None
	}
	if v.Mask != wm.None {
		s.conn.FreePixmap(v.Mask)
		v.Mask = wm.None
	}
}

// AcceleratedScaler uploads a frame once as a renderer picture and lets the
// renderer scale it on every draw.
type AcceleratedScaler struct {
	ren wm.Renderer
}

// NewAcceleratedScaler returns nil if conn has no usable renderer.
func NewAcceleratedScaler(conn wm.Conn) *AcceleratedScaler {
	ren := wm.RendererOf(conn)
	if ren == nil {
		return nil
	}
	return &AcceleratedScaler{ren: ren}
}

// Scale drops the pixel buffer of f after the upload.
func (s *AcceleratedScaler) Scale(f *Frame, fg uint32, width, height int) (*ScaledView, error) {
	if s == nil || s.ren == nil {
		return nil, errors.NilReceiver()
	}
	if f == nil || f.Frame == nil {
		return nil, errors.NilParam()
	}
	argb, err := f.ARGB(fg)
	if err != nil {
		return nil, err
	}
	pic, err := s.ren.CreatePicture(f.Width, f.Height, argb)
	if err != nil {
		return nil, err
	}
	f.Release()
	return &ScaledView{
		Width:     width,
		Height:    height,
		FG:        fg,
		Picture:   pic,
		srcWidth:  f.Width,
		srcHeight: f.Height,
	}, nil
}

func (s *AcceleratedScaler) Draw(v *ScaledView, d wm.Drawable, x, y int) error {
	if s == nil || s.ren == nil {
		return errors.NilReceiver()
	}
	if v == nil || v.Picture == wm.None {
		return nil
	}
	return s.ren.Composite(v.Picture, v.srcWidth, v.srcHeight, d, x, y, v.Width, v.Height)
}

func (s *AcceleratedScaler) Free(v *ScaledView) {
	if s == nil || v == nil || v.Picture == wm.None {
		return
	}
	s.ren.FreePicture(v.Picture)
	v.Picture = wm.None
}
