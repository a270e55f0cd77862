// Package background keeps the per-desktop root window backgrounds.
package background

import (
	"image/color"
	"log/slog"
	"strings"

	"github.com/fogleman/gg"

	"github.com/srlehn/deskdeco/icon"
	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/exc"
	"github.com/srlehn/deskdeco/internal/lifecycle"
	"github.com/srlehn/deskdeco/internal/logx"
	"github.com/srlehn/deskdeco/wm"
)

type Type uint8

const (
	Solid Type = iota
	Gradient
	Command
	Image
)

func (t Type) String() string {
	switch t {
	case Solid:
		return `solid`
	case Gradient:
		return `gradient`
	case Command:
		return `command`
	case Image:
		return `image`
	default:
		return `unknown`
	}
}

// ParseType maps a configuration type name to a Type. The empty name is a
// solid background.
func ParseType(s string) (Type, error) {
	switch s {
	case ``, `solid`:
		return Solid, nil
	case `gradient`:
		return Gradient, nil
	case `command`:
		return Command, nil
	case `image`:
		return Image, nil
	default:
		return Solid, errors.Errorf(`invalid background type: %q`, s)
	}
}

// Descriptor is one configured background. Desktop -1 is the default for
// desktops without their own background.
type Descriptor struct {
	Desktop int
	Type    Type
	Value   string
	Pixel   uint32
	Pixmap  wm.Pixmap
}

// IconLoader draws background images.
type IconLoader interface {
	LoadNamedIconWith(name string, save, preserveAspect bool) *icon.Icon
	PutIcon(ic *icon.Icon, d wm.Drawable, fg uint32, x, y, width, height int)
	Release(ic *icon.Icon)
}

var (
	_ IconLoader          = (*icon.Registry)(nil)
	_ logx.LoggerProvider = (*Registry)(nil)
)

// Registry holds the configured backgrounds in lookup order, most recently
// registered first.
type Registry struct {
	conn   wm.Conn
	icons  IconLoader
	runner exc.Runner
	logger *slog.Logger
	state  lifecycle.State

	list          []*Descriptor
	def, last     *Descriptor
	gc            wm.GC
	width, height int
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns an empty registry. icons is needed for image
// backgrounds and runner for command backgrounds.
func NewRegistry(conn wm.Conn, icons IconLoader, runner exc.Runner, opts ...Option) (*Registry, error) {
	if conn == nil {
		return nil, errors.NilParam()
	}
	r := &Registry{conn: conn, icons: icons, runner: runner}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *Registry) Logger() *slog.Logger {
	if r == nil {
		return nil
	}
	return r.logger
}

// SetBackground registers a background for desktop. Invalid entries are
// logged and dropped.
func (r *Registry) SetBackground(desktop int, typ, value string) {
	if r == nil {
		return
	}
	if err := r.state.Require(`set background`, lifecycle.Initialized); err != nil {
		logx.IsErr(err, r, slog.LevelError)
		return
	}
	if len(value) == 0 {
		logx.Warn(`no value specified for background`, r, `desktop`, desktop)
		return
	}
	t, err := ParseType(typ)
	if logx.IsErr(err, r, slog.LevelWarn) {
		return
	}
	if t == Command {
		if _, err := exc.Parse(value); err != nil {
			logx.Warn(`invalid background command`, r, `command`, value, `error`, err)
			return
		}
	}
	d := &Descriptor{Desktop: desktop, Type: t, Value: strings.Clone(value)}
	r.list = append([]*Descriptor{d}, r.list...)
}

// Descriptors returns copies of the registered backgrounds in lookup order.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	ds := make([]Descriptor, 0, len(r.list))
	for _, d := range r.list {
		ds = append(ds, *d)
	}
	return ds
}

// Default returns the background used for desktops without their own.
func (r *Registry) Default() (Descriptor, bool) {
	if r == nil || r.def == nil {
		return Descriptor{}, false
	}
	return *r.def, true
}

// Startup renders every registered background.
func (r *Registry) Startup() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`background startup`, lifecycle.Started); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	gc, err := r.conn.CreateGC(r.conn.Root().Drawable())
	if err != nil {
		return logx.Err(errors.WrapPrefix(err, `unable to create background gc`, 0), r, slog.LevelError)
	}
	r.gc = gc
	r.width, r.height = r.conn.ScreenSize()
	for _, d := range r.list {
		switch d.Type {
		case Solid:
			r.loadSolid(d)
		case Gradient:
			r.loadGradient(d)
		case Image:
			r.loadImage(d)
		}
		if d.Desktop == consts.DesktopDefault && r.def == nil {
			r.def = d
		}
	}
	return nil
}

// Shutdown frees the rendered backgrounds.
func (r *Registry) Shutdown() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`background shutdown`, lifecycle.Stopped); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	for _, d := range r.list {
		if d.Pixmap != wm.None {
			r.conn.FreePixmap(d.Pixmap)
			d.Pixmap = wm.None
		}
	}
	if r.gc != wm.None {
		r.conn.FreeGC(r.gc)
		r.gc = wm.None
	}
	r.last = nil
	return nil
}

// Destroy forgets all registered backgrounds.
func (r *Registry) Destroy() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`background destroy`, lifecycle.Destroyed); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	r.list = nil
	r.def = nil
	r.last = nil
	return nil
}

// LoadBackground applies the background of desktop to the root window.
// Nothing happens if it is the background applied last.
func (r *Registry) LoadBackground(desktop int) {
	if r == nil {
		return
	}
	if err := r.state.Require(`load background`, lifecycle.Started); err != nil {
		logx.IsErr(err, r, slog.LevelError)
		return
	}
	d := r.lookup(desktop)
	if d == nil {
		return
	}
	if r.last != nil && d.Type == r.last.Type && d.Value == r.last.Value {
		return
	}
	r.last = d

	root := r.conn.Root()
	switch d.Type {
	case Solid:
		r.conn.SetWindowBackground(root, wm.Background{Pixel: d.Pixel, Border: d.Pixmap, Solid: true})
	case Command:
		if r.runner == nil {
			logx.Warn(`no command runner for background`, r, `command`, d.Value)
			return
		}
		err := r.runner.RunCommand(d.Value)
		logx.IsErr(err, r, slog.LevelWarn, `command`, d.Value)
		return
	default:
		r.conn.SetWindowBackground(root, wm.Background{Pixmap: d.Pixmap})
	}
	r.conn.ClearWindow(root)
	logx.Debug(`background loaded`, r, `desktop`, desktop, `type`, d.Type.String())
}

func (r *Registry) lookup(desktop int) *Descriptor {
	for _, d := range r.list {
		if d.Desktop == desktop {
			return d
		}
	}
	return r.def
}

func (r *Registry) parseColor(spec string) wm.Color {
	c, err := r.conn.ParseColor(strings.TrimSpace(spec))
	if err != nil {
		logx.Warn(`invalid color`, r, `color`, spec, `error`, err)
	}
	return c
}

func (r *Registry) loadSolid(d *Descriptor) {
	d.Pixel = r.parseColor(d.Value).Pixel
}

func (r *Registry) loadGradient(d *Descriptor) {
	from, to, ok := strings.Cut(d.Value, `:`)
	if !ok {
		d.Pixmap = wm.None
		return
	}
	c1, c2 := r.parseColor(from), r.parseColor(to)
	pm, err := r.conn.CreatePixmap(r.width, r.height, r.conn.Depth())
	if logx.IsErr(err, r, slog.LevelError, `background`, d.Value) {
		return
	}
	d.Pixmap = pm
	if c1.Pixel == c2.Pixel {
		r.conn.SetForeground(r.gc, c1.Pixel)
		r.conn.FillRectangle(pm.Drawable(), r.gc, 0, 0, r.width, r.height)
		return
	}
	r.drawGradient(pm.Drawable(), c1, c2)
}

// drawGradient fills d with lines of constant color going from c1 at the
// top to c2 at the bottom.
func (r *Registry) drawGradient(d wm.Drawable, c1, c2 wm.Color) {
	dc := gg.NewContext(1, r.height)
	grad := gg.NewLinearGradient(0, 0, 0, float64(r.height))
	grad.AddColorStop(0, color.RGBA{c1.R, c1.G, c1.B, 0xff})
	grad.AddColorStop(1, color.RGBA{c2.R, c2.G, c2.B, 0xff})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, 1, float64(r.height))
	dc.Fill()
	img := dc.Image()

	var last uint32
	for y := 0; y < r.height; y++ {
		cr, cg, cb, _ := img.At(0, y).RGBA()
		pixel := r.conn.RGBPixel(uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
		switch y {
		case 0:
			pixel = c1.Pixel
		case r.height - 1:
			pixel = c2.Pixel
		}
		if y == 0 || pixel != last {
			r.conn.SetForeground(r.gc, pixel)
			last = pixel
		}
		r.conn.DrawLine(d, r.gc, 0, y, r.width-1, y)
	}
}

func (r *Registry) loadImage(d *Descriptor) {
	var ic *icon.Icon
	if r.icons != nil {
		ic = r.icons.LoadNamedIconWith(d.Value, false, false)
	}
	if ic == nil {
		d.Pixmap = wm.None
		logx.Warn(`background image not found`, r, `image`, d.Value)
		return
	}
	defer r.icons.Release(ic)
	// rendered once into a pixmap, no renderer pictures
	ic.DisableAcceleration()

	pm, err := r.conn.CreatePixmap(r.width, r.height, r.conn.Depth())
	if logx.IsErr(err, r, slog.LevelError, `background`, d.Value) {
		return
	}
	d.Pixmap = pm
	r.conn.SetForeground(r.gc, 0)
	r.conn.FillRectangle(pm.Drawable(), r.gc, 0, 0, r.width, r.height)
	r.icons.PutIcon(ic, pm.Drawable(), 0, 0, 0, r.width, r.height)
}
