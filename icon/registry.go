package icon

import (
	"log/slog"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/shell"

	"github.com/srlehn/deskdeco/imagestore"
	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/lifecycle"
	"github.com/srlehn/deskdeco/internal/logx"
	"github.com/srlehn/deskdeco/internal/xdg"
	"github.com/srlehn/deskdeco/wm"
)

// Client is a managed window that can carry an icon.
type Client interface {
	WindowID() wm.Window
	InstanceName() string
	Icon() *Icon
	SetIcon(*Icon)
}

var _ logx.LoggerProvider = (*Registry)(nil)

// Registry owns the icon cache, the search paths and the drawing state
// shared by all icons.
type Registry struct {
	conn     wm.Conn
	logger   *slog.Logger
	state    lifecycle.State
	gc       wm.GC
	paths    []string
	icons    map[string]*Icon
	empty    *Icon
	soft     *SoftwareScaler
	accel    *AcceleratedScaler
	noAccel  bool
	iconSize int
	dataDirs []string
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithoutAcceleration keeps the registry on the software scaler even if the
// connection has a renderer.
func WithoutAcceleration() Option {
	return func(r *Registry) { r.noAccel = true }
}

// WithDesktopEntries resolves client icons that are not found by instance
// name through the application desktop entries below dataDirs.
func WithDesktopEntries(dataDirs []string) Option {
	return func(r *Registry) { r.dataDirs = append([]string(nil), dataDirs...) }
}

// WithBorderIconSize sets the size announced in the WM_ICON_SIZE hint.
func WithBorderIconSize(size int) Option {
	return func(r *Registry) {
		if size > 0 {
			r.iconSize = size
		}
	}
}

func NewRegistry(conn wm.Conn, opts ...Option) (*Registry, error) {
	if conn == nil {
		return nil, errors.NilParam()
	}
	r := &Registry{
		conn:     conn,
		icons:    make(map[string]*Icon),
		empty:    &Icon{},
		iconSize: consts.BorderIconSize,
	}
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

// Empty returns the shared icon that is never drawn.
func (r *Registry) Empty() *Icon { return r.empty }

// Accelerated reports whether icons are drawn through the renderer.
func (r *Registry) Accelerated() bool { return r != nil && r.accel != nil }

// Startup creates the icon GC, picks the scaler and announces the
// preferred icon size on the root window.
func (r *Registry) Startup() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`icon startup`, lifecycle.Started); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	gc, err := r.conn.CreateGC(r.conn.Root().Drawable())
	if err != nil {
		return logx.Err(errors.WrapPrefix(err, `unable to create icon gc`, 0), r, slog.LevelError)
	}
	r.gc = gc
	r.soft = NewSoftwareScaler(r.conn, gc)
	if !r.noAccel {
		r.accel = NewAcceleratedScaler(r.conn)
	}
	logx.Debug(`icon scaler selected`, r, `accelerated`, r.accel != nil)
	err = r.conn.SetIconSizes(r.conn.Root(), r.iconSize, r.iconSize, 1)
	logx.IsErr(err, r, slog.LevelWarn)
	return nil
}

// Shutdown frees every cached icon and the icon GC.
func (r *Registry) Shutdown() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`icon shutdown`, lifecycle.Stopped); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	for name, ic := range r.icons {
		ic.refs = 0
		r.destroyIcon(ic)
		delete(r.icons, name)
	}
	if r.gc != wm.None {
		r.conn.FreeGC(r.gc)
		r.gc = wm.None
	}
	return nil
}

// Destroy drops the search paths and the cache.
func (r *Registry) Destroy() error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Advance(`icon destroy`, lifecycle.Destroyed); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	r.paths = nil
	r.icons = nil
	return nil
}

// AddIconPath appends a directory to the icon search paths.
func (r *Registry) AddIconPath(path string) error {
	if r == nil {
		return errors.NilReceiver()
	}
	if err := r.state.Require(`add icon path`, lifecycle.Initialized); err != nil {
		return logx.Err(err, r, slog.LevelError)
	}
	path = strings.TrimSpace(path)
	if len(path) == 0 {
		logx.Warn(`empty icon path`, r)
		return nil
	}
	if !strings.HasSuffix(path, `/`) {
		path += `/`
	}
	expanded, err := shell.Expand(path, nil)
	if err != nil {
		logx.Warn(`unable to expand icon path`, r, `path`, path, `error`, err)
	} else {
		path = expanded
	}
	r.paths = append(r.paths, path)
	return nil
}

// IconPaths returns the search paths in search order.
func (r *Registry) IconPaths() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.paths...)
}

// LoadNamedIcon loads and caches an icon by file name, keeping its aspect
// ratio when scaled.
func (r *Registry) LoadNamedIcon(name string) *Icon {
	return r.LoadNamedIconWith(name, true, true)
}

// LoadNamedIconWith resolves name to an icon. Absolute names are decoded
// directly, other names are tried in each search path with every supported
// extension. With save the icon is cached under its path, otherwise it is
// decoded again, even if cached, and the caller owns it and must Release it.
//
// An empty name yields the empty icon, a name that can't be resolved nil.
func (r *Registry) LoadNamedIconWith(name string, save, preserveAspect bool) *Icon {
	if r == nil {
		return nil
	}
	if err := r.state.Require(`load icon`, lifecycle.Initialized, lifecycle.Started); err != nil {
		logx.IsErr(err, r, slog.LevelError)
		return nil
	}
	if len(name) == 0 {
		return r.empty
	}
	if filepath.IsAbs(name) {
		return r.loadFile(name, save, preserveAspect)
	}
	for _, p := range r.paths {
		for _, ext := range imagestore.Extensions() {
			if ic := r.loadFile(p+name+ext, save, preserveAspect); ic != nil {
				return ic
			}
		}
	}
	return nil
}

func (r *Registry) loadFile(path string, save, preserveAspect bool) *Icon {
	// unsaved loads get a private record, callers may change its flags
	if ic, ok := r.icons[path]; ok && save {
		ic.refs++
		return ic
	}
	frames, err := imagestore.DecodeFile(path)
	if err != nil {
		return nil
	}
	ic := newIcon(``, frames, preserveAspect)
	if len(ic.frames) == 0 {
		return nil
	}
	ic.refs = 1
	if save {
		ic.name = path
		r.icons[path] = ic
	}
	return ic
}

// LoadIcon resolves the icon of a client, releasing the one it held.
// Sources are tried in order: _NET_WM_ICON, the WM_HINTS icon pixmap, the
// instance name, the Icon key of the application's desktop entry (see
// WithDesktopEntries) and finally the built-in default icon.
func (r *Registry) LoadIcon(client Client) *Icon {
	if r == nil || client == nil {
		return nil
	}
	if err := r.state.Require(`load client icon`, lifecycle.Initialized, lifecycle.Started); err != nil {
		logx.IsErr(err, r, slog.LevelError)
		return nil
	}
	r.Release(client.Icon())
	client.SetIcon(nil)

	ic := r.clientIcon(client)
	client.SetIcon(ic)
	return ic
}

func (r *Registry) clientIcon(client Client) *Icon {
	win := client.WindowID()
	if data, err := r.conn.NetWMIcon(win); err == nil && len(data) > 0 {
		frames, err := imagestore.FramesFromNetWMIcon(data)
		if err != nil {
			logx.Debug(`malformed _NET_WM_ICON`, r, `window`, win, `error`, err)
		}
		if ic := newIcon(``, frames, true); len(ic.frames) > 0 {
			ic.refs = 1
			return ic
		}
	}
	if pm, mask, err := r.conn.HintsIcon(win); err == nil && pm != wm.None {
		frames, err := imagestore.DecodeDrawable(r.conn, pm.Drawable(), mask)
		if err != nil {
			logx.Debug(`unable to read WM_HINTS icon`, r, `window`, win, `error`, err)
		} else if ic := newIcon(``, frames, true); len(ic.frames) > 0 {
			ic.refs = 1
			return ic
		}
	}
	if name := client.InstanceName(); len(name) > 0 {
		if ic := r.LoadNamedIconWith(name, true, true); ic != nil {
			return ic
		}
		if ic := r.desktopEntryIcon(name); ic != nil {
			return ic
		}
	}
	return r.defaultIcon()
}

func (r *Registry) desktopEntryIcon(app string) *Icon {
	if len(r.dataDirs) == 0 {
		return nil
	}
	name, err := xdg.DesktopEntryIcon(app, r.dataDirs)
	if err != nil || name == app {
		return nil
	}
	logx.Debug(`icon from desktop entry`, r, `application`, app, `icon`, name)
	return r.LoadNamedIconWith(name, true, true)
}

func (r *Registry) defaultIcon() *Icon {
	if ic, ok := r.icons[consts.DefaultIconName]; ok {
		ic.refs++
		return ic
	}
	frames, err := imagestore.DecodeData(defaultXPM)
	if logx.IsErr(err, r, slog.LevelError) {
		return nil
	}
	ic := newIcon(consts.DefaultIconName, frames, true)
	ic.refs = 1
	r.icons[ic.name] = ic
	return ic
}

// Release gives up one reference to ic. Cached icons are dropped from the
// cache with their last reference; all frames and scaled views are freed.
func (r *Registry) Release(ic *Icon) {
	if r == nil || ic == nil || ic == r.empty {
		return
	}
	if ic.refs > 1 {
		ic.refs--
		return
	}
	ic.refs = 0
	if len(ic.name) > 0 && r.icons[ic.name] == ic {
		delete(r.icons, ic.name)
	}
	r.destroyIcon(ic)
}

// Cached returns the cached icon named name, without taking a reference.
func (r *Registry) Cached(name string) (*Icon, bool) {
	if r == nil {
		return nil, false
	}
	ic, ok := r.icons[name]
	return ic, ok
}

func (r *Registry) destroyIcon(ic *Icon) {
	for _, f := range ic.frames {
		for _, v := range f.views {
			r.freeView(v)
		}
		f.views = nil
		f.Release()
	}
	ic.frames = nil
}

func (r *Registry) freeView(v *ScaledView) {
	if v.Accelerated() && r.accel != nil {
		r.accel.Free(v)
	}
	if r.soft != nil {
		r.soft.Free(v)
	}
}

func (r *Registry) scalerOf(v *ScaledView) Scaler {
	if v.Accelerated() && r.accel != nil {
		return r.accel
	}
	return r.soft
}

// ScaledView returns the view of frame f of ic at width x height, creating
// it on first use. Zero dimensions default to the native frame size.
func (r *Registry) ScaledView(ic *Icon, f *Frame, fg uint32, width, height int) (*ScaledView, error) {
	if r == nil {
		return nil, errors.NilReceiver()
	}
	if ic == nil || f == nil {
		return nil, errors.NilParam()
	}
	if err := r.state.Require(`scale icon`, lifecycle.Started); err != nil {
		return nil, err
	}
	if width == 0 {
		width = f.Width
	}
	if height == 0 {
		height = f.Height
	}
	if ic.preserveAspect {
		width, height = FitAspect(f.Width, f.Height, width, height)
	} else {
		width, height = max(1, width), max(1, height)
	}
	for _, v := range f.views {
		if v.Accelerated() {
			// the renderer scales on the fly
			v.Width, v.Height = width, height
			return v, nil
		}
		if v.Width == width && v.Height == height && (!f.Bitmap || v.FG == fg) {
			return v, nil
		}
	}
	var s Scaler = r.soft
	if r.accel != nil && !ic.noAccel {
		s = r.accel
	}
	v, err := s.Scale(f, fg, width, height)
	if err != nil {
		return nil, err
	}
	f.views = append([]*ScaledView{v}, f.views...)
	return v, nil
}

// PutIcon draws ic centered in the box at x, y of size width x height using
// the best fitting frame. Drawing the empty icon does nothing.
func (r *Registry) PutIcon(ic *Icon, d wm.Drawable, fg uint32, x, y, width, height int) {
	if r == nil || ic == nil || ic == r.empty || len(ic.frames) == 0 {
		return
	}
	f := SelectFrame(ic, width, height)
	v, err := r.ScaledView(ic, f, fg, width, height)
	if logx.IsErr(err, r, slog.LevelError, `icon`, ic.name) {
		return
	}
	ix := x + (width-v.Width)/2
	iy := y + (height-v.Height)/2
	err = r.scalerOf(v).Draw(v, d, ix, iy)
	logx.IsErr(err, r, slog.LevelError, `icon`, ic.name)
}
