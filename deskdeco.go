// Package deskdeco wires the icon and background registries to a window
// system connection and a configuration.
package deskdeco

import (
	"context"
	"log/slog"

	"github.com/srlehn/deskdeco/background"
	"github.com/srlehn/deskdeco/config"
	"github.com/srlehn/deskdeco/icon"
	"github.com/srlehn/deskdeco/internal"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/exc"
	"github.com/srlehn/deskdeco/internal/logx"
	"github.com/srlehn/deskdeco/internal/xdg"
	"github.com/srlehn/deskdeco/wm"
	"github.com/srlehn/deskdeco/wm/wmimpl"
)

// chosen default
var wmImplementation = wmimpl.Impl()

var _ logx.LoggerProvider = (*Session)(nil)

// Session owns the connection and both registries.
type Session struct {
	conn    wm.Conn
	logger  *slog.Logger
	ctx     context.Context
	icons   *icon.Registry
	bgs     *background.Registry
	runner  *exc.ShellRunner
	closer  internal.Closer
	clients map[wm.Window]*Client
	ownConn bool
	started bool
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithContext bounds the lifetime of background commands.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Open connects to display ($DISPLAY if empty) and registers cfg.
// The session owns the connection.
func Open(display string, cfg *config.Config, opts ...Option) (*Session, error) {
	wm.SetImpl(wmImplementation)
	conn, err := wm.NewConn(display)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{func(s *Session) { s.ownConn = true }}, opts...)
	s, err := NewSession(conn, cfg, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// NewSession registers the icon paths and backgrounds of cfg on conn.
// Nothing is drawn before Start.
func NewSession(conn wm.Conn, cfg *config.Config, opts ...Option) (*Session, error) {
	if conn == nil {
		return nil, errors.NilParam()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		conn:    conn,
		ctx:     context.Background(),
		closer:  internal.NewCloser(),
		clients: make(map[wm.Window]*Client),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.runner = exc.NewShellRunner(s.ctx, s.logger)
	if s.ownConn {
		// closed last
		s.closer.AddClosers(conn)
	}

	iconOpts := []icon.Option{
		icon.WithLogger(s.logger),
		icon.WithBorderIconSize(cfg.BorderIconSize),
		icon.WithDesktopEntries(xdg.DataDirs()),
	}
	if cfg.DisableRender {
		iconOpts = append(iconOpts, icon.WithoutAcceleration())
	}
	var err error
	s.icons, err = icon.NewRegistry(conn, iconOpts...)
	if err != nil {
		return nil, err
	}
	s.bgs, err = background.NewRegistry(conn, s.icons, s.runner, background.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.closer.OnClose(s.icons.Destroy)
	s.closer.OnClose(s.bgs.Destroy)

	for _, key := range cfg.Undecoded {
		logx.Warn(`unknown configuration key`, s, `key`, key)
	}
	for _, p := range cfg.IconPaths {
		if err := s.icons.AddIconPath(p); err != nil {
			return nil, err
		}
	}
	for _, bg := range cfg.Backgrounds {
		s.bgs.SetBackground(bg.DesktopIndex(), bg.Type, bg.Value)
	}
	return s, nil
}

func (s *Session) Logger() *slog.Logger {
	if s == nil {
		return nil
	}
	return s.logger
}

// Runner runs the command backgrounds. Commands outlive the session
// unless the context passed WithContext is cancelled.
func (s *Session) Runner() *exc.ShellRunner { return s.runner }

func (s *Session) Conn() wm.Conn                     { return s.conn }
func (s *Session) Icons() *icon.Registry             { return s.icons }
func (s *Session) Backgrounds() *background.Registry { return s.bgs }

// Start starts the icon registry, then renders the backgrounds.
func (s *Session) Start() error {
	if s == nil {
		return errors.NilReceiver()
	}
	if s.started {
		return errors.New(`session already started`)
	}
	err := logx.TimeIt(func() error {
		if err := s.icons.Startup(); err != nil {
			return err
		}
		s.closer.OnClose(s.icons.Shutdown)
		if err := s.bgs.Startup(); err != nil {
			return err
		}
		s.closer.OnClose(s.bgs.Shutdown)
		return nil
	}, `session startup`, s)
	if err != nil {
		return err
	}
	s.started = true
	return nil
}

// SwitchDesktop applies the background of desktop.
func (s *Session) SwitchDesktop(desktop int) {
	if s == nil {
		return
	}
	s.bgs.LoadBackground(desktop)
}

// Client is a window tracked by the session.
type Client struct {
	id       wm.Window
	instance string
	icon     *icon.Icon
}

var _ icon.Client = (*Client)(nil)

func (c *Client) WindowID() wm.Window   { return c.id }
func (c *Client) InstanceName() string  { return c.instance }
func (c *Client) Icon() *icon.Icon      { return c.icon }
func (c *Client) SetIcon(ic *icon.Icon) { c.icon = ic }

// ClientIcon (re)loads the icon of window w with WM_CLASS instance name
// instance.
func (s *Session) ClientIcon(w wm.Window, instance string) *icon.Icon {
	if s == nil {
		return nil
	}
	c, ok := s.clients[w]
	if !ok {
		c = &Client{id: w}
		s.clients[w] = c
	}
	c.instance = instance
	return s.icons.LoadIcon(c)
}

// ForgetClient releases the icon of w.
func (s *Session) ForgetClient(w wm.Window) {
	if s == nil {
		return
	}
	c, ok := s.clients[w]
	if !ok {
		return
	}
	s.icons.Release(c.icon)
	c.icon = nil
	delete(s.clients, w)
}

// Close releases client icons and tears everything down in reverse
// order of construction.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	for w := range s.clients {
		s.ForgetClient(w)
	}
	return s.closer.Close()
}
