// Package x11 has X11 client and desktop helpers on top of a wm.Conn
// created by package wmimpl.
package x11

import (
	"context"
	"errors"

	errorsGo "github.com/go-errors/errors"
	"github.com/jezek/xgb/res"
	"github.com/jezek/xgb/xproto"
	"github.com/srlehn/xgbutil"
	"github.com/srlehn/xgbutil/ewmh"
	"github.com/srlehn/xgbutil/icccm"
	"github.com/srlehn/xgbutil/xevent"
	"github.com/srlehn/xgbutil/xprop"
	"github.com/srlehn/xgbutil/xwindow"

	"github.com/srlehn/deskdeco/wm"
)

// XUtil returns the xgbutil connection behind conn.
func XUtil(conn wm.Conn) (*xgbutil.XUtil, error) {
	cr, ok := conn.(interface{ Conn() any })
	if !ok || cr == nil {
		return nil, errorsGo.New(`not an X11 connection`)
	}
	xu, ok := cr.Conn().(*xgbutil.XUtil)
	if !ok || xu == nil {
		return nil, errorsGo.New(`nil X11 connection`)
	}
	return xu, nil
}

// ClientInfo describes a managed top level window.
type ClientInfo struct {
	ID       wm.Window
	Name     string
	Class    string
	Instance string
	PID      uint64
}

// Clients lists the windows in _NET_CLIENT_LIST.
func Clients(xu *xgbutil.XUtil) ([]wm.Window, error) {
	ids, err := ewmh.ClientListGet(xu)
	if err != nil {
		return nil, errorsGo.New(err)
	}
	ws := make([]wm.Window, 0, len(ids))
	for _, id := range ids {
		ws = append(ws, wm.Window(id))
	}
	return ws, nil
}

// Client collects name, class and process id of w. Missing properties are
// left empty.
func Client(xu *xgbutil.XUtil, w wm.Window) (*ClientInfo, error) {
	if xu == nil {
		return nil, errorsGo.New(`nil X11 connection`)
	}
	win := xproto.Window(w)
	info := &ClientInfo{ID: w}
	info.Name, _ = windowName(xu, win)
	class, instance, err := windowClass(xu, win)
	if err == nil {
		info.Class, info.Instance = class, instance
	}
	if pid, err := windowPID(xu, win); err == nil {
		info.PID = pid
	}
	return info, nil
}

func windowName(xu *xgbutil.XUtil, w xproto.Window) (string, error) {
	name, errE := ewmh.WmNameGet(xu, w)
	if errE == nil {
		return name, nil
	}

	// If there was a problem getting _NET_WM_NAME or if its empty,
	// try the old-school version.
	name, errI := icccm.WmNameGet(xu, w)
	if errI == nil {
		return name, nil
	}

	return ``, errorsGo.New(errors.Join(errE, errI))
}

func windowClass(xu *xgbutil.XUtil, w xproto.Window) (class, instance string, _ error) {
	cl, err := icccm.WmClassGet(xu, w)
	if err != nil {
		return ``, ``, errorsGo.New(err)
	}
	if cl == nil {
		return ``, ``, errorsGo.New(`nil icccm.WmClassGet() client`)
	}
	return cl.Class, cl.Instance, nil
}

func windowPID(xu *xgbutil.XUtil, w xproto.Window) (uint64, error) {
	pid, errQCI := windowPIDQueryClientIDs(xu, w)
	if errQCI == nil && pid > 0 {
		return pid, nil
	}
	// some clients only set _NET_WM_PID
	netPID, errNWP := ewmh.WmPidGet(xu, w)
	if errNWP == nil {
		return uint64(netPID), nil
	}
	return 0, errorsGo.New(errors.Join(errQCI, errNWP))
}

func windowPIDQueryClientIDs(xu *xgbutil.XUtil, w xproto.Window) (uint64, error) {
	if err := res.Init(xu.Conn()); err != nil {
		return 0, errorsGo.New(err)
	}
	specs := []res.ClientIdSpec{{
		Client: uint32(w),
		Mask:   res.ClientIdMaskLocalClientPID,
	}}
	repl, err := res.QueryClientIds(xu.Conn(), uint32(len(specs)), specs).Reply()
	if err != nil {
		return 0, errorsGo.New(err)
	}
	if repl == nil {
		return 0, errorsGo.New(`nil QueryClientIds reply`)
	}
	for _, id := range repl.Ids {
		if len(id.Value) != 1 || id.Spec.Client != uint32(w) {
			continue
		}
		return uint64(id.Value[0]), nil
	}
	return 0, errorsGo.New(`no pid for window`)
}

// CurrentDesktop reads _NET_CURRENT_DESKTOP from the root window.
func CurrentDesktop(xu *xgbutil.XUtil) (int, error) {
	d, err := ewmh.CurrentDesktopGet(xu)
	if err != nil {
		return 0, errorsGo.New(err)
	}
	return int(d), nil
}

// WatchDesktop calls fn with the current desktop and again on every
// _NET_CURRENT_DESKTOP change until ctx is done. Calls of fn never
// overlap with the calling goroutine.
func WatchDesktop(ctx context.Context, xu *xgbutil.XUtil, fn func(desktop int)) error {
	if xu == nil || fn == nil {
		return errorsGo.New(`nil parameter`)
	}
	root := xwindow.New(xu, xu.RootWin())
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return errorsGo.New(err)
	}
	if d, err := CurrentDesktop(xu); err == nil {
		fn(d)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != `_NET_CURRENT_DESKTOP` {
			return
		}
		if d, err := CurrentDesktop(xu); err == nil {
			fn(d)
		}
	}).Connect(xu, xu.RootWin())

	// callbacks run between the before and after pings
	before, after, quit := xevent.MainPing(xu)
	for {
		select {
		case <-before:
			<-after
		case <-quit:
			return nil
		case <-ctx.Done():
			xevent.Quit(xu)
			return ctx.Err()
		}
	}
}
