package consts

import (
	"errors"
)

var (
	ErrNotImplemented = errors.New(`not implemented`)
	ErrNilReceiver    = errors.New(`nil receiver`)
	ErrNilParam       = errors.New(`nil parameter`)
	ErrNilImage       = errors.New(`nil image`)
	ErrNoFrames       = errors.New(`no usable frames`)
	ErrNoPixelData    = errors.New(`frame pixel data already released`)
	ErrUnknownFormat  = errors.New(`unknown image format`)
	ErrNoRender       = errors.New(`render extension not available`)
	ErrLifecycle      = errors.New(`operation called outside of its lifecycle phase`)
)

const (
	LibraryName = `deskdeco`

	// DefaultIconName is the cache key of the built-in fallback icon.
	DefaultIconName = `default`

	// fixed-point shift used for all scale ratios
	FixedShift = 16

	// DesktopDefault marks a background used for desktops without their own entry.
	DesktopDefault = -1

	// icon size announced through WM_ICON_SIZE
	BorderIconSize = 16
)
