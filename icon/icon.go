// Package icon loads, caches, scales and draws window and taskbar icons.
package icon

import (
	"github.com/srlehn/deskdeco/imagestore"
	"github.com/srlehn/deskdeco/wm"
)

// Icon is a set of frames of the same picture at different native
// resolutions. Named icons are cached by the Registry.
type Icon struct {
	name           string
	frames         []*Frame
	preserveAspect bool
	noAccel        bool
	refs           int
}

// Name returns the cache key, empty for uncached icons.
func (ic *Icon) Name() string {
	if ic == nil {
		return ``
	}
	return ic.name
}

func (ic *Icon) Frames() []*Frame {
	if ic == nil {
		return nil
	}
	return ic.frames
}

func (ic *Icon) PreserveAspect() bool { return ic != nil && ic.preserveAspect }

// DisableAcceleration forces the software path for this icon.
func (ic *Icon) DisableAcceleration() {
	if ic != nil {
		ic.noAccel = true
	}
}

// Frame is a native resolution raster with the views scaled from it.
type Frame struct {
	*imagestore.Frame
	views []*ScaledView
}

func (f *Frame) Views() []*ScaledView {
	if f == nil {
		return nil
	}
	return f.views
}

// ScaledView is a frame rendered at an output size. Software views hold a
// color pixmap and a 1-bit mask, accelerated views a picture that is
// scaled when composited.
type ScaledView struct {
	Width, Height int
	FG            uint32 // foreground pixel, bitmap frames only
	Image         wm.Pixmap
	Mask          wm.Pixmap
	Picture       wm.Picture

	srcWidth, srcHeight int
}

// Accelerated reports whether v is drawn through the renderer.
func (v *ScaledView) Accelerated() bool { return v != nil && v.Picture != wm.None }

func newIcon(name string, frames []*imagestore.Frame, preserveAspect bool) *Icon {
	ic := &Icon{name: name, preserveAspect: preserveAspect}
	for _, f := range frames {
		if f == nil || f.Width <= 0 || f.Height <= 0 {
			continue
		}
		ic.frames = append(ic.frames, &Frame{Frame: f})
	}
	return ic
}
