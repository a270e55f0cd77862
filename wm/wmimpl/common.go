// actual implementation (X11)
package wmimpl

import (
	"github.com/srlehn/deskdeco/wm"
)

var _ wm.Implementation = (*implementation)(nil)

type implementation struct{}

func Impl() wm.Implementation { return &implementation{} }

func (i *implementation) Name() string { return `x11` }

// Conn connects to display, or to $DISPLAY if empty.
func (i *implementation) Conn(display string) (wm.Conn, error) {
	c, err := newConnDisplay(display)
	if err != nil {
		return nil, err
	}
	return c, nil
}
