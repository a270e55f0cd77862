package imagestore

import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/srlehn/deskdeco/imagestore/xpm"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
)

// format families in icon search priority order
var families = []struct {
	name string
	exts []string
}{
	{``, []string{``}},
	{`png`, []string{`.png`, `.PNG`}},
	{`svg`, []string{`.svg`, `.SVG`}},
	{`xpm`, []string{`.xpm`, `.XPM`}},
	{`jpeg`, []string{`.jpg`, `.JPG`, `.jpeg`, `.JPEG`}},
	{`xbm`, []string{`.xbm`, `.XBM`}},
}

// compiled in decoders
var supported = map[string]bool{
	``:     true,
	`png`:  true,
	`xpm`:  true,
	`jpeg`: true,
	`xbm`:  true,
}

// Extensions returns the file name suffixes tried during icon search,
// in priority order, restricted to supported formats.
func Extensions() []string {
	var exts []string
	for _, fam := range families {
		if !supported[fam.name] {
			continue
		}
		exts = append(exts, fam.exts...)
	}
	return exts
}

// DecodeFile decodes the image file at path.
func DecodeFile(path string) ([]*Frame, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(err)
	}
	if !fi.Mode().IsRegular() {
		return nil, errors.Errorf(`%q is not a regular file`, path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.New(err)
	}
	f, err := FrameFromImage(img)
	if err != nil {
		return nil, err
	}
	return []*Frame{f}, nil
}

// DecodeData decodes an in-memory XPM table (the unquoted lines).
func DecodeData(table []string) ([]*Frame, error) {
	img, err := xpm.DecodeLines(table)
	if err != nil {
		return nil, err
	}
	f, err := FrameFromImage(img)
	if err != nil {
		return nil, err
	}
	return []*Frame{f}, nil
}

// DecodeDrawable snapshots d, using mask for transparency if set.
func DecodeDrawable(conn wm.Conn, d wm.Drawable, mask wm.Pixmap) ([]*Frame, error) {
	if conn == nil {
		return nil, errors.NilParam()
	}
	if d == wm.None {
		return nil, errors.New(`no drawable`)
	}
	img, err := conn.Snapshot(d, mask)
	if err != nil {
		return nil, err
	}
	f, err := FrameFromImage(img)
	if err != nil {
		return nil, err
	}
	return []*Frame{f}, nil
}
