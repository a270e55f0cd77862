package imagestore

import (
	"github.com/srlehn/deskdeco/internal/errors"
)

// FramesFromNetWMIcon splits a _NET_WM_ICON cardinal array into frames.
// Each record is width, height and width*height 0xAARRGGBB values.
//
// Parsing stops at the first malformed record: frames decoded before it are
// returned together with an error describing the rest.
func FramesFromNetWMIcon(data []uint32) ([]*Frame, error) {
	var frames []*Frame
	length := uint64(len(data))
	var offset uint64
	for offset < length {
		if length-offset < 2 {
			return frames, errors.Errorf(`truncated icon header at offset %d`, offset)
		}
		width, height := uint64(data[offset]), uint64(data[offset+1])
		if width == 0 || height == 0 {
			return frames, errors.Errorf(`invalid image size: %d x %d`, width, height)
		}
		if width*height+2 > length-offset {
			return frames, errors.Errorf(`invalid image size: %d x %d + 2 > %d`, width, height, length-offset)
		}
		offset += 2
		f := NewFrame(int(width), int(height), false)
		for i, px := range data[offset : offset+width*height] {
			d := f.Data[4*i : 4*i+4]
			d[0] = byte(px >> 24)
			d[1] = byte(px >> 16)
			d[2] = byte(px >> 8)
			d[3] = byte(px)
		}
		offset += width * height
		frames = append(frames, f)
	}
	return frames, nil
}
