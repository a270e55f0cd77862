package icon

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/deskdeco/imagestore"
	"github.com/srlehn/deskdeco/internal/wminternal"
)

func iconOfSizes(preserveAspect bool, sizes ...image.Point) *Icon {
	var frames []*imagestore.Frame
	for _, s := range sizes {
		frames = append(frames, imagestore.NewFrame(s.X, s.Y, false))
	}
	return newIcon(``, frames, preserveAspect)
}

func TestSelectFrame(t *testing.T) {
	tests := []struct {
		name          string
		sizes         []image.Point
		width, height int
		want          image.Point
	}{
		{`largest without target`, []image.Point{{16, 16}, {32, 32}, {48, 48}}, 0, 0, image.Pt(48, 48)},
		{`overlap`, []image.Point{{16, 16}, {32, 32}}, 20, 20, image.Pt(32, 32)},
		{`smallest covering`, []image.Point{{64, 64}, {16, 16}, {32, 32}}, 24, 24, image.Pt(32, 32)},
		{`width only`, []image.Point{{16, 64}, {32, 8}}, 24, 0, image.Pt(32, 8)},
		{`height only`, []image.Point{{16, 64}, {32, 8}}, 0, 20, image.Pt(16, 64)},
		{`tie keeps first`, []image.Point{{16, 32}, {32, 16}}, 0, 0, image.Pt(16, 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := SelectFrame(iconOfSizes(true, tt.sizes...), tt.width, tt.height)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, image.Pt(f.Width, f.Height))
		})
	}
	assert.Nil(t, SelectFrame(iconOfSizes(true), 16, 16))
	assert.Nil(t, SelectFrame(nil, 16, 16))
}

func TestFitAspect(t *testing.T) {
	tests := []struct {
		fw, fh, w, h int
		wantW, wantH int
	}{
		{48, 48, 16, 16, 16, 16},
		{48, 24, 16, 16, 16, 8},
		{24, 48, 16, 16, 8, 16},
		{100, 1, 16, 16, 1, 1},
		{1, 100, 16, 16, 1, 1},
		{3, 2, 64, 64, 63, 42},
	}
	for _, tt := range tests {
		w, h := FitAspect(tt.fw, tt.fh, tt.w, tt.h)
		assert.Equal(t, [2]int{tt.wantW, tt.wantH}, [2]int{w, h}, `%dx%d in %dx%d`, tt.fw, tt.fh, tt.w, tt.h)
	}
}

func TestSoftwareScaledView(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)

	f := imagestore.NewFrame(2, 1, false)
	copy(f.Data, []byte{0xff, 0x10, 0x20, 0x30, 0x40, 0xff, 0x00, 0x00})
	ic := newIcon(``, []*imagestore.Frame{f}, false)

	v, err := r.ScaledView(ic, ic.Frames()[0], 0, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Width)
	assert.Equal(t, 2, v.Height)
	assert.False(t, v.Accelerated())

	assert.Equal(t, []uint32{
		0x102030, 0x102030, 0xff0000, 0xff0000,
		0x102030, 0x102030, 0xff0000, 0xff0000,
	}, rec.Images[v.Image.Drawable()])
	// only the opaque source pixel makes it into the mask
	assert.ElementsMatch(t, []image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, rec.Points[v.Mask.Drawable()])

	again, err := r.ScaledView(ic, ic.Frames()[0], 0, 4, 2)
	require.NoError(t, err)
	assert.Same(t, v, again)
	assert.Equal(t, 2, rec.PixmapAllocs)

	// zero target defaults to the native size
	native, err := r.ScaledView(ic, ic.Frames()[0], 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 1), image.Pt(native.Width, native.Height))

	r.Release(ic)
	assert.Empty(t, rec.PixmapsLive)
}

func TestBitmapScaledViewPerColor(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)

	f := imagestore.NewFrame(2, 1, true)
	f.Data[0] = 0x01
	ic := newIcon(``, []*imagestore.Frame{f}, true)
	fr := ic.Frames()[0]

	red, err := r.ScaledView(ic, fr, 0xff0000, 2, 1)
	require.NoError(t, err)
	blue, err := r.ScaledView(ic, fr, 0x0000ff, 2, 1)
	require.NoError(t, err)
	assert.NotSame(t, red, blue)
	again, err := r.ScaledView(ic, fr, 0xff0000, 2, 1)
	require.NoError(t, err)
	assert.Same(t, red, again)

	assert.Equal(t, []uint32{0xff0000, 0}, rec.Images[red.Image.Drawable()])
	assert.Equal(t, []uint32{0x0000ff, 0}, rec.Images[blue.Image.Drawable()])
	assert.Equal(t, []image.Point{{0, 0}}, rec.Points[red.Mask.Drawable()])
}

func TestPutIconCentersAndClips(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)
	ic := iconOfSizes(true, image.Pt(32, 16))
	for i := range ic.Frames()[0].Data {
		ic.Frames()[0].Data[i] = 0xff
	}

	r.PutIcon(ic, rec.Root().Drawable(), 0, 100, 100, 16, 16)
	require.Len(t, rec.Copies, 1)
	cp := rec.Copies[0]
	assert.Equal(t, image.Rect(100, 104, 116, 112), cp.Rect)
	assert.NotZero(t, cp.ClipMask)
	assert.Equal(t, rec.Root().Drawable(), cp.Dst)
}
