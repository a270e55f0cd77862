package xbm

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	src := `#define arrow_width 10
#define arrow_height 2
#define arrow_x_hot 0
static unsigned char arrow_bits[] = {
   0x01, 0x02, 0xff, 0x03};
`
	img, format, err := image.Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, `xbm`, format)
	bm := img.(*Bitmap)
	assert.Equal(t, 10, bm.Width)
	assert.Equal(t, 2, bm.Height)
	assert.Equal(t, 2, bm.Stride)
	assert.True(t, bm.IsSet(0, 0))
	assert.False(t, bm.IsSet(1, 0))
	assert.True(t, bm.IsSet(9, 0))
	assert.True(t, bm.IsSet(9, 1))
	assert.False(t, bm.IsSet(10, 1))
}

func TestDecodeX10(t *testing.T) {
	src := `#define old_width 3
#define old_height 2
static short old_bits[] = {
   0x0005, 0x0002};
`
	img, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	bm := img.(*Bitmap)
	assert.Equal(t, 2, bm.Stride)
	assert.True(t, bm.IsSet(0, 0))
	assert.True(t, bm.IsSet(2, 0))
	assert.True(t, bm.IsSet(1, 1))
	assert.False(t, bm.IsSet(0, 1))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader(`#define x_width 8`))
	assert.Error(t, err)
	_, err = Decode(strings.NewReader("#define x_width 8\n#define x_height 4\nstatic char x_bits[] = { 0x00 };"))
	assert.Error(t, err)
}

func TestDecodeOversized(t *testing.T) {
	tests := []string{
		"#define big_width 1000000000\n#define big_height 1000000000\nstatic char big_bits[] = { 0x00 };",
		"#define big_width 32768\n#define big_height 32768\nstatic char big_bits[] = { 0x00, 0x01 };",
		"#define big_width 64\n#define big_height 64\nstatic short big_bits[] = { 0x0000 };",
	}
	for _, src := range tests {
		assert.NotPanics(t, func() {
			_, err := Decode(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}
