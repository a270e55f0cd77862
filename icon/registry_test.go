package icon

import (
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/testutil"
	"github.com/srlehn/deskdeco/internal/wminternal"
	"github.com/srlehn/deskdeco/wm"
)

type testClient struct {
	win      wm.Window
	instance string
	icon     *Icon
}

func (c *testClient) WindowID() wm.Window  { return c.win }
func (c *testClient) InstanceName() string { return c.instance }
func (c *testClient) Icon() *Icon          { return c.icon }
func (c *testClient) SetIcon(ic *Icon)     { c.icon = ic }

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newStartedRegistry(t *testing.T, rec *wminternal.Recorder, paths ...string) *Registry {
	t.Helper()
	r, err := NewRegistry(rec)
	require.NoError(t, err)
	for _, p := range paths {
		require.NoError(t, r.AddIconPath(p))
	}
	require.NoError(t, r.Startup())
	return r
}

func TestLoadNamedIconCached(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `terminal.png`), 24, 24)
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec, dir)

	first := r.LoadNamedIcon(`terminal`)
	require.NotNil(t, first)
	assert.Equal(t, filepath.Join(dir, `terminal.png`), first.Name())

	// a second decode would fail now
	require.NoError(t, os.Remove(filepath.Join(dir, `terminal.png`)))
	second := r.LoadNamedIcon(`terminal`)
	assert.Same(t, first, second)

	assert.Nil(t, r.LoadNamedIcon(`missing`))
}

func TestLoadNamedIconUnsaved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `wallpaper.png`)
	writePNG(t, path, 8, 4)
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)

	ic := r.LoadNamedIconWith(path, false, false)
	require.NotNil(t, ic)
	assert.Empty(t, ic.Name())
	assert.False(t, ic.PreserveAspect())
	_, cached := r.Cached(path)
	assert.False(t, cached)
	assert.NotSame(t, ic, r.LoadNamedIconWith(path, false, false))

	// an unsaved load never hands out the cached record
	shared := r.LoadNamedIcon(path)
	require.NotNil(t, shared)
	private := r.LoadNamedIconWith(path, false, false)
	require.NotNil(t, private)
	assert.NotSame(t, shared, private)
	private.DisableAcceleration()
	assert.False(t, shared.noAccel)
	r.Release(private)
	cachedIc, ok := r.Cached(path)
	require.True(t, ok)
	assert.Same(t, shared, cachedIc)
	assert.Equal(t, 1, shared.refs)
}

func TestLoadNamedIconExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `editor.png`), 32, 32)
	xpm := "/* XPM */\nstatic char *e[] = {\n\"1 1 1 1\",\n\". c #ffffff\",\n\".\"};\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, `editor.xpm`), []byte(xpm), 0o600))
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec, `  `+dir+`  `)

	ic := r.LoadNamedIcon(`editor`)
	require.NotNil(t, ic)
	require.Len(t, ic.Frames(), 1)
	assert.Equal(t, 32, ic.Frames()[0].Width)

	ic = r.LoadNamedIcon(`editor.xpm`)
	require.NotNil(t, ic)
	assert.Equal(t, 1, ic.Frames()[0].Width)
}

func TestAddIconPath(t *testing.T) {
	t.Setenv(`DESKDECO_ICONS`, `/opt/icons`)
	rec := wminternal.NewRecorder(640, 480)
	r, err := NewRegistry(rec)
	require.NoError(t, err)
	require.NoError(t, r.AddIconPath(` $DESKDECO_ICONS/apps `))
	require.NoError(t, r.AddIconPath(`/usr/share/pixmaps/`))
	require.NoError(t, r.AddIconPath(``))
	assert.Equal(t, []string{`/opt/icons/apps/`, `/usr/share/pixmaps/`}, r.IconPaths())

	require.NoError(t, r.Startup())
	assert.ErrorIs(t, r.AddIconPath(`/tmp`), consts.ErrLifecycle)
}

func TestEmptyIcon(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)

	ic := r.LoadNamedIcon(``)
	assert.Same(t, r.Empty(), ic)
	assert.Same(t, ic, r.LoadNamedIcon(``))
	r.PutIcon(ic, rec.Root().Drawable(), 0, 0, 0, 16, 16)
	r.Release(ic)
	assert.Zero(t, rec.DrawCalls)
	assert.Zero(t, rec.PixmapAllocs)
}

func TestStartupShutdown(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	h := testutil.NewRecordHandler()
	r, err := NewRegistry(rec, WithLogger(h.Logger()), WithBorderIconSize(20))
	require.NoError(t, err)

	assert.Error(t, r.Shutdown())
	assert.Equal(t, 1, h.Count(slog.LevelError))

	require.NoError(t, r.Startup())
	assert.Equal(t, [3]int{20, 20, 1}, rec.IconSizes)
	assert.Error(t, r.Startup())

	require.NoError(t, r.Shutdown())
	require.NoError(t, r.Destroy())
	pixmaps, gcs, pictures := rec.Live()
	assert.Zero(t, pixmaps)
	assert.Zero(t, gcs)
	assert.Zero(t, pictures)
	assert.Nil(t, r.LoadNamedIcon(`anything`))
}

func TestReleaseFreesEverything(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `mail.png`), 48, 48)
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec, dir)

	ic := r.LoadNamedIcon(`mail`)
	require.NotNil(t, ic)
	root := rec.Root().Drawable()
	r.PutIcon(ic, root, 0, 0, 0, 16, 16)
	r.PutIcon(ic, root, 0, 0, 0, 32, 32)
	r.PutIcon(ic, root, 0, 0, 0, 16, 16)
	require.Len(t, ic.Frames()[0].Views(), 2)
	assert.Equal(t, 4, rec.PixmapAllocs)
	assert.Len(t, rec.Copies, 3)

	r.Release(ic)
	_, cached := r.Cached(ic.Name())
	assert.False(t, cached)
	assert.Empty(t, rec.PixmapsLive)
	assert.Equal(t, rec.PixmapAllocs, rec.PixmapFrees)
	assert.Empty(t, ic.Frames())

	require.NoError(t, r.Shutdown())
	pixmaps, gcs, pictures := rec.Live()
	assert.Zero(t, pixmaps+gcs+pictures)
}

func TestReleaseSharedIcon(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `files.png`), 16, 16)
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec, dir)

	a := r.LoadNamedIcon(`files`)
	b := r.LoadNamedIcon(`files`)
	require.Same(t, a, b)
	r.PutIcon(a, rec.Root().Drawable(), 0, 0, 0, 16, 16)

	r.Release(a)
	_, cached := r.Cached(b.Name())
	assert.True(t, cached)
	assert.NotEmpty(t, rec.PixmapsLive)

	r.Release(b)
	_, cached = r.Cached(b.Name())
	assert.False(t, cached)
	assert.Empty(t, rec.PixmapsLive)
}

func TestAcceleratedIcon(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `web.png`), 32, 32)
	rec := wminternal.NewRecorder(640, 480)
	rec.Render = true
	r := newStartedRegistry(t, rec, dir)
	require.True(t, r.Accelerated())

	ic := r.LoadNamedIcon(`web`)
	require.NotNil(t, ic)
	root := rec.Root().Drawable()
	r.PutIcon(ic, root, 0, 10, 10, 16, 16)
	r.PutIcon(ic, root, 0, 10, 10, 24, 24)

	assert.Equal(t, 1, rec.PictureAllocs)
	assert.Zero(t, rec.PixmapAllocs)
	assert.True(t, ic.Frames()[0].Released())
	require.Len(t, rec.Composites, 2)
	assert.Equal(t, image.Rect(10, 10, 26, 26), rec.Composites[0].Rect)
	assert.Equal(t, image.Rect(10, 10, 34, 34), rec.Composites[1].Rect)

	r.Release(ic)
	assert.Empty(t, rec.PicturesLive)
}

func TestWithoutAcceleration(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	rec.Render = true
	r, err := NewRegistry(rec, WithoutAcceleration())
	require.NoError(t, err)
	require.NoError(t, r.Startup())
	assert.False(t, r.Accelerated())
}

func TestLoadIconSources(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, `xterm.png`), 16, 16)
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec, dir)

	// _NET_WM_ICON
	rec.NetWMIcons[10] = []uint32{1, 1, 0xffffffff, 2, 2, 1, 2, 3, 4}
	c := &testClient{win: 10}
	ic := r.LoadIcon(c)
	require.NotNil(t, ic)
	assert.Same(t, ic, c.Icon())
	assert.Len(t, ic.Frames(), 2)
	assert.Empty(t, ic.Name())

	// malformed _NET_WM_ICON falls through to WM_HINTS
	rec.NetWMIcons[11] = append([]uint32{4, 4}, make([]uint32, 10)...)
	rec.Hints[11] = [2]wm.Pixmap{0x50, wm.None}
	rec.Snapshots[0x50] = image.NewNRGBA(image.Rect(0, 0, 3, 3))
	c = &testClient{win: 11, instance: `xterm`}
	ic = r.LoadIcon(c)
	require.NotNil(t, ic)
	require.Len(t, ic.Frames(), 1)
	assert.Equal(t, 3, ic.Frames()[0].Width)

	// instance name
	c = &testClient{win: 12, instance: `xterm`}
	ic = r.LoadIcon(c)
	require.NotNil(t, ic)
	assert.Equal(t, filepath.Join(dir, `xterm.png`), ic.Name())
	assert.True(t, ic.PreserveAspect())

	// default icon, shared between clients
	c1 := &testClient{win: 13, instance: `unknown`}
	c2 := &testClient{win: 14}
	def := r.LoadIcon(c1)
	require.NotNil(t, def)
	assert.Equal(t, consts.DefaultIconName, def.Name())
	assert.Same(t, def, r.LoadIcon(c2))
}

func TestLoadIconReleasesPrevious(t *testing.T) {
	rec := wminternal.NewRecorder(640, 480)
	r := newStartedRegistry(t, rec)

	rec.NetWMIcons[20] = []uint32{2, 2, 0xff000000, 0xff000000, 0xff000000, 0xff000000}
	c := &testClient{win: 20}
	old := r.LoadIcon(c)
	require.NotNil(t, old)
	r.PutIcon(old, rec.Root().Drawable(), 0, 0, 0, 8, 8)
	assert.NotEmpty(t, rec.PixmapsLive)

	delete(rec.NetWMIcons, 20)
	ic := r.LoadIcon(c)
	require.NotNil(t, ic)
	assert.NotSame(t, old, ic)
	assert.Empty(t, old.Frames())
	assert.Empty(t, rec.PixmapsLive)
}

func TestLoadNamedIconSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		`huge.xbm`:    "#define huge_width 1000000000\n#define huge_height 1000000000\nstatic char huge_bits[] = { 0x00 };",
		`huge.xpm`:    "/* XPM */\nstatic char *huge[] = {\n\"100000000000000000 1 1 1\",\n\"a c red\",\n\"a\"};\n",
		`wide.png`:    `not a png`,
		`wide.xpm`:    "/* XPM */\nstatic char *wide[] = {\n\"20000 1 1 1\",\n\"a c red\",\n\"a\"};\n",
		`mixed.png`:   `not a png`,
		`mixed.xpm`:   "/* XPM */\nstatic char *mixed[] = {\n\"2 1 1 1\",\n\"a c red\",\n\"aa\"};\n",
		`mixed.xbm`:   "#define mixed_width 1\n#define mixed_height 1\nstatic char mixed_bits[] = { 0x01 };",
		`partial.xpm`: "/* XPM */\nstatic char *partial[] = {\n\"2 2 1 1\",\n\"a c red\",\n\"aa\"};\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	rec := wminternal.NewRecorder(640, 480)
	logs := testutil.NewRecordHandler()
	r, err := NewRegistry(rec, WithLogger(logs.Logger()))
	require.NoError(t, err)
	require.NoError(t, r.AddIconPath(dir))
	require.NoError(t, r.Startup())

	for _, name := range []string{`huge`, `wide`, `partial`} {
		assert.NotPanics(t, func() {
			assert.Nil(t, r.LoadNamedIcon(name), name)
		})
	}
	// the broken png candidate is passed over for the xpm one
	ic := r.LoadNamedIcon(`mixed`)
	require.NotNil(t, ic)
	assert.Equal(t, filepath.Join(dir, `mixed.xpm`), ic.Name())

	// an instance name resolving only to broken files falls back to the default
	c := &testClient{win: 0x600001, instance: `huge`}
	ic = r.LoadIcon(c)
	require.NotNil(t, ic)
	assert.Equal(t, consts.DefaultIconName, ic.Name())
	assert.Zero(t, logs.Count(slog.LevelWarn))
	assert.Zero(t, logs.Count(slog.LevelError))
}

func TestLoadIconDesktopEntry(t *testing.T) {
	iconDir := t.TempDir()
	writePNG(t, filepath.Join(iconDir, `utilities-terminal.png`), 16, 16)
	dataDir := t.TempDir()
	apps := filepath.Join(dataDir, `applications`)
	require.NoError(t, os.MkdirAll(apps, 0o755))
	entry := "[Desktop Entry]\nType=Application\nName=Term\nExec=term\nIcon=utilities-terminal\nStartupWMClass=XTerm\n"
	require.NoError(t, os.WriteFile(filepath.Join(apps, `org.example.Term.desktop`), []byte(entry), 0o600))

	rec := wminternal.NewRecorder(640, 480)
	r, err := NewRegistry(rec, WithDesktopEntries([]string{dataDir}))
	require.NoError(t, err)
	require.NoError(t, r.AddIconPath(iconDir))
	require.NoError(t, r.Startup())

	ic := r.LoadIcon(&testClient{win: 0x700001, instance: `xterm`})
	require.NotNil(t, ic)
	assert.Equal(t, filepath.Join(iconDir, `utilities-terminal.png`), ic.Name())

	// entries without a loadable icon fall through to the default
	ic = r.LoadIcon(&testClient{win: 0x700002, instance: `other`})
	require.NotNil(t, ic)
	assert.Equal(t, consts.DefaultIconName, ic.Name())

	// without data dirs the entries are not consulted
	r2, err := NewRegistry(rec)
	require.NoError(t, err)
	require.NoError(t, r2.AddIconPath(iconDir))
	ic = r2.LoadIcon(&testClient{win: 0x700001, instance: `xterm`})
	require.NotNil(t, ic)
	assert.Equal(t, consts.DefaultIconName, ic.Name())
}
