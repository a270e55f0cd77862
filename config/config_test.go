package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
icon_paths = ["~/.icons", "$HOME/pixmaps"]
border_icon_size = 24
color_depth = 8

[[background]]
type = "gradient"
value = "#204060:#000000"

[[background]]
desktop = 2
type = " command "
value = "xsetroot -solid gray"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, []string{`~/.icons`, `$HOME/pixmaps`}, cfg.IconPaths)
	assert.Equal(t, 24, cfg.BorderIconSize)
	assert.False(t, cfg.DisableRender)
	require.Len(t, cfg.Backgrounds, 2)
	assert.Equal(t, -1, cfg.Backgrounds[0].DesktopIndex())
	assert.Equal(t, `gradient`, cfg.Backgrounds[0].Type)
	assert.Equal(t, 2, cfg.Backgrounds[1].DesktopIndex())
	assert.Equal(t, `command`, cfg.Backgrounds[1].Type)
	assert.Equal(t, []string{`color_depth`}, cfg.Undecoded)

	_, err = Parse(`icon_paths = [`)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Setenv(`XDG_DATA_HOME`, `/data/home`)
	t.Setenv(`XDG_DATA_DIRS`, `/usr/share`)
	dir := t.TempDir()
	path := filepath.Join(dir, `config.toml`)
	require.NoError(t, os.WriteFile(path, []byte("[[background]]\nvalue = \"black\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Backgrounds, 1)
	assert.Empty(t, cfg.Backgrounds[0].Type)
	assert.Contains(t, cfg.IconPaths, `/usr/share/pixmaps`)
	assert.Equal(t, `/data/home/icons/hicolor/48x48/apps`, cfg.IconPaths[0])

	_, err = Load(filepath.Join(dir, `missing.toml`))
	assert.Error(t, err)
}

func TestLoadDefaultMissing(t *testing.T) {
	t.Setenv(`XDG_CONFIG_HOME`, t.TempDir())
	t.Setenv(`XDG_DATA_DIRS`, `/usr/share`)
	assert.Equal(t, filepath.Join(os.Getenv(`XDG_CONFIG_HOME`), `deskdeco`, `config.toml`), DefaultPath())
	cfg, err := Load(``)
	require.NoError(t, err)
	assert.Empty(t, cfg.Backgrounds)
	assert.NotEmpty(t, cfg.IconPaths)
}
