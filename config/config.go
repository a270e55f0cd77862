// Package config reads the deskdeco TOML configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/srlehn/deskdeco/internal/consts"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/xdg"
)

// Config is the decoded configuration file.
//
//	icon_paths = ["~/.icons", "/usr/share/pixmaps"]
//
//	[[background]]
//	type = "gradient"
//	value = "#204060:#000000"
//
//	[[background]]
//	desktop = 1
//	type = "command"
//	value = "feh --bg-fill ~/wall.jpg"
type Config struct {
	IconPaths      []string     `toml:"icon_paths"`
	BorderIconSize int          `toml:"border_icon_size"`
	DisableRender  bool         `toml:"disable_render"`
	Backgrounds    []Background `toml:"background"`

	// keys present in the file but unknown
	Undecoded []string `toml:"-"`
}

// Background is one [[background]] table.
type Background struct {
	Desktop *int   `toml:"desktop"`
	Type    string `toml:"type"`
	Value   string `toml:"value"`
}

// DesktopIndex returns the desktop, -1 for the default background.
func (b Background) DesktopIndex() int {
	if b.Desktop == nil {
		return consts.DesktopDefault
	}
	return *b.Desktop
}

// DefaultPath is $XDG_CONFIG_HOME/deskdeco/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome(), consts.LibraryName, `config.toml`)
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{IconPaths: DefaultIconPaths(xdg.DataDirs())}
}

// DefaultIconPaths lists the hicolor application icon directories and the
// pixmaps directory of every data dir.
func DefaultIconPaths(dataDirs []string) []string {
	var paths []string
	for _, dir := range dataDirs {
		for _, size := range []string{`48x48`, `32x32`, `16x16`, `scalable`} {
			paths = append(paths, filepath.Join(dir, `icons`, `hicolor`, size, `apps`))
		}
		paths = append(paths, filepath.Join(dir, `pixmaps`))
	}
	return paths
}

// Parse decodes TOML data.
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.New(err)
	}
	for _, key := range md.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}
	for i, bg := range cfg.Backgrounds {
		cfg.Backgrounds[i].Type = strings.TrimSpace(bg.Type)
	}
	return cfg, nil
}

// Load reads the file at path. With an empty path the default file is
// used, and a missing default file yields Default().
func Load(path string) (*Config, error) {
	isDefault := len(path) == 0
	if isDefault {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if isDefault && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.New(err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}
	if len(cfg.IconPaths) == 0 {
		cfg.IconPaths = DefaultIconPaths(xdg.DataDirs())
	}
	return cfg, nil
}
