// Package xdg resolves XDG base directories and application desktop
// entries.
package xdg

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rkoesters/xdg/desktop"

	"github.com/srlehn/deskdeco/internal/errors"
)

// ConfigHome returns $XDG_CONFIG_HOME or its default ~/.config.
func ConfigHome() string {
	if dir, ok := os.LookupEnv(`XDG_CONFIG_HOME`); ok && filepath.IsAbs(dir) {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ``
	}
	return filepath.Join(home, `.config`)
}

// DataDirs returns $XDG_DATA_HOME followed by $XDG_DATA_DIRS, in
// preference order.
func DataDirs() []string {
	var dirs []string
	if dir, ok := os.LookupEnv(`XDG_DATA_HOME`); ok && filepath.IsAbs(dir) {
		dirs = append(dirs, dir)
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, `.local`, `share`))
	}
	xdgDataDirsStr, okDirs := os.LookupEnv(`XDG_DATA_DIRS`)
	if okDirs && len(xdgDataDirsStr) > 0 {
		for _, d := range strings.Split(xdgDataDirsStr, `:`) {
			if filepath.IsAbs(d) {
				dirs = append(dirs, d)
			}
		}
	} else {
		dirs = append(dirs, `/usr/local/share`, `/usr/share`)
	}
	return dirs
}

// DesktopEntryIcon returns the Icon value of the application desktop entry
// named name (without .desktop suffix) or with a StartupWMClass of name.
func DesktopEntryIcon(name string, dataDirs []string) (string, error) {
	if len(name) == 0 {
		return ``, errors.New(`empty application name`)
	}
	var found string
	var walkDirFunc fs.WalkDirFunc = func(filename string, d fs.DirEntry, err error) error {
		if err != nil || d == nil || d.IsDir() || !strings.HasSuffix(filename, `.desktop`) {
			return nil
		}
		f, err := os.Open(filename)
		if err != nil {
			return nil
		}
		defer f.Close()
		entry, err := desktop.New(f)
		if err != nil || entry == nil || len(entry.Icon) == 0 {
			return nil
		}
		if strings.TrimSuffix(filepath.Base(filename), `.desktop`) == name ||
			strings.EqualFold(entry.StartupWMClass, name) {
			found = entry.Icon
			return fs.SkipAll
		}
		return nil
	}
	for _, dir := range dataDirs {
		_ = filepath.WalkDir(filepath.Join(dir, `applications`), walkDirFunc)
		if len(found) > 0 {
			return found, nil
		}
	}
	return ``, errors.Errorf(`no desktop entry for %q`, name)
}
