package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srlehn/deskdeco"
	"github.com/srlehn/deskdeco/icon"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/xdg"
)

func init() {
	rootCmd.AddCommand(iconCmd)
	iconCmd.Flags().BoolVarP(&iconDesktopEntryFlag, `desktop-entry`, `e`, false, `resolve the name through the application desktop entries`)
	iconCmd.Flags().BoolVar(&iconDrawFlag, `draw`, false, `draw the icon onto the root window`)
	iconCmd.Flags().IntVar(&iconXFlag, `x`, 0, `x position on the root window`)
	iconCmd.Flags().IntVar(&iconYFlag, `y`, 0, `y position on the root window`)
	iconCmd.Flags().IntVar(&iconSizeFlag, `size`, 48, `box size the icon is fitted into`)
}

var iconCmd = &cobra.Command{
	Use:   `icon <name>`,
	Short: `load an icon from the icon paths`,
	Long:  `load an icon by name from the configured icon paths and print its frames`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(iconFunc(args[0]))
	},
}

var (
	iconDesktopEntryFlag bool
	iconDrawFlag         bool
	iconXFlag            int
	iconYFlag            int
	iconSizeFlag         int
)

func iconFunc(name string) sessionFunc {
	return func(s *deskdeco.Session) error {
		if iconDesktopEntryFlag {
			n, err := xdg.DesktopEntryIcon(name, xdg.DataDirs())
			if err != nil {
				return err
			}
			name = n
		}
		ic := s.Icons().LoadNamedIcon(name)
		if ic == nil {
			return errors.Errorf(`icon %q not found in %q`, name, s.Icons().IconPaths())
		}
		printIcon(ic)
		if iconDrawFlag {
			root := s.Conn().Root()
			fg := s.Conn().RGBPixel(0, 0, 0)
			s.Icons().PutIcon(ic, root.Drawable(), fg, iconXFlag, iconYFlag, iconSizeFlag, iconSizeFlag)
		}
		s.Icons().Release(ic)
		return nil
	}
}

func printIcon(ic *icon.Icon) {
	name := ic.Name()
	if len(name) == 0 {
		name = `(window property)`
	}
	fmt.Println(name)
	for _, f := range ic.Frames() {
		kind := `argb`
		if f.Bitmap {
			kind = `bitmap`
		}
		fmt.Printf("\t%dx%d\t%s\n", f.Width, f.Height, kind)
	}
}
