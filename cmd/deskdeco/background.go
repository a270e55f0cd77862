package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srlehn/deskdeco"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm/x11"
)

func init() {
	rootCmd.AddCommand(backgroundCmd)
	backgroundCmd.Flags().BoolVar(&backgroundListFlag, `list`, false, `list the configured backgrounds`)
}

var backgroundCmd = &cobra.Command{
	Use:   `background [desktop]`,
	Short: `set the root window background`,
	Long:  `set the background of the given or the current desktop once`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(backgroundFunc(args))
	},
}

var backgroundListFlag bool

func backgroundFunc(args []string) sessionFunc {
	return func(s *deskdeco.Session) error {
		if backgroundListFlag {
			for _, d := range s.Backgrounds().Descriptors() {
				fmt.Printf("%d\t%s\t%s\n", d.Desktop, d.Type, d.Value)
			}
			return nil
		}
		var desktop int
		if len(args) > 0 {
			d, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(err)
			}
			desktop = d
		} else {
			xu, err := x11.XUtil(s.Conn())
			if err != nil {
				return err
			}
			if desktop, err = x11.CurrentDesktop(xu); err != nil {
				return err
			}
		}
		s.SwitchDesktop(desktop)
		// command backgrounds run asynchronously
		s.Runner().Wait()
		return nil
	}
}
