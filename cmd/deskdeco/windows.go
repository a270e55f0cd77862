package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srlehn/deskdeco"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm"
	"github.com/srlehn/deskdeco/wm/x11"
)

func init() {
	rootCmd.AddCommand(windowsCmd)
}

var windowsCmd = &cobra.Command{
	Use:   `windows [window id...]`,
	Short: `show window icons`,
	Long:  `resolve the icons of the given or all managed windows`,
	Run: func(cmd *cobra.Command, args []string) {
		run(windowsFunc(args))
	},
}

func windowsFunc(args []string) sessionFunc {
	return func(s *deskdeco.Session) error {
		xu, err := x11.XUtil(s.Conn())
		if err != nil {
			return err
		}
		var ws []wm.Window
		if len(args) == 0 {
			if ws, err = x11.Clients(xu); err != nil {
				return err
			}
		}
		for _, arg := range args {
			// accepts 0x prefixed ids as printed by xwininfo
			id, err := strconv.ParseUint(arg, 0, 32)
			if err != nil {
				return errors.New(err)
			}
			ws = append(ws, wm.Window(id))
		}
		for _, w := range ws {
			info, err := x11.Client(xu, w)
			if err != nil {
				return err
			}
			fmt.Printf("0x%08x\t%s\t%s.%s\tpid %d\n", uint32(w), info.Name, info.Instance, info.Class, info.PID)
			ic := s.ClientIcon(w, info.Instance)
			if ic == nil {
				continue
			}
			printIcon(ic)
		}
		return nil
	}
}
