package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srlehn/deskdeco"
	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/wm/x11"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   `run`,
	Short: `follow desktop switches`,
	Long:  `apply the configured background whenever the current desktop changes, until interrupted`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(runFunc)
	},
}

func runFunc(s *deskdeco.Session) error {
	xu, err := x11.XUtil(s.Conn())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = x11.WatchDesktop(ctx, xu, s.SwitchDesktop)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
