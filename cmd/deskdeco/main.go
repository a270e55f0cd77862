package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/srlehn/deskdeco"
	"github.com/srlehn/deskdeco/config"
	"github.com/srlehn/deskdeco/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:              filepath.Base(os.Args[0]),
	Short:            "deskdeco window icons and desktop backgrounds",
	Long:             "deskdeco loads window icons and renders per-desktop root window backgrounds",
	SilenceUsage:     true,
	TraverseChildren: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, `debug`, `d`, false, `debug errors and log at debug level`)
	rootCmd.PersistentFlags().BoolVarP(&silentFlag, `silent`, `s`, false, `silence errors`)
	rootCmd.PersistentFlags().StringVarP(&logFileFlag, `log-file`, `l`, ``, `log file`)
	rootCmd.PersistentFlags().StringVarP(&configFlag, `config`, `c`, ``, `configuration file (default `+config.DefaultPath()+`)`)
	rootCmd.PersistentFlags().StringVar(&displayFlag, `display`, ``, `X display (default $DISPLAY)`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	debugFlag   bool
	silentFlag  bool
	logFileFlag string
	configFlag  string
	displayFlag string
)

type sessionFunc func(s *deskdeco.Session) error

// run opens a started session, calls fn and tears the session down again.
func run(fn sessionFunc) {
	var err error
	var exitCode int
	defer func() {
		if err != nil {
			exitCode = 1
			if !silentFlag {
				if stackFramer, ok := err.(interface{ ErrorStack() string }); debugFlag && ok {
					fmt.Fprintln(os.Stderr, "\n"+stackFramer.ErrorStack())
				} else {
					fmt.Fprintln(os.Stderr, err.Error())
				}
			}
		}
		os.Exit(exitCode)
	}()
	if fn == nil {
		err = errors.NilParam()
		return
	}
	logger, closeLog, errLog := newLogger(logFileFlag, debugFlag)
	if errLog != nil {
		err = errLog
		return
	}
	defer closeLog()

	cfg, errCfg := config.Load(configFlag)
	if errCfg != nil {
		err = errCfg
		return
	}
	s, errOpen := deskdeco.Open(displayFlag, cfg, deskdeco.WithLogger(logger))
	if errOpen != nil {
		err = errOpen
		return
	}
	if err = s.Start(); err != nil {
		_ = s.Close()
		return
	}
	err = errors.Join(fn(s), s.Close())
}

func newLogger(logFile string, debug bool) (_ *slog.Logger, closeFn func(), _ error) {
	lvl := slog.LevelWarn
	if debug {
		lvl = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	noColor := false
	closeFn = func() {}
	if len(logFile) > 0 {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, errors.New(err)
		}
		w, noColor = f, true
		closeFn = func() { _ = f.Close() }
	}
	handler := tint.NewHandler(w, &tint.Options{
		AddSource:  debug,
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
	return slog.New(handler), closeFn, nil
}
