// Package exc starts shell commands in the background.
package exc

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"mvdan.cc/sh/interp"
	"mvdan.cc/sh/syntax"

	"github.com/srlehn/deskdeco/internal/errors"
	"github.com/srlehn/deskdeco/internal/logx"
)

// Parse checks the syntax of a shell command.
func Parse(command string) (*syntax.File, error) {
	if len(strings.TrimSpace(command)) == 0 {
		return nil, errors.New(`empty command`)
	}
	f, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(command), ``)
	if err != nil {
		return nil, errors.New(err)
	}
	return f, nil
}

// Runner starts commands without waiting for them to finish.
type Runner interface {
	RunCommand(command string) error
}

var (
	_ Runner              = (*ShellRunner)(nil)
	_ logx.LoggerProvider = (*ShellRunner)(nil)
)

// ShellRunner interprets commands in-process, external programs are
// started as child processes and reaped by the interpreter.
type ShellRunner struct {
	ctx            context.Context
	logger         *slog.Logger
	stdout, stderr io.Writer
	wg             sync.WaitGroup
}

func NewShellRunner(ctx context.Context, logger *slog.Logger) *ShellRunner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ShellRunner{ctx: ctx, logger: logger}
}

// SetOutput redirects the output of subsequently started commands.
func (s *ShellRunner) SetOutput(stdout, stderr io.Writer) {
	if s != nil {
		s.stdout, s.stderr = stdout, stderr
	}
}

func (s *ShellRunner) Logger() *slog.Logger {
	if s == nil {
		return nil
	}
	return s.logger
}

// RunCommand parses command and runs it in a new goroutine.
// Only parse errors are returned.
func (s *ShellRunner) RunCommand(command string) error {
	if s == nil {
		return errors.NilReceiver()
	}
	f, err := Parse(command)
	if err != nil {
		return err
	}
	stdout, stderr := s.stdout, s.stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	runner, err := interp.New(interp.StdIO(nil, stdout, stderr))
	if err != nil {
		return errors.New(err)
	}
	logx.Debug(`starting command`, s, `command`, command)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := runner.Run(s.ctx, f)
		logx.IsErr(err, s, slog.LevelWarn, `command`, command)
	}()
	return nil
}

// Wait blocks until all started commands have finished.
func (s *ShellRunner) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}
