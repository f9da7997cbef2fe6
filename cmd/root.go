package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scienceol/awake/internal/daemon"
	"github.com/scienceol/awake/internal/duration"
)

const helpText = `usage: awake [-d] [<duration> | <datetime>]

Description

    Keep your Mac awake, optionally for the specified duration (e.g. 12h30m) or until the specified datetime (e.g. 2030-01-01T00:00:00).

Options

    -d, --daemon     Run as a daemon.
    -k, --kill       Kill any running awake processes.
    -h, --help       Print help.
    -v, --version    Print version.`

// usageError marks errors that should be followed by the help text.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type flags struct {
	daemon   bool
	kill     bool
	detached bool
	verbose  bool
	quiet    bool
	noReexec bool
	config   string
	logFile  string
	pidFile  string
}

// forward returns the flags a re-executed or detached copy must inherit.
func (f *flags) forward() []string {
	var args []string
	if f.verbose {
		args = append(args, "--verbose")
	}
	if f.quiet {
		args = append(args, "--quiet")
	}
	if f.noReexec {
		args = append(args, "--no-reexec")
	}
	if f.config != "" {
		args = append(args, "--config", f.config)
	}
	if f.logFile != "" {
		args = append(args, "--log-file", f.logFile)
	}
	if f.pidFile != "" {
		args = append(args, "--pid-file", f.pidFile)
	}
	return args
}

func newRootCmd(d deps) *cobra.Command {
	f := &flags{}
	a := &app{deps: d, flags: f}

	cmd := &cobra.Command{
		Use:   "awake [<duration> | <datetime>]",
		Short: "Keep your Mac awake",
		Long: `Keep your Mac awake, optionally for the specified duration (e.g. 12h30m)
or until the specified datetime (e.g. 2030-01-01T00:00:00).`,
		Args: func(c *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(c, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.run,
	}
	setVersion(cmd)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		fmt.Fprintln(c.OutOrStdout(), helpText)
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	fl := cmd.Flags()
	fl.BoolVarP(&f.daemon, "daemon", "d", false, "Run as a daemon")
	fl.BoolVar(&f.daemon, "daemonize", false, "Run as a daemon")
	fl.BoolVarP(&f.kill, "kill", "k", false, "Kill any running awake processes")
	fl.BoolVar(&f.detached, daemon.DetachedFlag[2:], false, "Internal: running as the detached daemon")
	fl.BoolVar(&f.verbose, "verbose", false, "Log debug output")
	fl.BoolVar(&f.quiet, "quiet", false, "Log errors only")
	fl.BoolVar(&f.noReexec, "no-reexec", false, "Do not re-execute with the resolved end datetime")
	fl.StringVar(&f.config, "config", "", "Config file (default ~/.awake/config.yaml)")
	fl.StringVar(&f.logFile, "log-file", "", "Daemon log file (default ~/.awake/logs/awake.log)")
	fl.StringVar(&f.pidFile, "pid-file", "", "Daemon pid file (default ~/.awake/awake.pid)")
	_ = fl.MarkHidden("daemonize")
	_ = fl.MarkHidden(daemon.DetachedFlag[2:])

	return cmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd(defaultDeps())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if isUsageError(err) {
			fmt.Fprintln(os.Stderr, helpText)
		}
		os.Exit(1)
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	var pe *duration.ParseError
	return errors.As(err, &ue) || errors.As(err, &pe)
}
