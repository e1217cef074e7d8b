// Package cli implements the kubescroll command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/HamStudy/kubescroll/internal/config"
	"github.com/HamStudy/kubescroll/internal/logging"
	"github.com/HamStudy/kubescroll/internal/source"
)

// Command annotations read by the root pre-run hook
const (
	// annotationTUI marks commands that take over the terminal
	annotationTUI = "kubescroll/tui"
	// annotationNoConfig marks commands that must run with a broken config file
	annotationNoConfig = "kubescroll/no-config"
)

// rootFlags holds the persistent flags shared by every command
type rootFlags struct {
	configPath string
	debug      bool
	logLevel   string
	kubeconfig string
	context    string
	namespace  string
	buffer     int
	mode       string
	theme      string
	follow     bool
	wrap       bool
}

// session carries the state set up before a command runs
type session struct {
	version string
	flags   rootFlags
	loader  *config.Loader
	cfg     *config.Config
	log     *logging.Result
	logger  zerolog.Logger
	getenv  func(string) string
}

// isTerminal reports whether w is a terminal
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRootCmd creates the root command. Without a subcommand it scrolls a
// file, or stdin when given "-" or when data is piped in.
func NewRootCmd(ver string) *cobra.Command {
	return newRootCmd(ver, os.Getenv)
}

func newRootCmd(ver string, getenv func(string) string) *cobra.Command {
	s := &session{version: ver, getenv: getenv, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "kubescroll [file|-]",
		Short: "Scroll logs, events and pods in a virtualized terminal list",
		Long: `kubescroll renders long streams of variable-height entries in a terminal
list that only lays out what is on screen. Entries come from files, stdin,
container logs, cluster events or pod listings.`,
		Version:      ver,
		Example:      rootCmdExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		Annotations:  map[string]string{annotationTUI: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if s.log == nil {
				return nil
			}
			return s.log.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			} else if !isTerminal(cmd.InOrStdin()) {
				path = "-"
			}
			if path == "" {
				return cmd.Help()
			}
			return s.run(cmd, s.fileSource(cmd, path))
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&s.flags.configPath, "config", "", "config file (default ~/.config/kubescroll/config.yaml)")
	f.BoolVar(&s.flags.debug, "debug", false, "enable debug logging and layout statistics")
	f.StringVar(&s.flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	f.StringVar(&s.flags.kubeconfig, "kubeconfig", "", "path to the kubeconfig file")
	f.StringVar(&s.flags.context, "context", "", "kubeconfig context to use")
	f.StringVarP(&s.flags.namespace, "namespace", "n", "", "namespace scope")
	f.IntVar(&s.flags.buffer, "buffer", 0, "items rendered beyond each edge of the viewport")
	f.StringVar(&s.flags.mode, "mode", "", "line grouping: line, multiline or paragraph")
	f.StringVar(&s.flags.theme, "theme", "", "color theme: default, light or high-contrast")
	f.BoolVarP(&s.flags.follow, "follow", "f", false, "keep reading new data and stick to the bottom")
	f.BoolVar(&s.flags.wrap, "wrap", false, "soft-wrap long lines")

	cmd.AddCommand(
		newLogsCmd(s),
		newEventsCmd(s),
		newPodsCmd(s),
		newWindowCmd(s),
		newConfigCmd(s),
		newVersionCmd(s),
	)
	return cmd
}

const rootCmdExample = `  # Scroll a log file
  kubescroll app.log

  # Follow a growing file
  kubescroll -f /var/log/app.log

  # Read from a pipe
  journalctl -u kubelet | kubescroll

  # Stream container logs
  kubescroll logs -n kube-system coredns-5d78c9869d-abcde -f

  # Watch cluster events
  kubescroll events -n default`

// setup loads the configuration, applies environment and flag overrides
// and builds the logger
func (s *session) setup(cmd *cobra.Command) error {
	s.loader = config.NewLoader(s.flags.configPath)
	if cmd.Annotations[annotationNoConfig] == "true" {
		s.cfg = config.Defaults()
	} else {
		if err := s.loader.Load(); err != nil {
			return err
		}
		s.cfg = s.loader.Get()
	}
	if err := s.cfg.ApplyEnv(s.getenv); err != nil {
		return err
	}
	if err := s.applyFlags(cmd); err != nil {
		return err
	}

	result, err := logging.New(logging.Config{
		Level:       s.cfg.Logging.Level,
		File:        s.cfg.Logging.File,
		Interactive: s.interactive(cmd),
		Stderr:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	s.log = result
	s.logger = result.Logger
	s.logger.Debug().
		Str("command", cmd.CommandPath()).
		Str("config", s.loader.Path()).
		Str("log_file", result.FilePath).
		Msg("kubescroll starting")
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func (s *session) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("theme") {
		s.cfg.Theme = s.flags.theme
	}
	if flags.Changed("buffer") {
		s.cfg.Viewport.Buffer = s.flags.buffer
	}
	if flags.Changed("mode") {
		s.cfg.Sources.Mode = s.flags.mode
	}
	if flags.Changed("follow") {
		s.cfg.Follow = s.flags.follow
	}
	if flags.Changed("wrap") {
		s.cfg.Wrap = s.flags.wrap
	}
	if flags.Changed("log-level") {
		s.cfg.Logging.Level = s.flags.logLevel
	}
	if s.flags.debug {
		s.cfg.Logging.Level = zerolog.DebugLevel.String()
	}
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// interactive reports whether cmd will take over the terminal
func (s *session) interactive(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationTUI] == "true" && isTerminal(cmd.OutOrStdout())
}

func (s *session) mode() source.Mode {
	mode, err := source.ParseMode(s.cfg.Sources.Mode)
	if err != nil {
		return source.ModeMultiline
	}
	return mode
}

// fileSource reads path, or the command input when path is "-"
func (s *session) fileSource(cmd *cobra.Command, path string) source.Source {
	opts := source.FileOptions{
		Mode:         s.mode(),
		Follow:       s.cfg.Follow,
		PollInterval: s.cfg.Sources.PollInterval,
		Logger:       logging.Component(s.logger, "source"),
	}
	if path == "-" {
		return source.NewReaderSource("stdin", cmd.InOrStdin(), opts)
	}
	return source.NewFileSource(path, opts)
}

// errNoInput is returned by commands that need entries but got none
var errNoInput = errors.New("no input: pass a file or pipe data to stdin")
