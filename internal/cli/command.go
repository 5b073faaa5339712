// Package cli implements the dirdive command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/dirdive/internal/config"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// options carries flag values and the loaded configuration between commands.
type options struct {
	// ConfigPath is an explicit config file.
	ConfigPath string
	// Debug enables debug logging.
	Debug bool
	// Output is the output format.
	Output string
	// Top limits printed rows (0 = all).
	Top int
	// NoConfirm skips delete confirmations in browse.
	NoConfirm bool
	// Yes skips the confirmation prompt of rm.
	Yes bool
	// Volume selects a scan root by its index in the volume list (1-based).
	Volume int

	cfg config.Config
	log *slog.Logger
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute(ctx context.Context) error {
	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dirdive",
		Short: "Find out which directories use your disk space",
		Long: heredoc.Doc(`
			dirdive lists mounted volumes, measures the size of every subdirectory
			of a directory and lets you drill down into the largest ones.

			Symbolic links are never followed. Unreadable paths are skipped and
			reported, so sizes may undercount when running without privileges.
		`),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a JSON config file")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug output")
	root.PersistentFlags().SortFlags = false

	root.AddCommand(
		volumesCommand(opts),
		scanCommand(opts),
		browseCommand(opts),
		rmCommand(opts),
		initCommand(),
	)

	return root
}

// load reads the config file and applies its values to flags that were not set explicitly.
func (o *options) load(cmd *cobra.Command) error {
	cfg, _, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	o.cfg = cfg

	flags := cmd.Flags()

	if !flags.Changed("debug") {
		o.Debug = cfg.Debug
	}

	if unset(flags, "output") {
		o.Output = cfg.Output
	}

	if unset(flags, "top") {
		o.Top = cfg.Top
	}

	if unset(flags, "no-confirm") {
		o.NoConfirm = !cfg.ConfirmDeletes()
	}

	o.log = newLogger(cmd.ErrOrStderr(), o.Debug)

	return nil
}

// unset reports whether the command defines flag name and it was not given on the command line.
func unset(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)

	return flag != nil && !flag.Changed
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func volumesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "List mounted volumes with used and total space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVolumes(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table or json")

	return cmd
}

func scanCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Measure the subdirectories of a directory",
		Long: heredoc.Doc(`
			Measure every immediate subdirectory of path (default: current directory)
			and print them largest first.

			Output formats:
			  table   human-readable summary
			  json    full result including skipped paths
			  paths   "size<TAB>path" lines, used by the shell integration
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, pathArg(args))
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json or paths")
	cmd.Flags().IntVarP(&opts.Top, "top", "t", 0, "Number of directories to display (0=all)")
	cmd.Flags().SortFlags = false

	return cmd
}

func browseCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [path]",
		Short: "Interactively drill down into a directory",
		Long: heredoc.Doc(`
			Open an interactive view of path (default: current directory).

			Keys:
			  enter      open the selected directory
			  backspace  go up one level
			  b          go back to the starting directory
			  r          rescan
			  d          delete the selected directory
			  q          quit
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && cmd.Flags().Changed("volume") {
				return errors.New("a path and --volume cannot be combined")
			}

			return runBrowse(cmd, opts, pathArg(args))
		},
	}

	cmd.Flags().BoolVar(&opts.NoConfirm, "no-confirm", false, "Delete without confirmation prompts")
	cmd.Flags().IntVar(&opts.Volume, "volume", 0, "Start at the mountpoint of volume N as listed by 'dirdive volumes'")

	return cmd
}

func rmCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a directory and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Output the zsh integration script",
		Long: heredoc.Doc(`
			Output a zsh script defining 'ddive', which drills into directories
			with fzf and changes into the last pick.

			  eval "$(dirdive init)"
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd)
		},
	}
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "."
	}

	return args[0]
}
