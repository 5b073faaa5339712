package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/idelchi/dirdive/internal/deleter"
	"github.com/idelchi/dirdive/internal/dirstat"
	"github.com/idelchi/dirdive/internal/integration"
	"github.com/idelchi/dirdive/internal/navigation"
	"github.com/idelchi/dirdive/internal/tui"
	"github.com/idelchi/dirdive/internal/volumes"
)

//nolint:gochecknoglobals // Replaced in tests
var (
	listVolumes = volumes.List
	runBrowser  = tui.Run
	executable  = os.Executable
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runScan(cmd *cobra.Command, opts *options, path string) error {
	if opts.Top < 0 {
		return errors.New("top cannot be negative")
	}

	output := strings.ToLower(opts.Output)
	stderr := cmd.ErrOrStderr()

	interval, err := opts.cfg.Interval()
	if err != nil {
		return err
	}

	enableProgress := output == "table" && !opts.Debug && isTerminal(stderr)

	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Scanning %s… %s files, %s",
				path, humanize.Comma(files), humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	scanner := dirstat.Scanner{
		Logger:           opts.log,
		Progress:         progressHook,
		ProgressInterval: interval,
	}

	res, err := scanner.Scan(cmd.Context(), path)

	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	for _, skipped := range res.Skipped {
		opts.log.Debug("skipped", "path", skipped)
	}

	out := cmd.OutOrStdout()

	switch output {
	case "json":
		return PrintJSON(res, out)
	case "table":
		return PrintTable(res, opts.Top, out)
	case "paths":
		return PrintPaths(res, out)
	default:
		return fmt.Errorf("unknown output format: %s", opts.Output)
	}
}

func runVolumes(cmd *cobra.Command, opts *options) error {
	output := strings.ToLower(opts.Output)

	// "paths" may come from the config file, where it targets scan.
	if output == "paths" && !cmd.Flags().Changed("output") {
		output = "table"
	}

	vols, err := listVolumes(cmd.Context(), opts.log)
	if err != nil {
		return err
	}

	switch output {
	case "json":
		return PrintJSON(vols, cmd.OutOrStdout())
	case "table":
		return PrintVolumes(vols, cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown output format: %s", opts.Output)
	}
}

func runBrowse(cmd *cobra.Command, opts *options, path string) error {
	ctx := cmd.Context()

	if opts.Volume != 0 {
		vols, err := listVolumes(ctx, opts.log)
		if err != nil {
			return err
		}

		if opts.Volume < 1 || opts.Volume > len(vols) {
			return fmt.Errorf("volume %d out of range: %d volumes mounted", opts.Volume, len(vols))
		}

		path = vols[opts.Volume-1].Mountpoint
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", path, err)
	}

	log, closeLog, err := browseLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()

	session := navigation.NewSession(dirstat.Scanner{Logger: log}, deleter.Deleter{Logger: log})

	return runBrowser(ctx, session, tui.Options{
		Root:    root,
		Confirm: !opts.NoConfirm,
		Logger:  log,
	})
}

// browseLogger keeps log records off the terminal while the browser owns it.
// With debug enabled they go to a file in the temp directory.
func browseLogger(opts *options) (*slog.Logger, func(), error) {
	if !opts.Debug {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	f, err := os.CreateTemp("", "dirdive-*.log")
	if err != nil {
		return nil, nil, fmt.Errorf("creating debug log: %w", err)
	}

	opts.log.Warn("writing debug log", "path", f.Name())

	return newLogger(f, true), func() { _ = f.Close() }, nil
}

func runDelete(cmd *cobra.Command, opts *options, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", path, err)
	}

	if !opts.Yes && opts.cfg.ConfirmDeletes() {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %s and everything below it?", target))
		if err != nil {
			return err
		}

		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")

			return nil
		}
	}

	if err := (deleter.Deleter{Logger: opts.log}).Delete(target); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", target)

	return nil
}

// confirm asks a yes/no question; anything but "y" or "yes" is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func runInit(cmd *cobra.Command) error {
	binary, err := executable()
	if err != nil {
		binary = ""
	}

	script, err := integration.Render(binary)
	if err != nil {
		return fmt.Errorf("rendering shell integration: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), script)

	return nil
}
