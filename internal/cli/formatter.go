package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/dirdive/internal/dirstat"
	"github.com/idelchi/dirdive/internal/size"
	"github.com/idelchi/dirdive/internal/volumes"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs v in indented JSON format.
func PrintJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// percent returns part as a percentage of whole.
func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(whole)
}

// PrintTable outputs a scan result in human-readable table format, largest first.
// A positive top limits the number of rows.
func PrintTable(res dirstat.Result, top int, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	entries := res.Entries
	if top > 0 && len(entries) > top {
		entries = entries[:top]
	}

	total := res.Total()

	fmt.Fprintf(w, "\nDirectories in %s:\t\t\n", res.Path)

	if len(entries) == 0 {
		fmt.Fprintln(w, "  (no subdirectories)\t\t")
	}

	for i, e := range entries {
		fmt.Fprintf(w, "  %d) %s\t%s\t(%.1f%%)\n", i+1, e.Name(), size.Format(e.Size), percent(e.Size, total))
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total directories:\t%d\t\n", len(res.Entries))
	fmt.Fprintf(w, "Total files:\t%s\t\n", humanize.Comma(res.Files))
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\t\n", size.Format(total), total)

	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped paths:\t%d\t\n", len(res.Skipped))
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\t\n", res.Elapsed)

	return w.Flush()
}

// PrintPaths outputs one "size<TAB>path" line per entry, for piping into fzf.
func PrintPaths(res dirstat.Result, writer io.Writer) error {
	for _, e := range res.Entries {
		if _, err := fmt.Fprintf(writer, "%s\t%s\n", size.Format(e.Size), e.Path); err != nil {
			return err
		}
	}

	return nil
}

// PrintVolumes outputs mounted volumes in table format.
func PrintVolumes(vols []volumes.Volume, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "#\tDevice\tMountpoint\tType\tUsed\tTotal\tUse%")

	for i, v := range vols {
		if v.Err != "" {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t-\t-\tAccess Denied\n", i+1, v.Device, v.Mountpoint, v.Fstype)

			continue
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.1f%%\n",
			i+1, v.Device, v.Mountpoint, v.Fstype,
			size.Format(int64(v.Used)),  //nolint:gosec // Disk sizes fit in int64
			size.Format(int64(v.Total)), //nolint:gosec // Disk sizes fit in int64
			v.Percent)
	}

	return w.Flush()
}
