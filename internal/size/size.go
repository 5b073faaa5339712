// Package size formats byte counts for display.
package size

import "fmt"

// unit is the scaling step between consecutive units.
const unit = 1024

//nolint:gochecknoglobals // Lookup table
var units = []string{"B", "KB", "MB", "GB", "TB"}

// Format renders bytes with two decimals and a binary unit suffix, e.g. "1.50 KB".
// Values at or above 1024 TB stay in PB regardless of magnitude.
func Format(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}

	value := float64(bytes)

	for _, u := range units {
		if value < unit {
			return fmt.Sprintf("%.2f %s", value, u)
		}

		value /= unit
	}

	return fmt.Sprintf("%.2f PB", value)
}
