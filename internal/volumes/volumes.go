// Package volumes lists mounted filesystems and their usage.
package volumes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sync/errgroup"
)

//nolint:gochecknoglobals // Replaced in tests
var (
	partitions = disk.PartitionsWithContext
	usage      = disk.UsageWithContext
)

// Volume represents one mounted partition.
type Volume struct {
	// Device is the device name, e.g. /dev/sda1.
	Device string `json:"device"`
	// Mountpoint is where the volume is mounted; it is a valid scan root.
	Mountpoint string `json:"mountpoint"`
	// Fstype is the filesystem type.
	Fstype string `json:"fstype"`
	// Used is the number of bytes in use.
	Used uint64 `json:"used_bytes"`
	// Total is the capacity in bytes.
	Total uint64 `json:"total_bytes"`
	// Percent is the used share of Total, 0-100.
	Percent float64 `json:"percent_used"`
	// Err describes why usage could not be read, e.g. access denied.
	Err string `json:"error,omitempty"`
}

// List returns one Volume per mounted partition, in mount order.
// A partition whose usage cannot be read is kept with Err set.
func List(ctx context.Context, log *slog.Logger) ([]Volume, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	parts, err := partitions(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	vols := make([]Volume, len(parts))

	g, ctx := errgroup.WithContext(ctx)

	for i, part := range parts {
		vols[i] = Volume{
			Device:     part.Device,
			Mountpoint: part.Mountpoint,
			Fstype:     part.Fstype,
		}

		g.Go(func() error {
			stat, err := usage(ctx, part.Mountpoint)
			if err != nil {
				log.Warn("could not get disk usage", "mountpoint", part.Mountpoint, "error", err)
				vols[i].Err = err.Error()

				return nil
			}

			vols[i].Used = stat.Used
			vols[i].Total = stat.Total
			vols[i].Percent = stat.UsedPercent

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vols, nil
}
