package volumes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDisk(t *testing.T, parts []disk.PartitionStat, partErr error, usages map[string]*disk.UsageStat) {
	t.Helper()

	oldPartitions, oldUsage := partitions, usage

	t.Cleanup(func() {
		partitions, usage = oldPartitions, oldUsage
	})

	partitions = func(context.Context, bool) ([]disk.PartitionStat, error) {
		return parts, partErr
	}

	usage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		if u, ok := usages[path]; ok {
			return u, nil
		}

		return nil, fmt.Errorf("statfs %s: permission denied", path)
	}
}

func TestList(t *testing.T) {
	stubDisk(t, []disk.PartitionStat{
		{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4"},
		{Device: "/dev/sdb1", Mountpoint: "/data", Fstype: "xfs"},
		{Device: "tmpfs", Mountpoint: "/secret", Fstype: "tmpfs"},
	}, nil, map[string]*disk.UsageStat{
		"/":     {Total: 1000, Used: 250, UsedPercent: 25},
		"/data": {Total: 4096, Used: 4096, UsedPercent: 100},
	})

	vols, err := List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, vols, 3)

	assert.Equal(t, Volume{
		Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4",
		Used: 250, Total: 1000, Percent: 25,
	}, vols[0])
	assert.Equal(t, "/data", vols[1].Mountpoint)
	assert.InDelta(t, 100.0, vols[1].Percent, 0.001)
	assert.Equal(t, "/secret", vols[2].Mountpoint)
	assert.Contains(t, vols[2].Err, "permission denied")
	assert.Zero(t, vols[2].Total)
}

func TestList_PartitionsError(t *testing.T) {
	stubDisk(t, nil, errors.New("no /proc"), nil)

	_, err := List(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing partitions")
}
