package size

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	const (
		kb = int64(1024)
		mb = kb * 1024
		gb = mb * 1024
		tb = gb * 1024
		pb = tb * 1024
	)

	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0.00 B"},
		{1, "1.00 B"},
		{1023, "1023.00 B"},
		{kb, "1.00 KB"},
		{1536, "1.50 KB"},
		{mb, "1.00 MB"},
		{5*mb + mb/4, "5.25 MB"},
		{gb, "1.00 GB"},
		{tb, "1.00 TB"},
		{pb, "1.00 PB"},
		{pb * 1024, "1024.00 PB"},
		{pb * 3, "3.00 PB"},
		{-10, "0.00 B"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.bytes))
		})
	}
}

func TestFormatIsStable(t *testing.T) {
	assert.Equal(t, Format(123456789), Format(123456789))
}
