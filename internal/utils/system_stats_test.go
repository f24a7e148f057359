package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePool struct{}

func (fakePool) WorkerCount() int   { return 4 }
func (fakePool) ActiveJobs() int    { return 1 }
func (fakePool) QueueCapacity() int { return 8 }

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 Bytes", FormatBytes(512))
	require.Equal(t, "1.50 KB", FormatBytes(1536))
	require.Equal(t, "2.00 MB", FormatBytes(2*1024*1024))
	require.Equal(t, "1.00 GB", FormatBytes(1<<30))
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(fakePool{})
	require.Positive(t, s.NumCPU)
	require.Positive(t, s.GoRoutines)
	require.Equal(t, 4, s.WorkerCount)
	require.Equal(t, 1, s.ActiveJobs)
	require.Equal(t, 8, s.QueueCapacity)
	require.False(t, s.Timestamp.IsZero())

	s = Snapshot(nil)
	require.Zero(t, s.WorkerCount)
}
