package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveCount(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	_, err = New(-4)
	assert.Error(t, err)
}

func TestFirstSampleSetsAllFields(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	irq := &s.CPU(0).IRQ
	assert.False(t, irq.Seen())
	assert.Zero(t, irq.Count)

	s.Record(0, false, 120)

	assert.True(t, irq.Seen())
	assert.Equal(t, uint64(1), irq.Count)
	assert.Equal(t, uint64(120), irq.Cur)
	assert.Equal(t, uint64(120), irq.Min)
	assert.Equal(t, uint64(120), irq.Max)
	assert.Equal(t, uint64(120), irq.Avg())
}

func TestExampleSequence(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	s.Record(0, false, 100)
	s.Record(0, false, 50)
	s.Record(0, true, 200)

	irq := s.CPU(0).IRQ
	assert.Equal(t, uint64(2), irq.Count)
	assert.Equal(t, uint64(50), irq.Min)
	assert.Equal(t, uint64(100), irq.Max)
	assert.Equal(t, uint64(75), irq.Avg())
	assert.Equal(t, uint64(50), irq.Cur, "cur tracks the latest sample")

	th := s.CPU(0).Thread
	assert.Equal(t, uint64(1), th.Count)
	assert.Equal(t, uint64(200), th.Min)
	assert.Equal(t, uint64(200), th.Max)
	assert.Equal(t, uint64(200), th.Cur)
}

func TestExtremesStayMonotonic(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	samples := []uint64{300, 10, 7000, 42, 42, 9, 150000, 9}
	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		s.Record(0, true, v)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		th := s.CPU(0).Thread
		assert.Equal(t, lo, th.Min)
		assert.Equal(t, hi, th.Max)
		assert.Equal(t, v, th.Cur)
	}
}

func TestAvgBoundedByExtremes(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	for _, v := range []uint64{981, 12, 55, 101, 3, 8800} {
		s.Record(0, false, v)
		irq := s.CPU(0).IRQ
		avg := irq.Avg()
		assert.GreaterOrEqual(t, avg, irq.Min)
		assert.LessOrEqual(t, avg, irq.Max)
	}
}

func TestZeroLatencySampleCountsAsSeen(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	s.Record(0, false, 0)

	irq := s.CPU(0).IRQ
	assert.True(t, irq.Seen())
	assert.Equal(t, uint64(0), irq.Min)
	assert.Equal(t, uint64(0), irq.Max)
}

func TestRecordIgnoresOutOfRangeCPU(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	s.Record(-1, false, 10)
	s.Record(2, false, 10)
	s.Record(99, true, 10)

	for _, c := range s.Snapshot() {
		assert.True(t, c.Idle())
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)

	s.Record(0, false, 5)
	snap := s.Snapshot()
	s.Record(0, false, 500)

	assert.Equal(t, uint64(1), snap[0].IRQ.Count)
	assert.Equal(t, uint64(5), snap[0].IRQ.Max)
	assert.Equal(t, uint64(2), s.CPU(0).IRQ.Count)
}

func TestIdle(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	s.Record(1, true, 77)

	assert.True(t, s.CPU(0).Idle())
	assert.False(t, s.CPU(1).Idle())
}
