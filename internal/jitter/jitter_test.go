package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavemesh/wavemesh/internal/transport"
)

func packetWithSeq(seq uint16) transport.Packet {
	return transport.NewPacket(seq, 0, 1, nil)
}

func TestJitterReorderScenario(t *testing.T) {
	b := New(DefaultConfig())

	require.NoError(t, b.Push(packetWithSeq(1)))
	require.NoError(t, b.Push(packetWithSeq(3)))
	require.NoError(t, b.Push(packetWithSeq(2)))

	var got []uint16
	for i := 0; i < 3; i++ {
		p, err := b.Pop()
		require.NoError(t, err)
		got = append(got, p.Header.Sequence)
	}
	assert.Equal(t, []uint16{1, 2, 3}, got)
}

func TestJitterLateDropScenario(t *testing.T) {
	b := New(DefaultConfig())

	require.NoError(t, b.Push(packetWithSeq(100)))
	require.NoError(t, b.Push(packetWithSeq(101)))
	require.NoError(t, b.Push(packetWithSeq(102)))

	_, err := b.Pop()
	require.NoError(t, err)
	_, err = b.Pop()
	require.NoError(t, err)

	lenBefore := b.Len()
	err = b.Push(packetWithSeq(99))
	assert.ErrorIs(t, err, ErrTooOld)
	assert.Equal(t, lenBefore, b.Len())
}

func TestJitterFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPackets = 2
	b := New(cfg)

	require.NoError(t, b.Push(packetWithSeq(1)))
	require.NoError(t, b.Push(packetWithSeq(2)))
	err := b.Push(packetWithSeq(3))
	assert.ErrorIs(t, err, ErrFull)
}

func TestJitterUnderrun(t *testing.T) {
	b := New(DefaultConfig())
	_, err := b.Pop()
	assert.ErrorIs(t, err, ErrUnderrun)
}

func TestJitterReadyRequiresMinimumThree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetDelay = 0
	b := New(cfg)
	require.NoError(t, b.Push(packetWithSeq(1)))
	require.NoError(t, b.Push(packetWithSeq(2)))
	assert.False(t, b.Ready())
	require.NoError(t, b.Push(packetWithSeq(3)))
	assert.True(t, b.Ready())
}

func TestJitterReadyHonorsConfiguredBlockDuration(t *testing.T) {
	cfg := Config{
		TargetDelay:   100 * time.Millisecond,
		MaxDelay:      400 * time.Millisecond,
		MaxPackets:    100,
		BlockDuration: 10 * time.Millisecond, // non-default block size
	}
	b := New(cfg)
	for seq := uint16(0); seq < 9; seq++ {
		require.NoError(t, b.Push(packetWithSeq(seq)))
	}
	assert.False(t, b.Ready()) // needs 10 packets at 10ms blocks for 100ms target
	require.NoError(t, b.Push(packetWithSeq(9)))
	assert.True(t, b.Ready())
}

func TestJitterWraparoundPopOrder(t *testing.T) {
	b := New(DefaultConfig())
	require.NoError(t, b.Push(packetWithSeq(65534)))
	require.NoError(t, b.Push(packetWithSeq(65535)))

	p1, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint16(65534), p1.Header.Sequence)

	require.NoError(t, b.Push(packetWithSeq(0)))
	p2, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), p2.Header.Sequence)

	p3, err := b.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint16(0), p3.Header.Sequence)
}

func TestJitterStatsAndReset(t *testing.T) {
	b := New(DefaultConfig())
	b.Push(packetWithSeq(1))
	b.Push(packetWithSeq(2))
	stats := b.Stats()
	assert.Equal(t, 2, stats.Buffered)
	assert.Equal(t, uint64(2), stats.Received)

	b.Reset()
	assert.Equal(t, 0, b.Len())
}
