package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockSyncIsNoOp(t *testing.T) {
	c := NewSystemClock()
	before := c.Now()
	c.SyncTo(Timestamp{Seconds: 99999})
	after := c.Now()
	assert.Equal(t, SourceSystem, after.Source)
	assert.True(t, after.ToDuration() >= before.ToDuration())
	assert.Equal(t, time.Duration(0), c.Skew())
}

func TestPTPSyncScenario(t *testing.T) {
	c := NewPTPClock()
	c.SyncTo(Timestamp{Seconds: 2000})
	now := c.Now()
	assert.GreaterOrEqual(t, now.Seconds, uint64(2000))
	assert.Equal(t, SourcePTP, now.Source)
}

func TestPTPOffsetNeverNegative(t *testing.T) {
	c := NewPTPClock()
	// reference far in the past relative to the host clock: offset
	// clamps to zero rather than going negative.
	c.SyncTo(Timestamp{Seconds: 1})
	assert.Equal(t, time.Duration(0), c.offset)
}

func TestPTPResetZeroesOffset(t *testing.T) {
	c := NewPTPClock()
	c.SyncTo(Timestamp{Seconds: uint64(time.Now().Unix()) + 3600})
	assert.NotZero(t, c.offset)
	c.Reset()
	assert.Zero(t, c.offset)
	assert.Zero(t, c.Skew())
}

func TestNTPConvergesGradually(t *testing.T) {
	c := NewNTPClock()
	target := Timestamp{Seconds: uint64(time.Now().Unix()) + 100}

	c.SyncTo(target)
	firstOffset := c.offset
	assert.NotZero(t, firstOffset)

	c.SyncTo(target)
	secondOffset := c.offset
	assert.Greater(t, secondOffset, firstOffset)
}

func TestSelectorDefaultsToSystem(t *testing.T) {
	s := NewSelector()
	assert.Equal(t, SourceSystem, s.Active().Source())
}

func TestSelectorSwitchResetsOffset(t *testing.T) {
	s := NewSelector()
	s.Select(SourcePTP)
	s.ptp.SyncTo(Timestamp{Seconds: uint64(time.Now().Unix()) + 3600})
	assert.NotZero(t, s.ptp.offset)

	s.Select(SourceNTP)
	s.Select(SourcePTP)
	assert.Zero(t, s.ptp.offset)
}

func TestTimestampSkewFrom(t *testing.T) {
	a := Timestamp{Seconds: 10}
	b := Timestamp{Seconds: 7}
	assert.Equal(t, 3*time.Second, a.SkewFrom(b))
	assert.Equal(t, 3*time.Second, b.SkewFrom(a))
}
