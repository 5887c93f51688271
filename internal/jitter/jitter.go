// Package jitter implements the per-sender-SSRC playout buffer: packets
// arrive out of order over UDP, and this buffer reorders them by RTP
// sequence and releases them in order as the caller pops them. An empty
// buffer reports ErrUnderrun; substitute audio for gaps is produced
// outside this package, by transport.Concealer.
package jitter

import (
	"errors"
	"sort"
	"time"

	"github.com/wavemesh/wavemesh/internal/transport"
)

// ErrFull is returned by Push when the buffer is at capacity.
var ErrFull = errors.New("jitter: buffer full")

// ErrTooOld is returned by Push when the packet's sequence is behind the
// last popped sequence by less than half the 16-bit sequence space.
var ErrTooOld = errors.New("jitter: packet too old")

// ErrUnderrun is returned by Pop when the buffer has nothing ready.
var ErrUnderrun = errors.New("jitter: underrun")

// Config controls buffer sizing. BlockDuration is the nominal duration
// represented by one packet's payload — needed to convert TargetDelay
// into a packet count for Ready. The core spec's reference buffer
// assumed a fixed 20ms block; here it is a configurable parameter so
// non-standard block sizes size the prebuffer correctly.
type Config struct {
	TargetDelay   time.Duration
	MaxDelay      time.Duration
	MaxPackets    int
	BlockDuration time.Duration
}

// DefaultConfig mirrors the reference implementation's defaults, with a
// 20ms block duration made explicit instead of assumed.
func DefaultConfig() Config {
	return Config{
		TargetDelay:   50 * time.Millisecond,
		MaxDelay:      200 * time.Millisecond,
		MaxPackets:    100,
		BlockDuration: 20 * time.Millisecond,
	}
}

// Buffer is a sequence-ordered playout buffer for one sender SSRC.
type Buffer struct {
	config Config
	byKey  map[uint16]transport.Packet

	lastPopped   uint16
	havePopped   bool
	received     uint64
	dropped      uint64
	late         uint64
}

// New returns a Buffer with the given configuration.
func New(config Config) *Buffer {
	return &Buffer{config: config, byKey: make(map[uint16]transport.Packet)}
}

// Push inserts a packet. Returns ErrTooOld if the packet is behind the
// last popped sequence, or ErrFull if the buffer is at capacity.
func (b *Buffer) Push(p transport.Packet) error {
	b.received++
	seq := p.Header.Sequence

	if b.havePopped && transport.IsTooOld(seq, b.lastPopped) {
		b.late++
		return ErrTooOld
	}

	if len(b.byKey) >= b.config.MaxPackets {
		b.dropped++
		return ErrFull
	}

	b.byKey[seq] = p
	return nil
}

// Pop removes and returns the packet with the smallest sequence number
// (wraparound-aware), or ErrUnderrun if the buffer is empty.
func (b *Buffer) Pop() (transport.Packet, error) {
	if len(b.byKey) == 0 {
		return transport.Packet{}, ErrUnderrun
	}

	seq := b.oldestSequence()
	p := b.byKey[seq]
	delete(b.byKey, seq)
	b.lastPopped = seq
	b.havePopped = true
	return p, nil
}

// oldestSequence picks the buffered sequence closest behind lastPopped
// in wraparound order, or the numerically smallest key before any pop
// has occurred.
func (b *Buffer) oldestSequence() uint16 {
	keys := make([]uint16, 0, len(b.byKey))
	for k := range b.byKey {
		keys = append(keys, k)
	}

	if !b.havePopped {
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		return keys[0]
	}

	sort.Slice(keys, func(i, j int) bool {
		return uint16(keys[i]-b.lastPopped) < uint16(keys[j]-b.lastPopped)
	})
	return keys[0]
}

// Ready reports whether enough packets are buffered to begin playout:
// at least max(3, target_delay / block_duration).
func (b *Buffer) Ready() bool {
	if len(b.byKey) == 0 {
		return false
	}
	targetPackets := int(b.config.TargetDelay / b.config.BlockDuration)
	if targetPackets < 3 {
		targetPackets = 3
	}
	return len(b.byKey) >= targetPackets
}

// Len returns the number of buffered packets.
func (b *Buffer) Len() int { return len(b.byKey) }

// Stats reports cumulative counters.
type Stats struct {
	Buffered int
	Received uint64
	Dropped  uint64
	Late     uint64
}

// Stats returns a snapshot of the buffer's counters.
func (b *Buffer) Stats() Stats {
	return Stats{
		Buffered: len(b.byKey),
		Received: b.received,
		Dropped:  b.dropped,
		Late:     b.late,
	}
}

// Reset clears all buffered packets and popped-sequence tracking.
func (b *Buffer) Reset() {
	b.byKey = make(map[uint16]transport.Packet)
	b.havePopped = false
}
