package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
)

// ReceiverState tracks one sender SSRC's lifecycle as seen by a
// receiver: collecting enough lead before playout, steady playback, and
// recovery from an empty buffer at pop time.
type ReceiverState int

const (
	ReceiverInitializing ReceiverState = iota
	ReceiverPrebuffering
	ReceiverPlaying
	ReceiverUnderrun
)

func (s ReceiverState) String() string {
	switch s {
	case ReceiverInitializing:
		return "initializing"
	case ReceiverPrebuffering:
		return "prebuffering"
	case ReceiverPlaying:
		return "playing"
	case ReceiverUnderrun:
		return "underrun"
	default:
		return "unknown"
	}
}

// Receiver listens for RTP packets on a UDP socket and queues decoded
// packets for Poll, tracking loss statistics per sender SSRC. It performs
// no FEC recovery: a missing packet is not rebuilt from parity. It never
// blocks the audio path: reads happen on their own goroutine and are
// delivered through a bounded channel.
type Receiver struct {
	conn   *net.UDPConn
	logger *log.Logger

	incoming chan Packet
	stats    map[uint32]*LossStats
	fec      map[uint32]*XorFEC

	DecodeErrors uint64
}

// NewReceiver opens a UDP listener on addr ("host:port", or ":port" for
// any interface) with a bounded inbound queue of depth.
func NewReceiver(addr string, depth int) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %q: %w", addr, err)
	}

	return &Receiver{
		conn:     conn,
		logger:   log.Default().With("component", "transport.receiver", "addr", addr),
		incoming: make(chan Packet, depth),
		stats:    make(map[uint32]*LossStats),
		fec:      make(map[uint32]*XorFEC),
	}, nil
}

// Run reads datagrams until ctx is cancelled or the socket errors. It is
// meant to run on its own I/O worker goroutine, never on the audio tick.
func (r *Receiver) Run(ctx context.Context) {
	buf := make([]byte, 65535)
	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	for {
		n, err := r.conn.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				r.DecodeErrors++
				r.logger.Warn("read failed", "err", err)
				return
			}
		}

		packet, err := UnmarshalPacket(buf[:n])
		if err != nil {
			r.DecodeErrors++
			r.logger.Debug("dropping malformed packet", "err", err)
			continue
		}

		r.statsFor(packet.Header.SSRC).Update(packet.Header.Sequence)

		select {
		case r.incoming <- packet:
		default:
			r.logger.Debug("inbound queue full, dropping newest", "ssrc", packet.Header.SSRC)
		}
	}
}

// Poll returns the next received packet, or ok=false if none is queued.
func (r *Receiver) Poll() (Packet, bool) {
	select {
	case p := <-r.incoming:
		return p, true
	default:
		return Packet{}, false
	}
}

// Stats returns the loss statistics tracked for ssrc, creating a fresh
// tracker on first use.
func (r *Receiver) Stats(ssrc uint32) *LossStats {
	return r.statsFor(ssrc)
}

func (r *Receiver) statsFor(ssrc uint32) *LossStats {
	s, ok := r.stats[ssrc]
	if !ok {
		s = NewLossStats()
		r.stats[ssrc] = s
	}
	return s
}

// LocalAddr returns the UDP address this receiver is bound to, useful
// when it was opened on an ephemeral port (":0") and the caller needs
// to advertise the real one.
func (r *Receiver) LocalAddr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the underlying socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
