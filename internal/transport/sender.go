package transport

import (
	"fmt"
	"net"

	"github.com/charmbracelet/log"
)

// SenderState is the sender-side session state. The sender has no pause
// state of its own: once it has sent its first block it stays
// Streaming until the session is torn down.
type SenderState int

const (
	SenderIdle SenderState = iota
	SenderStreaming
)

func (s SenderState) String() string {
	switch s {
	case SenderIdle:
		return "idle"
	case SenderStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Sender emits RTP packets over UDP to a single destination, adding XOR
// FEC parity every GroupSize packets. Send errors are counted, not
// propagated — the render tick never blocks on network I/O.
type Sender struct {
	conn   *net.UDPConn
	ssrc   uint32
	fec    *XorFEC
	logger *log.Logger

	state      SenderState
	sequence   uint16
	SendErrors uint64
}

// NewSender dials dest over UDP and returns a Sender with the given
// SSRC and FEC group size (1 disables FEC — every packet is its own
// group-of-one and no parity is ever emitted, since group size 1 would
// make every parity a byte-wise copy of the data it protects).
func NewSender(dest string, ssrc uint32, fecGroupSize int) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", dest, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %q: %w", dest, err)
	}

	var fec *XorFEC
	if fecGroupSize > 1 {
		fec = NewXorFEC(fecGroupSize)
	}

	return &Sender{
		conn:   conn,
		ssrc:   ssrc,
		fec:    fec,
		logger: log.Default().With("component", "transport.sender", "dest", dest),
		state:  SenderIdle,
	}, nil
}

// State returns the current sender state.
func (s *Sender) State() SenderState { return s.state }

// Send packetizes payload as the next sequence in this session, writes
// it to the socket, and accumulates FEC parity. Errors are logged and
// counted, never returned to the caller's hot path.
func (s *Sender) Send(timestamp uint32, payload []byte) {
	s.state = SenderStreaming

	packet := NewPacket(s.sequence, timestamp, s.ssrc, payload)
	s.writePacket(packet)

	if s.fec != nil {
		if parity := s.fec.Encode(payload); parity != nil {
			parityPacket := NewPacket(s.sequence, timestamp, s.ssrc, parity)
			parityPacket.Header.PayloadType = 97 // distinct payload type for parity
			s.writePacket(parityPacket)
		}
	}

	s.sequence++
}

func (s *Sender) writePacket(p Packet) {
	if _, err := s.conn.Write(p.Marshal()); err != nil {
		s.SendErrors++
		s.logger.Warn("send failed", "sequence", p.Header.Sequence, "err", err)
	}
}

// Close releases the underlying socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
