// Package transport implements the wire layer: RTP framing, XOR forward
// error correction, loss statistics, and the UDP sender/receiver state
// machines that move AudioBlocks between the render tick and the
// network.
package transport

import (
	"encoding/binary"
	"fmt"
)

const rtpHeaderSize = 12

// Header is the 12-byte RTP header fixed fields this pipeline needs.
// Extension headers and CSRC lists are never produced or consumed.
type Header struct {
	Version     uint8
	Padding     bool
	Extension   bool
	CSRCCount   uint8
	Marker      bool
	PayloadType uint8
	Sequence    uint16
	Timestamp   uint32
	SSRC        uint32
}

// NewHeader builds a version-2 header with the dynamic payload type (96).
func NewHeader(sequence uint16, timestamp uint32, ssrc uint32) Header {
	return Header{
		Version:     2,
		PayloadType: 96,
		Sequence:    sequence,
		Timestamp:   timestamp,
		SSRC:        ssrc,
	}
}

// Marshal encodes the header into its 12-byte wire form.
func (h Header) Marshal() []byte {
	buf := make([]byte, rtpHeaderSize)

	buf[0] = (h.Version << 6) | (h.CSRCCount & 0x0f)
	if h.Padding {
		buf[0] |= 0x20
	}
	if h.Extension {
		buf[0] |= 0x10
	}

	buf[1] = h.PayloadType & 0x7f
	if h.Marker {
		buf[1] |= 0x80
	}

	binary.BigEndian.PutUint16(buf[2:4], h.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], h.SSRC)

	return buf
}

// UnmarshalHeader decodes a 12-byte RTP header.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < rtpHeaderSize {
		return Header{}, fmt.Errorf("transport: short header (%d bytes)", len(buf))
	}

	return Header{
		Version:     (buf[0] >> 6) & 0x03,
		Padding:     buf[0]&0x20 != 0,
		Extension:   buf[0]&0x10 != 0,
		CSRCCount:   buf[0] & 0x0f,
		Marker:      buf[1]&0x80 != 0,
		PayloadType: buf[1] & 0x7f,
		Sequence:    binary.BigEndian.Uint16(buf[2:4]),
		Timestamp:   binary.BigEndian.Uint32(buf[4:8]),
		SSRC:        binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// Packet pairs an RTP header with its payload (the serialized AudioBlock
// for a single speaker).
type Packet struct {
	Header  Header
	Payload []byte
}

// NewPacket builds a Packet with a freshly-constructed header.
func NewPacket(sequence uint16, timestamp uint32, ssrc uint32, payload []byte) Packet {
	return Packet{Header: NewHeader(sequence, timestamp, ssrc), Payload: payload}
}

// Marshal encodes the packet as header||payload.
func (p Packet) Marshal() []byte {
	buf := p.Header.Marshal()
	return append(buf, p.Payload...)
}

// UnmarshalPacket decodes a Packet produced by Marshal.
func UnmarshalPacket(buf []byte) (Packet, error) {
	header, err := UnmarshalHeader(buf)
	if err != nil {
		return Packet{}, err
	}
	payload := append([]byte(nil), buf[rtpHeaderSize:]...)
	return Packet{Header: header, Payload: payload}, nil
}
