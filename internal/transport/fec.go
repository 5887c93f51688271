package transport

import "fmt"

// XorFEC groups GroupSize data packets and emits one parity packet equal
// to their byte-wise XOR, zero-padded to the longest packet in the
// group. Recovery is possible only when exactly one packet of a group is
// missing.
type XorFEC struct {
	GroupSize int

	group []([]byte)
}

// NewXorFEC returns an encoder/decoder for the given group size.
func NewXorFEC(groupSize int) *XorFEC {
	return &XorFEC{GroupSize: groupSize}
}

// Encode adds packet to the current group, returning the parity packet
// once the group fills, or nil if the group is still accumulating.
func (f *XorFEC) Encode(packet []byte) []byte {
	f.group = append(f.group, append([]byte(nil), packet...))
	if len(f.group) < f.GroupSize {
		return nil
	}

	parity := xorAll(f.group)
	f.group = nil
	return parity
}

// Decode recovers a single missing packet from the other packets in its
// group and the parity packet. Requires exactly GroupSize-1 packets.
func (f *XorFEC) Decode(packets [][]byte, parity []byte) ([]byte, error) {
	if len(packets)+1 != f.GroupSize {
		return nil, fmt.Errorf("transport: wrong packet count for recovery (have %d, need %d)", len(packets), f.GroupSize-1)
	}

	recovered := append([]byte(nil), parity...)
	for _, packet := range packets {
		for i, b := range packet {
			if i < len(recovered) {
				recovered[i] ^= b
			}
		}
	}
	return recovered, nil
}

func xorAll(packets [][]byte) []byte {
	maxLen := 0
	for _, p := range packets {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}
	out := make([]byte, maxLen)
	for _, p := range packets {
		for i, b := range p {
			out[i] ^= b
		}
	}
	return out
}
