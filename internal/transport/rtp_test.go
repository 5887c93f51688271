package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRTPHeaderRoundTripScenario(t *testing.T) {
	h := NewHeader(12345, 67890, 0xABCDEF01)
	buf := h.Marshal()
	require.Len(t, buf, 12)

	got, err := UnmarshalHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), got.Version)
	assert.Equal(t, uint16(12345), got.Sequence)
	assert.Equal(t, uint32(67890), got.Timestamp)
	assert.Equal(t, uint32(0xABCDEF01), got.SSRC)
}

func TestRTPPacketRoundTrip(t *testing.T) {
	p := NewPacket(1, 2, 3, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	got, err := UnmarshalPacket(p.Marshal())
	require.NoError(t, err)
	assert.Equal(t, p.Header, got.Header)
	assert.Equal(t, p.Payload, got.Payload)
}

func TestRTPHeaderShortBuffer(t *testing.T) {
	_, err := UnmarshalHeader([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRTPHeaderRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seq := rapid.Uint16().Draw(rt, "seq")
		ts := rapid.Uint32().Draw(rt, "ts")
		ssrc := rapid.Uint32().Draw(rt, "ssrc")
		marker := rapid.Bool().Draw(rt, "marker")

		h := NewHeader(seq, ts, ssrc)
		h.Marker = marker

		got, err := UnmarshalHeader(h.Marshal())
		if err != nil {
			rt.Fatal(err)
		}
		if got.Sequence != seq || got.Timestamp != ts || got.SSRC != ssrc || got.Marker != marker || got.Version != 2 {
			rt.Fatalf("round trip mismatch: got %+v", got)
		}
	})
}
