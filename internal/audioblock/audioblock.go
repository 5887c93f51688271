// Package audioblock defines the pipeline's fundamental PCM unit and its
// wire encoding.
//
// Purpose:	Carry one block-duration of multichannel audio between
//		pipeline stages, and serialize it for RTP payloads.
//
// Description:	An AudioBlock is an ordered set of equal-length channel
//		buffers of normalized float32 samples plus a sample rate.
//		Every stage from the decoder facade through the packetizer
//		consumes and produces AudioBlocks of the same shape.
package audioblock

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Block is an ordered sequence of equal-length channel buffers, all at
// the same sample rate. Samples are normalized to [-1.0, 1.0], though
// intermediate DSP stages may briefly exceed that range before limiting.
type Block struct {
	SampleRate uint32
	Channels   [][]float32
}

// New allocates a Block with n channels of the given frame count, all
// zeroed.
func New(sampleRate uint32, numChannels, frames int) Block {
	channels := make([][]float32, numChannels)
	for i := range channels {
		channels[i] = make([]float32, frames)
	}
	return Block{SampleRate: sampleRate, Channels: channels}
}

// Silence returns a Block of the given shape with every sample at zero.
func Silence(sampleRate uint32, numChannels, frames int) Block {
	return New(sampleRate, numChannels, frames)
}

// Frames returns the per-channel sample count, or 0 for a channel-less
// block.
func (b Block) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// NumChannels returns the channel count.
func (b Block) NumChannels() int {
	return len(b.Channels)
}

// Validate checks the AudioBlock invariant: every channel has equal
// length.
func (b Block) Validate() error {
	if len(b.Channels) == 0 {
		return nil
	}
	want := len(b.Channels[0])
	for i, ch := range b.Channels {
		if len(ch) != want {
			return fmt.Errorf("audioblock: channel %d has %d frames, want %d", i, len(ch), want)
		}
	}
	return nil
}

// Clone returns a deep copy, safe to mutate independently of b.
func (b Block) Clone() Block {
	out := Block{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = append([]float32(nil), ch...)
	}
	return out
}

// Peak returns the maximum absolute sample value across all channels, or
// 0 for an empty block.
func (b Block) Peak() float32 {
	var peak float32
	for _, ch := range b.Channels {
		for _, s := range ch {
			if a := float32(math.Abs(float64(s))); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Wire format, fixed and documented rather than left
// implementation-defined:
//
//	sample_rate   uint32 big-endian
//	channel_count uint32 big-endian
//	for each channel:
//	  length      uint32 big-endian
//	  length × float32, little-endian IEEE 754

// Marshal encodes b into the pinned wire format.
func (b Block) Marshal() []byte {
	size := 8
	for _, ch := range b.Channels {
		size += 4 + 4*len(ch)
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:4], b.SampleRate)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(b.Channels)))
	off := 8
	for _, ch := range b.Channels {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(ch)))
		off += 4
		for _, s := range ch {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(s))
			off += 4
		}
	}
	return buf
}

// Unmarshal decodes a Block from the pinned wire format produced by
// Marshal.
func Unmarshal(buf []byte) (Block, error) {
	if len(buf) < 8 {
		return Block{}, fmt.Errorf("audioblock: short buffer (%d bytes)", len(buf))
	}
	sampleRate := binary.BigEndian.Uint32(buf[0:4])
	numChannels := binary.BigEndian.Uint32(buf[4:8])
	off := 8
	channels := make([][]float32, numChannels)
	for i := range channels {
		if off+4 > len(buf) {
			return Block{}, fmt.Errorf("audioblock: truncated channel header at channel %d", i)
		}
		length := binary.BigEndian.Uint32(buf[off : off+4])
		off += 4
		need := int(length) * 4
		if off+need > len(buf) {
			return Block{}, fmt.Errorf("audioblock: truncated channel data at channel %d", i)
		}
		ch := make([]float32, length)
		for j := range ch {
			ch[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
		}
		channels[i] = ch
	}
	return Block{SampleRate: sampleRate, Channels: channels}, nil
}
