// Package monitor plays a local loopback copy of the render pipeline's
// output to the host's default audio device, for on-site monitoring
// without a networked speaker.
package monitor

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// Monitor writes audioblock.Block frames to the host's default output
// device via PortAudio.
type Monitor struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []float32
}

// Open initializes PortAudio and opens a default output stream sized
// for the given sample rate, channel count, and block length in
// frames.
func Open(sampleRate float64, channels, framesPerBlock int) (*Monitor, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("monitor: initialize portaudio: %w", err)
	}

	m := &Monitor{buf: make([]float32, framesPerBlock*channels)}
	stream, err := portaudio.OpenDefaultStream(0, channels, sampleRate, framesPerBlock, &m.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("monitor: open default stream: %w", err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("monitor: start stream: %w", err)
	}
	return m, nil
}

// Write interleaves block's channels into the monitor's output buffer
// and pushes one period to the device. block's channel count and
// frame length must match the stream's configuration.
func (m *Monitor) Write(block audioblock.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := block.NumChannels()
	frames := block.Frames()
	if frames*channels != len(m.buf) {
		return fmt.Errorf("monitor: block shape %dx%d does not match stream buffer of %d samples", channels, frames, len(m.buf))
	}

	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			m.buf[f*channels+c] = block.Channels[c][f]
		}
	}

	if err := m.stream.Write(); err != nil {
		return fmt.Errorf("monitor: write stream: %w", err)
	}
	return nil
}

// Close stops the stream and terminates PortAudio.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.stream.Close(); err != nil {
		return fmt.Errorf("monitor: close stream: %w", err)
	}
	return portaudio.Terminate()
}
