// Package render ties the spatial mapper, loudness chain, transport,
// jitter buffers, and scheduler into the per-tick pipeline described by
// the component design: drain decoded frames, map them onto the active
// layout, run the loudness chain, fan out per-speaker RTP packets, and
// drain any local receivers through their jitter buffers into the
// presentation scheduler.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/wavemesh/wavemesh/internal/audioblock"
	"github.com/wavemesh/wavemesh/internal/clock"
	"github.com/wavemesh/wavemesh/internal/jitter"
	"github.com/wavemesh/wavemesh/internal/latency"
	"github.com/wavemesh/wavemesh/internal/loudness"
	"github.com/wavemesh/wavemesh/internal/spatial"
	"github.com/wavemesh/wavemesh/internal/speaker"
	"github.com/wavemesh/wavemesh/internal/transport"
	"github.com/wavemesh/wavemesh/internal/wirelog"
)

// SourceKind tags which spatial mapping an AudioFrame needs.
type SourceKind int

const (
	SourceChannelBased SourceKind = iota
	SourceObjectBased
	SourceSceneBased
)

// AudioFrame is the decoder facade's output unit: a presentation
// timestamp, sample rate, and raw per-source channel buffers, plus
// whatever spatial metadata its Source kind requires.
type AudioFrame struct {
	PTS            clock.Timestamp
	SampleRate     uint32
	Channels       [][]float32
	Source         SourceKind
	ObjectPosition r3.Vector     // SourceObjectBased only
	Roles          []speaker.Role // SourceChannelBased only
	Order          spatial.Order  // SourceSceneBased only
}

// DecoderFacade produces AudioFrames from opaque packets. Drain returns
// every frame whose PTS is at or before horizon.
type DecoderFacade interface {
	Drain(horizon clock.Timestamp) ([]AudioFrame, error)
}

// LoudnessChain applies DRC, then normalization, then the look-ahead
// limiter, in that fixed order, matching the loudness package's
// documented stage ordering.
type LoudnessChain struct {
	DRC        *loudness.DRC
	Normalizer *loudness.Normalizer
	Limiter    *loudness.Limiter
}

// Apply runs the three stages over block in place.
func (c *LoudnessChain) Apply(block audioblock.Block) {
	if c.DRC != nil {
		c.DRC.Apply(block)
	}
	if c.Normalizer != nil {
		c.Normalizer.Apply(block)
	}
	if c.Limiter != nil {
		c.Limiter.Apply(block)
	}
}

// SpeakerLink is the per-speaker network and local-monitoring wiring
// the render tick drives each cycle.
type SpeakerLink struct {
	Descriptor speaker.Descriptor
	Sender     *transport.Sender
}

// Engine owns one render session: a speaker layout, the spatial
// mappers built against it, the loudness chain, per-speaker transport
// senders, and the scheduler/compensator pair that aligns presentation
// across the mesh.
type Engine struct {
	decoder DecoderFacade

	layout speaker.Layout
	links  map[uuid.UUID]*SpeakerLink

	vbap *spatial.VBAP
	hoa  map[spatial.Order]*spatial.HOADecoder

	loudnessChain *LoudnessChain
	compensator   *latency.Compensator
	scheduler     *latency.Scheduler

	receivers  map[uuid.UUID]*transport.Receiver
	jitterCfg  jitter.Config
	jitterBufs map[uuid.UUID]*jitter.Buffer
	concealer  *transport.Concealer

	trace *wirelog.PacketTrace

	sequence uint32 // RTP timestamp counter, advanced by each fanned-out block's frame count
	horizon  time.Duration
	fecGroup int

	binaural     *spatial.HRIRDatabase
	lastBinaural audioblock.Block

	// ioCtx bounds the lifetime of each receiver's own read goroutine;
	// cancelling it on Close stops every receiver still registered.
	ioCtx    context.Context
	ioCancel context.CancelFunc
}

// Config parameterizes a new Engine.
type Config struct {
	Layout        speaker.Layout
	Decoder       DecoderFacade
	LoudnessChain *LoudnessChain
	Compensator   *latency.Compensator
	JitterConfig  jitter.Config
	Horizon       time.Duration
	FECGroupSize  int
	Trace         *wirelog.PacketTrace
	// Binaural, when set, makes the engine additionally render each
	// object-based frame to a two-channel headphone mix for local
	// monitoring, retrievable via LastBinauralMix.
	Binaural *spatial.HRIRDatabase
}

// NewEngine builds an Engine for layout, precomputing the VBAP triplet
// set (HOA decoders are added lazily per requested order via
// EnsureHOADecoder, since a session may never use scene-based sources).
func NewEngine(cfg Config) *Engine {
	ioCtx, ioCancel := context.WithCancel(context.Background())
	return &Engine{
		ioCtx:    ioCtx,
		ioCancel: ioCancel,
		decoder:       cfg.Decoder,
		layout:        cfg.Layout,
		links:         make(map[uuid.UUID]*SpeakerLink),
		vbap:          spatial.NewVBAP(cfg.Layout),
		hoa:           make(map[spatial.Order]*spatial.HOADecoder),
		loudnessChain: cfg.LoudnessChain,
		compensator:   cfg.Compensator,
		scheduler:     latency.NewScheduler(),
		receivers:     make(map[uuid.UUID]*transport.Receiver),
		jitterCfg:     cfg.JitterConfig,
		jitterBufs:    make(map[uuid.UUID]*jitter.Buffer),
		concealer:     transport.NewConcealer(transport.ConcealInterpolate),
		trace:         cfg.Trace,
		horizon:       cfg.Horizon,
		fecGroup:      cfg.FECGroupSize,
		binaural:      cfg.Binaural,
	}
}

// LastBinauralMix returns the most recent two-channel headphone render
// of an object-based source, if a binaural database was configured.
// The zero Block is returned if no object-based frame has been
// rendered yet.
func (e *Engine) LastBinauralMix() audioblock.Block {
	return e.lastBinaural
}

// EnsureHOADecoder returns the decoder for order, building and caching
// it against the engine's layout on first use.
func (e *Engine) EnsureHOADecoder(order spatial.Order, mode spatial.DecodingMode) *spatial.HOADecoder {
	if d, ok := e.hoa[order]; ok {
		return d
	}
	d := spatial.NewHOADecoder(e.layout, order, mode)
	e.hoa[order] = d
	return d
}

// AddSpeakerLink builds the UDP sender for one speaker (using the
// engine's configured FEC group size), registers its latency
// contribution to the compensator, and primes a receiver/jitter buffer
// pair for loopback/monitor traffic from that endpoint.
func (e *Engine) AddSpeakerLink(sp speaker.Descriptor, ssrc uint32, receiverAddr string, receiverDepth int) error {
	sender, err := transport.NewSender(sp.Address, ssrc, e.fecGroup)
	if err != nil {
		return fmt.Errorf("render: speaker %s sender: %w", sp.ID, err)
	}

	e.links[sp.ID] = &SpeakerLink{Descriptor: sp, Sender: sender}
	e.compensator.AddSpeaker(latency.SpeakerLatency{
		SpeakerID:  sp.ID,
		Network:    sp.Latency.Network,
		Processing: sp.Latency.Processing,
		Hardware:   sp.Latency.Hardware,
	})
	e.jitterBufs[sp.ID] = jitter.New(e.jitterCfg)

	if receiverAddr != "" {
		rcv, err := transport.NewReceiver(receiverAddr, receiverDepth)
		if err != nil {
			return fmt.Errorf("render: speaker %s receiver: %w", sp.ID, err)
		}
		e.receivers[sp.ID] = rcv
		go rcv.Run(e.ioCtx)
	}
	return nil
}

// RemoveSpeakerLink de-registers a speaker and closes its transport
// endpoints.
func (e *Engine) RemoveSpeakerLink(id uuid.UUID) {
	if link, ok := e.links[id]; ok && link.Sender != nil {
		link.Sender.Close()
	}
	if rcv, ok := e.receivers[id]; ok {
		rcv.Close()
	}
	delete(e.links, id)
	delete(e.receivers, id)
	delete(e.jitterBufs, id)
	e.compensator.RemoveSpeaker(id)
}

// Close tears down every speaker link and stops all receiver read
// goroutines. The engine is not usable afterward.
func (e *Engine) Close() {
	e.ioCancel()
	for id := range e.links {
		e.RemoveSpeakerLink(id)
	}
}

// mapFrame applies the spatial mapper appropriate to frame.Source,
// returning a block shaped to the engine's layout.
func (e *Engine) mapFrame(frame AudioFrame) (audioblock.Block, error) {
	switch frame.Source {
	case SourceChannelBased:
		src := audioblock.Block{SampleRate: frame.SampleRate, Channels: frame.Channels}
		return spatial.MapChannels(src, frame.Roles, e.layout), nil

	case SourceObjectBased:
		if len(frame.Channels) == 0 {
			return audioblock.Block{}, fmt.Errorf("render: object frame has no channel")
		}
		mono := frame.Channels[0]
		frames := len(mono)

		if e.binaural != nil {
			az, el := speaker.ToAzimuthElevation(frame.ObjectPosition)
			src := audioblock.Block{SampleRate: frame.SampleRate, Channels: [][]float32{mono}}
			e.lastBinaural = e.binaural.Render(src, az, el, frame.ObjectPosition.Norm())
		}

		out := audioblock.New(frame.SampleRate, len(e.layout.Speakers), frames)
		gains, ok := e.vbap.Render(frame.ObjectPosition)
		if !ok {
			return out, nil // outside every triplet, emit silence
		}
		for speakerIdx, g := range gains {
			if g == 0 {
				continue
			}
			dst := out.Channels[speakerIdx]
			for i, s := range mono {
				dst[i] = s * float32(g)
			}
		}
		return out, nil

	case SourceSceneBased:
		decoder := e.EnsureHOADecoder(frame.Order, spatial.ModeMaxRE)
		src := audioblock.Block{SampleRate: frame.SampleRate, Channels: frame.Channels}
		return decoder.Decode(src), nil

	default:
		return audioblock.Block{}, fmt.Errorf("render: unknown source kind %d", frame.Source)
	}
}

// Tick runs one render cycle at presentation time now, following the
// pseudo-contract: drain decoded frames, spatially map and loudness-
// process each into a layout-shaped block, fan out per-speaker RTP
// packets and presentation slots, then drain local receivers through
// their jitter buffers and emit whatever slots are now due.
func (e *Engine) Tick(now clock.Timestamp) (map[uuid.UUID][]latency.PresentationSlot, error) {
	horizonTS := clock.Timestamp{
		Seconds: now.Seconds,
		Nanos:   now.Nanos,
		Source:  now.Source,
	}
	if e.horizon > 0 {
		horizonTS = addDuration(now, e.horizon)
	}

	frames, err := e.decoder.Drain(horizonTS)
	if err != nil {
		return nil, fmt.Errorf("render: drain decoder: %w", err)
	}

	for _, frame := range frames {
		block, err := e.mapFrame(frame)
		if err != nil {
			return nil, err
		}
		if e.loudnessChain != nil {
			e.loudnessChain.Apply(block)
		}
		e.fanOut(block, frame.PTS)
	}

	e.drainReceivers()

	return e.scheduler.Drain(now), nil
}

func addDuration(t clock.Timestamp, d time.Duration) clock.Timestamp {
	total := t.ToDuration() + d
	if total < 0 {
		total = 0
	}
	return clock.Timestamp{
		Seconds: uint64(total / time.Second),
		Nanos:   uint32(total % time.Second),
		Source:  t.Source,
	}
}

// fanOut splits block into one channel per speaker, sends each over its
// transport link, and pushes a presentation slot for local scheduling.
func (e *Engine) fanOut(block audioblock.Block, origin clock.Timestamp) {
	e.sequence += uint32(block.Frames())
	rtpTimestamp := e.sequence

	for idx, sp := range e.layout.Speakers {
		link, ok := e.links[sp.ID]
		if !ok || idx >= len(block.Channels) {
			continue
		}

		single := audioblock.Block{
			SampleRate: block.SampleRate,
			Channels:   [][]float32{block.Channels[idx]},
		}
		if link.Sender != nil {
			link.Sender.Send(rtpTimestamp, single.Marshal())
		}

		slot := latency.PresentationSlot{
			Block:            single,
			OriginTimestamp:  origin,
			PresentationTime: addDuration(origin, e.compensator.MaxLatency()),
		}
		e.scheduler.Push(sp.ID, slot, e.compensator)
	}
}

// drainReceivers polls each speaker's loopback/monitor receiver, feeds
// its jitter buffer, and once the buffer is ready pops one packet,
// recording the outcome to the packet trace. A payload that fails to
// decode is replaced by the concealer's substitute block. A buffer that
// is not ready or that underruns yields no block, no concealment and no
// trace row for that tick.
func (e *Engine) drainReceivers() {
	for id, rcv := range e.receivers {
		buf := e.jitterBufs[id]
		if buf == nil {
			continue
		}

		for {
			pkt, ok := rcv.Poll()
			if !ok {
				break
			}
			_ = buf.Push(pkt) // TooOld/Full are counted in buf.Stats(); not fatal to the tick
		}

		if !buf.Ready() {
			continue
		}

		pkt, err := buf.Pop()
		if err != nil {
			continue
		}

		decoded, err := audioblock.Unmarshal(pkt.Payload)
		concealed := false
		if err != nil {
			decoded = e.concealer.Conceal(decoded.SampleRate, 1, decoded.Frames())
			concealed = true
		} else {
			e.concealer.Observe(decoded)
		}

		if e.trace != nil {
			e.trace.Write(wirelog.Row{
				Time:      time.Now(),
				SpeakerID: id.String(),
				Sequence:  pkt.Header.Sequence,
				Concealed: concealed,
			})
		}
	}
}
