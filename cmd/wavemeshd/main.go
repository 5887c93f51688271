// Command wavemeshd runs the render engine, the REST control plane, and
// mDNS speaker announcement as one daemon process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/wavemesh/wavemesh/internal/calibration"
	"github.com/wavemesh/wavemesh/internal/clock"
	"github.com/wavemesh/wavemesh/internal/config"
	"github.com/wavemesh/wavemesh/internal/control"
	"github.com/wavemesh/wavemesh/internal/jitter"
	"github.com/wavemesh/wavemesh/internal/latency"
	"github.com/wavemesh/wavemesh/internal/loudness"
	"github.com/wavemesh/wavemesh/internal/mdnsreg"
	"github.com/wavemesh/wavemesh/internal/render"
	"github.com/wavemesh/wavemesh/internal/speaker"
	"github.com/wavemesh/wavemesh/internal/wirelog"
)

func main() {
	var (
		configFile = pflag.StringP("config-file", "c", "", "YAML session configuration file.")
		listenAddr = pflag.StringP("listen", "l", "", "REST control-plane listen address (overrides config).")
		traceDir   = pflag.StringP("packet-trace-dir", "t", "", "Directory for daily packet-trace CSV files.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wavemeshd: distributed object-based audio render daemon\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	logger := wirelog.NewLogger("wavemeshd")

	sess := config.Defaults()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logger.Error("config load failed", "error", err)
			os.Exit(1)
		}
		sess = loaded
	}
	if *listenAddr != "" {
		sess.RESTListenAddr = *listenAddr
	}

	trace, err := wirelog.NewPacketTrace(*traceDir)
	if err != nil {
		logger.Error("packet trace init failed", "error", err)
		os.Exit(1)
	}
	defer trace.Close()

	layout, err := layoutForPreset(sess.LayoutPreset)
	if err != nil {
		logger.Error("layout selection failed", "error", err)
		os.Exit(1)
	}

	store := control.NewStore()
	store.Update(func(snap control.Snapshot) control.Snapshot {
		snap.Speakers = layout.Speakers
		snap.Layout = &layout
		return snap
	})

	browser := mdnsreg.NewBrowser()
	discoverer := &browserDiscoverer{browser: browser}

	engine := buildEngine(sess, layout, trace)
	calibrator := &engineCalibrator{store: store, layout: layout, logger: logger}

	server := control.NewServer(store, discoverer, calibrator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	announcer, err := mdnsreg.NewAnnouncer()
	if err != nil {
		logger.Warn("mdns announcer unavailable", "error", err)
	} else if err := announcer.Start(ctx, layout.Speakers[0].ID, sess.MDNSServiceName, listenPort(sess.RESTListenAddr)); err != nil {
		logger.Warn("mdns announce failed", "error", err)
	}

	httpServer := &http.Server{Addr: sess.RESTListenAddr, Handler: server}
	go func() {
		logger.Info("control plane listening", "addr", sess.RESTListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control plane stopped", "error", err)
		}
	}()

	go runRenderLoop(ctx, engine, store, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	engine.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func layoutForPreset(preset string) (speaker.Layout, error) {
	switch preset {
	case "stereo", "":
		return speaker.Stereo(), nil
	case "5.1":
		return speaker.Surround51(), nil
	case "7.1", "7.1.4":
		return speaker.Surround714(), nil
	default:
		return speaker.Layout{}, fmt.Errorf("wavemeshd: unknown layout preset %q", preset)
	}
}

func buildEngine(sess config.Session, layout speaker.Layout, trace *wirelog.PacketTrace) *render.Engine {
	return render.NewEngine(render.Config{
		Layout:  layout,
		Decoder: noopDecoder{},
		LoudnessChain: &render.LoudnessChain{
			DRC:        loudness.NewDRC(drcPresetFor(sess.DRCPreset), 48000),
			Normalizer: loudness.NewNormalizer(loudnessTargetFor(sess.LoudnessPreset)),
			Limiter:    loudness.NewLimiter(1, 5, 48000),
		},
		Compensator:  latency.NewCompensator(),
		JitterConfig: jitter.Config{TargetDelay: sess.JitterTargetDelay, MaxDelay: sess.JitterMaxDelay, MaxPackets: 100, BlockDuration: 20 * time.Millisecond},
		Horizon:      20 * time.Millisecond,
		FECGroupSize: sess.FECGroupSize,
		Trace:        trace,
	})
}

func drcPresetFor(name string) loudness.DRCPreset {
	switch name {
	case "off":
		return loudness.DRCPreset{Name: "off", Ratio: 1, ThresholdDB: 0, AttackMS: 1, ReleaseMS: 1}
	case "heavy":
		return loudness.DRCPreset{Name: "heavy", Ratio: 4, ThresholdDB: -18, AttackMS: 5, ReleaseMS: 100}
	case "standard":
		return loudness.DRCPreset{Name: "standard", Ratio: 2.5, ThresholdDB: -20, AttackMS: 10, ReleaseMS: 150}
	default: // "gentle"
		return loudness.DRCPreset{Name: "gentle", Ratio: 1.5, ThresholdDB: -24, AttackMS: 15, ReleaseMS: 200}
	}
}

func loudnessTargetFor(name string) loudness.Target {
	switch name {
	case "broadcast":
		return loudness.Television
	case "film":
		return loudness.FilmHome
	default: // "streaming"
		return loudness.StreamingMusic
	}
}

// noopDecoder produces no frames; a real decoder facade wires in here
// once the codec layer is selected.
type noopDecoder struct{}

func (noopDecoder) Drain(horizon clock.Timestamp) ([]render.AudioFrame, error) { return nil, nil }

// browserDiscoverer adapts mdnsreg.Browser's context-scoped lookup to
// the control plane's fire-and-forget Discoverer contract.
type browserDiscoverer struct {
	browser *mdnsreg.Browser
}

func (d *browserDiscoverer) Discover() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		defer cancel()
		d.browser.Discover(ctx, func(mdnsreg.Endpoint) {}, func(mdnsreg.Endpoint) {})
	}()
}

// engineCalibrator drives a calibration.Calibrator across every speaker
// in the active layout and records the resulting Solution into the
// control store. It runs the measurement sweep on its own goroutine so
// the REST handler that triggers it returns immediately.
type engineCalibrator struct {
	store  *control.Store
	layout speaker.Layout
	logger *log.Logger
	runner calibration.Calibrator
}

func (c *engineCalibrator) Start() {
	runner := c.runner
	if runner == nil {
		runner = calibration.ReferenceCalibrator{}
	}

	go func() {
		cfg := calibration.MeasurementConfig{
			SweepDuration: 2 * time.Second,
			SampleRate:    48000,
			Sweep:         calibration.LogSweep(20, 20000),
		}

		measured := 0
		var last calibration.MeasurementResult
		for range c.layout.Speakers {
			result, err := runner.Measure(cfg)
			if err != nil {
				c.logger.Warn("calibration measurement failed", "error", err)
				continue
			}
			measured++
			last = result

			c.store.Update(func(snap control.Snapshot) control.Snapshot {
				snap.Calibration.Measurements = measured
				snap.Calibration.Progress = float32(measured) / float32(len(c.layout.Speakers))
				return snap
			})
		}

		solution, err := runner.Solve(last)
		if err != nil {
			c.logger.Warn("calibration solve failed", "error", err)
		}

		c.store.Update(func(snap control.Snapshot) control.Snapshot {
			snap.Calibration.Running = false
			snap.Calibration.Solution = &solution
			return snap
		})
	}()
}

func runRenderLoop(ctx context.Context, engine *render.Engine, store *control.Store, logger interface {
	Warn(msg interface{}, keyvals ...interface{})
}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if store.Load().Transport != control.TransportPlaying {
				continue
			}
			ts := clock.Timestamp{Seconds: uint64(now.Unix())}
			if _, err := engine.Tick(ts); err != nil {
				logger.Warn("render tick failed", "error", err)
			}
		}
	}
}

func listenPort(addr string) int {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			var port int
			fmt.Sscanf(addr[i+1:], "%d", &port)
			return port
		}
	}
	return 0
}
