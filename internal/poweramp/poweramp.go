// Package poweramp drives a GPIO relay line that enables/disables a
// speaker's power amplifier, following the render pipeline's transport
// state rather than being toggled directly.
package poweramp

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/warthog618/go-gpiocdev"
)

// Relay drives a single GPIO output line high to enable the amplifier
// and low to disable it.
type Relay struct {
	chip   string
	line   int
	logger *log.Logger
	req    *gpiocdev.Line
	active bool
}

// NewRelay opens the GPIO line (offset on chip, e.g. "gpiochip0"/17) as
// an output, initially de-asserted.
func NewRelay(chip string, line int) (*Relay, error) {
	req, err := gpiocdev.RequestLine(chip, line, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("poweramp: request line %s:%d: %w", chip, line, err)
	}
	return &Relay{chip: chip, line: line, logger: log.WithPrefix("poweramp"), req: req}, nil
}

// Enable asserts the relay line, powering the amplifier on.
func (r *Relay) Enable() error {
	if r.active {
		return nil
	}
	if err := r.req.SetValue(1); err != nil {
		return fmt.Errorf("poweramp: enable %s:%d: %w", r.chip, r.line, err)
	}
	r.active = true
	r.logger.Info("amplifier enabled", "chip", r.chip, "line", r.line)
	return nil
}

// Disable de-asserts the relay line, powering the amplifier off.
func (r *Relay) Disable() error {
	if !r.active {
		return nil
	}
	if err := r.req.SetValue(0); err != nil {
		return fmt.Errorf("poweramp: disable %s:%d: %w", r.chip, r.line, err)
	}
	r.active = false
	r.logger.Info("amplifier disabled", "chip", r.chip, "line", r.line)
	return nil
}

// Active reports whether the relay currently has the amplifier
// enabled.
func (r *Relay) Active() bool {
	return r.active
}

// Close releases the underlying line request.
func (r *Relay) Close() error {
	return r.req.Close()
}

// AmpController is the subset of Relay that transport-state wiring
// needs; it exists so TransportDriven can be tested without real GPIO
// hardware.
type AmpController interface {
	Enable() error
	Disable() error
	Active() bool
}

// TransportDriven toggles an AmpController to follow transport
// play/pause/stop transitions: the amplifier is enabled only while
// audio is actively playing, to avoid an audible pop-and-hum window
// when idle.
type TransportDriven struct {
	relay AmpController
}

// NewTransportDriven wraps relay for transport-state-driven control.
func NewTransportDriven(relay AmpController) *TransportDriven {
	return &TransportDriven{relay: relay}
}

// OnPlaying enables the amplifier.
func (t *TransportDriven) OnPlaying() error { return t.relay.Enable() }

// OnPausedOrStopped disables the amplifier.
func (t *TransportDriven) OnPausedOrStopped() error { return t.relay.Disable() }
