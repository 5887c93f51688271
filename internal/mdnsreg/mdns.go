// Package mdnsreg announces this daemon's speaker endpoint over
// DNS-SD/mDNS and browses for other speakers on the local network,
// using the pure-Go brutella/dnssd implementation so neither side needs
// a system daemon or CGO.
package mdnsreg

import (
	"context"
	"fmt"
	"sync"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ServiceType is the DNS-SD service type speakers advertise themselves
// under.
const ServiceType = "_wavemesh._udp"

// Endpoint describes one discovered (or discoverable) speaker's network
// presence, independent of its audio-path speaker.Descriptor.
type Endpoint struct {
	InstanceName string
	Host         string
	Address      string // host:port
	SpeakerID    string
	Role         string
}

// Announcer advertises this process's own speaker endpoint.
type Announcer struct {
	logger   *log.Logger
	mu       sync.Mutex
	responder dnssd.Responder
	handle   dnssd.ServiceHandle
	started  bool
}

// NewAnnouncer builds an Announcer; call Start to begin responding.
func NewAnnouncer() (*Announcer, error) {
	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("mdnsreg: new responder: %w", err)
	}
	return &Announcer{responder: rp, logger: log.WithPrefix("mdnsreg")}, nil
}

// Start registers this endpoint's service record and begins responding
// to mDNS queries in the background. Cancelling ctx stops responding.
func (a *Announcer) Start(ctx context.Context, speakerID uuid.UUID, name string, port int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
		Text: map[string]string{
			"speaker_id": speakerID.String(),
		},
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("mdnsreg: new service: %w", err)
	}

	handle, err := a.responder.Add(sv)
	if err != nil {
		return fmt.Errorf("mdnsreg: add service: %w", err)
	}
	a.handle = handle
	a.started = true

	a.logger.Info("announcing speaker", "name", name, "port", port, "speaker_id", speakerID)

	go func() {
		if err := a.responder.Respond(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("responder stopped", "error", err)
		}
	}()
	return nil
}

// Stop withdraws the service record, if one was added.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	a.responder.Remove(a.handle)
	a.started = false
}

// Browser discovers other speaker endpoints advertised via DNS-SD.
type Browser struct {
	logger *log.Logger
}

// NewBrowser returns a Browser.
func NewBrowser() *Browser {
	return &Browser{logger: log.WithPrefix("mdnsreg")}
}

// Discover runs one DNS-SD lookup cycle until ctx is done, invoking
// onAdd/onRemove as entries come and go. It blocks for the lifetime of
// ctx; callers typically run it in a goroutine bounded by a short
// timeout context for a single discovery pass.
func (b *Browser) Discover(ctx context.Context, onAdd, onRemove func(Endpoint)) error {
	addFn := func(e dnssd.BrowseEntry) {
		onAdd(endpointFromEntry(e))
	}
	rmvFn := func(e dnssd.BrowseEntry) {
		onRemove(endpointFromEntry(e))
	}

	if err := dnssd.LookupType(ctx, ServiceType, addFn, rmvFn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mdnsreg: lookup: %w", err)
	}
	return nil
}

func endpointFromEntry(e dnssd.BrowseEntry) Endpoint {
	ep := Endpoint{
		InstanceName: e.Name,
		Host:         e.Host,
		Role:         e.Text["role"],
		SpeakerID:    e.Text["speaker_id"],
	}
	if len(e.IPs) > 0 {
		ep.Address = fmt.Sprintf("%s:%d", e.IPs[0], e.Port)
	}
	return ep
}
