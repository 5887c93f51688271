// Package speaker holds the physical speaker descriptor and layout
// types shared by the spatial mapper, the latency compensator, and the
// control plane.
//
// Purpose:	Describe the fleet of networked speaker endpoints the
//		render pipeline targets: their role, position, loudness
//		ceiling, and fixed endpoint latency.
package speaker

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// Role is a semantic channel/position tag. A SpeakerLayout may contain
// at most one speaker of each role except RoleCustom.
type Role string

const (
	RoleFrontLeft    Role = "front-left"
	RoleFrontRight   Role = "front-right"
	RoleCenter       Role = "center"
	RoleLFE          Role = "lfe"
	RoleSideLeft     Role = "side-left"
	RoleSideRight    Role = "side-right"
	RoleSurroundLeft Role = "surround-left"
	RoleSurroundRight Role = "surround-right"
	RoleTopFrontLeft  Role = "top-front-left"
	RoleTopFrontRight Role = "top-front-right"
	RoleTopBackLeft   Role = "top-back-left"
	RoleTopBackRight  Role = "top-back-right"
	RoleCustom       Role = "custom"
)

// Latency decomposes a speaker's fixed end-to-end delay into its
// constituent parts so each may be reasoned about (and logged)
// separately; Total sums them.
type Latency struct {
	Network    time.Duration
	Processing time.Duration
	Hardware   time.Duration
}

// Total returns the sum of the three latency components.
func (l Latency) Total() time.Duration {
	return l.Network + l.Processing + l.Hardware
}

// Descriptor is a stable, addressable speaker endpoint. It is created at
// discovery/registration time, mutated only by calibration or explicit
// reconfiguration, and destroyed on de-registration.
type Descriptor struct {
	ID        uuid.UUID
	Name      string
	Role      Role
	Position  r3.Vector // unit vector, listener-centered coordinates
	MaxSPL    float64   // dB SPL
	Latency   Latency
	Address   string // host:port of the networked endpoint
	Online    bool
}

// NormalizedPosition returns the speaker's position as a unit vector,
// tolerating a non-unit Position on input.
func (d Descriptor) NormalizedPosition() r3.Vector {
	if d.Position == (r3.Vector{}) {
		return d.Position
	}
	return d.Position.Normalize()
}

// Layout is a named, immutable-once-built set of Descriptors.
type Layout struct {
	Name     string
	Speakers []Descriptor
}

// Validate enforces the SpeakerLayout invariant: unique ids, at least
// one speaker, and each non-custom role appears at most once.
func (l Layout) Validate() error {
	if len(l.Speakers) == 0 {
		return fmt.Errorf("speaker: layout %q has no speakers", l.Name)
	}
	seenID := make(map[uuid.UUID]bool, len(l.Speakers))
	seenRole := make(map[Role]bool, len(l.Speakers))
	for _, s := range l.Speakers {
		if seenID[s.ID] {
			return fmt.Errorf("speaker: duplicate speaker id %s in layout %q", s.ID, l.Name)
		}
		seenID[s.ID] = true

		if s.Role == RoleCustom {
			continue
		}
		if seenRole[s.Role] {
			return fmt.Errorf("speaker: role %q appears more than once in layout %q", s.Role, l.Name)
		}
		seenRole[s.Role] = true
	}
	return nil
}

// ByRole returns the speaker with the given role, if present.
func (l Layout) ByRole(r Role) (Descriptor, bool) {
	for _, s := range l.Speakers {
		if s.Role == r {
			return s, true
		}
	}
	return Descriptor{}, false
}

// ByID returns the speaker with the given id, if present.
func (l Layout) ByID(id uuid.UUID) (Descriptor, bool) {
	for _, s := range l.Speakers {
		if s.ID == id {
			return s, true
		}
	}
	return Descriptor{}, false
}

// Stereo returns the standard two-speaker layout.
func Stereo() Layout {
	return Layout{
		Name: "stereo",
		Speakers: []Descriptor{
			{ID: uuid.New(), Name: "Front Left", Role: RoleFrontLeft, Position: positionFromSpherical(-30, 0)},
			{ID: uuid.New(), Name: "Front Right", Role: RoleFrontRight, Position: positionFromSpherical(30, 0)},
		},
	}
}

// Surround51 returns the standard 5.1 layout.
func Surround51() Layout {
	return Layout{
		Name: "5.1",
		Speakers: []Descriptor{
			{ID: uuid.New(), Name: "Front Left", Role: RoleFrontLeft, Position: positionFromSpherical(-30, 0)},
			{ID: uuid.New(), Name: "Front Right", Role: RoleFrontRight, Position: positionFromSpherical(30, 0)},
			{ID: uuid.New(), Name: "Center", Role: RoleCenter, Position: positionFromSpherical(0, 0)},
			{ID: uuid.New(), Name: "LFE", Role: RoleLFE, Position: positionFromSpherical(0, -45)},
			{ID: uuid.New(), Name: "Surround Left", Role: RoleSurroundLeft, Position: positionFromSpherical(-110, 0)},
			{ID: uuid.New(), Name: "Surround Right", Role: RoleSurroundRight, Position: positionFromSpherical(110, 0)},
		},
	}
}

// Surround714 returns a 7.1.4 layout with four height speakers.
func Surround714() Layout {
	return Layout{
		Name: "7.1.4",
		Speakers: []Descriptor{
			{ID: uuid.New(), Name: "Front Left", Role: RoleFrontLeft, Position: positionFromSpherical(-30, 0)},
			{ID: uuid.New(), Name: "Front Right", Role: RoleFrontRight, Position: positionFromSpherical(30, 0)},
			{ID: uuid.New(), Name: "Center", Role: RoleCenter, Position: positionFromSpherical(0, 0)},
			{ID: uuid.New(), Name: "LFE", Role: RoleLFE, Position: positionFromSpherical(0, -45)},
			{ID: uuid.New(), Name: "Side Left", Role: RoleSideLeft, Position: positionFromSpherical(-90, 0)},
			{ID: uuid.New(), Name: "Side Right", Role: RoleSideRight, Position: positionFromSpherical(90, 0)},
			{ID: uuid.New(), Name: "Back Left", Role: RoleSurroundLeft, Position: positionFromSpherical(-135, 0)},
			{ID: uuid.New(), Name: "Back Right", Role: RoleSurroundRight, Position: positionFromSpherical(135, 0)},
			{ID: uuid.New(), Name: "Top Front Left", Role: RoleTopFrontLeft, Position: positionFromSpherical(-45, 45)},
			{ID: uuid.New(), Name: "Top Front Right", Role: RoleTopFrontRight, Position: positionFromSpherical(45, 45)},
			{ID: uuid.New(), Name: "Top Back Left", Role: RoleTopBackLeft, Position: positionFromSpherical(-135, 45)},
			{ID: uuid.New(), Name: "Top Back Right", Role: RoleTopBackRight, Position: positionFromSpherical(135, 45)},
		},
	}
}
