package spatial

import (
	"github.com/wavemesh/wavemesh/internal/audioblock"
	"github.com/wavemesh/wavemesh/internal/speaker"
)

const sqrtHalf = 0.70710678118654752440 // 0.707, the -3dB center-channel fold-in coefficient

// ChannelRole tags one input channel of a channel-based (non-object,
// non-scene) source with the speaker role it is meant for.
type ChannelRole struct {
	Role speaker.Role
}

// MapChannels places channel-based source channels into the output
// slots of layout, by matching role tags. Missing roles are left
// silent; excess source channels (no matching output role) are
// dropped. Source and roles must have the same length.
//
// The conventional 5.1 input order (FL, FR, C, LFE, SL, SR) downmixed
// to a stereo layout additionally folds center in at -3dB per channel
// (L = FL + 0.707*C, R = FR + 0.707*C); side/surround channels are
// dropped in this minimal downmix.
func MapChannels(src audioblock.Block, roles []speaker.Role, layout speaker.Layout) audioblock.Block {
	frames := src.Frames()
	out := audioblock.New(src.SampleRate, len(layout.Speakers), frames)

	if isFiveOne(roles) && isStereo(layout) {
		return downmix51ToStereo(src, layout, frames)
	}

	bySource := make(map[speaker.Role][]float32, len(roles))
	for i, r := range roles {
		if i < len(src.Channels) {
			bySource[r] = src.Channels[i]
		}
	}

	for outIdx, sp := range layout.Speakers {
		if ch, ok := bySource[sp.Role]; ok {
			copy(out.Channels[outIdx], ch)
		}
		// else: role absent from source, leave silent (upmix rule).
	}
	return out
}

func isFiveOne(roles []speaker.Role) bool {
	if len(roles) != 6 {
		return false
	}
	want := []speaker.Role{
		speaker.RoleFrontLeft, speaker.RoleFrontRight, speaker.RoleCenter,
		speaker.RoleLFE, speaker.RoleSurroundLeft, speaker.RoleSurroundRight,
	}
	for i, r := range want {
		if roles[i] != r {
			return false
		}
	}
	return true
}

func isStereo(layout speaker.Layout) bool {
	_, hasL := layout.ByRole(speaker.RoleFrontLeft)
	_, hasR := layout.ByRole(speaker.RoleFrontRight)
	return len(layout.Speakers) == 2 && hasL && hasR
}

func downmix51ToStereo(src audioblock.Block, layout speaker.Layout, frames int) audioblock.Block {
	out := audioblock.New(src.SampleRate, len(layout.Speakers), frames)
	fl, fr, center := src.Channels[0], src.Channels[1], src.Channels[2]

	lIdx, _ := indexOfRole(layout, speaker.RoleFrontLeft)
	rIdx, _ := indexOfRole(layout, speaker.RoleFrontRight)

	for i := 0; i < frames; i++ {
		var c float32
		if i < len(center) {
			c = center[i]
		}
		out.Channels[lIdx][i] = fl[i] + sqrtHalf*c
		out.Channels[rIdx][i] = fr[i] + sqrtHalf*c
	}
	return out
}

func indexOfRole(layout speaker.Layout, role speaker.Role) (int, bool) {
	for i, sp := range layout.Speakers {
		if sp.Role == role {
			return i, true
		}
	}
	return -1, false
}
