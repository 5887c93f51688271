// Package loudness implements the loudness and headroom stage: BS.1770
// measurement, gain normalization to a target LUFS, dynamic-range
// compression, and look-ahead limiting. Stages are applied in a fixed
// order — DRC, then normalization, then the limiter — each pure on its
// block, with any inter-block state kept in envelope followers and
// gain-smoothing variables local to the stage.
package loudness

// Target is a named or custom LUFS loudness target.
type Target struct {
	name string
	lufs float32
}

// Named presets, in LUFS.
var (
	Television     = Target{"television", -23.0}
	StreamingMusic = Target{"streaming-music", -14.0}
	FilmTheatrical = Target{"film-theatrical", -27.0}
	FilmHome       = Target{"film-home", -20.0}
)

// Custom returns a Target at an arbitrary LUFS value.
func Custom(lufs float32) Target {
	return Target{"custom", lufs}
}

// LUFS returns the target level.
func (t Target) LUFS() float32 { return t.lufs }

// String returns the preset name ("custom" for Custom targets).
func (t Target) String() string { return t.name }

// DRCPreset names a compressor setting bundle.
type DRCPreset struct {
	Name               string
	Ratio              float32
	ThresholdDB        float32
	AttackMS, ReleaseMS float32
}

var (
	DRCSpeech = DRCPreset{"speech", 3, -16, 5, 80}
	DRCMusic  = DRCPreset{"music", 4, -18, 10, 100}
	DRCCinema = DRCPreset{"cinema", 2, -14, 20, 150}
)
