// Package config loads the daemon's single YAML session file: speaker
// layout source, loudness/DRC presets, FEC and jitter tuning, clock
// source, mDNS name, REST listen address, and calibration file path.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a validation failure: an unknown preset, a
// contradictory combination of directives, or a missing file. The
// control plane surfaces it directly rather than panicking.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Session is the top-level YAML document shape.
type Session struct {
	LayoutPreset      string        `yaml:"layout_preset"`
	LoudnessPreset    string        `yaml:"loudness_preset"`
	DRCPreset         string        `yaml:"drc_preset"`
	FECGroupSize      int           `yaml:"fec_group_size"`
	JitterTargetDelay time.Duration `yaml:"jitter_target_delay"`
	JitterMaxDelay    time.Duration `yaml:"jitter_max_delay"`
	ClockSource       string        `yaml:"clock_source"`
	MDNSServiceName   string        `yaml:"mdns_service_name"`
	RESTListenAddr    string        `yaml:"rest_listen_addr"`
	CalibrationFile   string        `yaml:"calibration_file"`
}

var validLoudnessPresets = map[string]bool{"streaming": true, "broadcast": true, "film": true}
var validDRCPresets = map[string]bool{"off": true, "gentle": true, "standard": true, "heavy": true}
var validClockSources = map[string]bool{"system": true, "ptp": true, "ntp": true}
var validLayoutPresets = map[string]bool{"stereo": true, "5.1": true, "7.1": true, "7.1.4": true, "custom": true}

// Defaults returns a Session with every directive set to its default
// value.
func Defaults() Session {
	return Session{
		LayoutPreset:      "stereo",
		LoudnessPreset:    "streaming",
		DRCPreset:         "gentle",
		FECGroupSize:      4,
		JitterTargetDelay: 50 * time.Millisecond,
		JitterMaxDelay:    200 * time.Millisecond,
		ClockSource:       "system",
		MDNSServiceName:   "wavemesh",
		RESTListenAddr:    "0.0.0.0:7373",
		CalibrationFile:   "",
	}
}

// Load reads and parses the YAML session file at path, applying
// Defaults() for any zero-valued field, then validating the merged
// result as a whole.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, &ConfigError{Field: "path", Msg: err.Error()}
	}
	return Parse(data)
}

// Parse parses a YAML session document from memory, applying defaults
// and validating exactly as Load does.
func Parse(data []byte) (Session, error) {
	sess := Defaults()
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return Session{}, &ConfigError{Field: "yaml", Msg: err.Error()}
	}
	applyDefaults(&sess)
	if err := sess.Validate(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// applyDefaults fills any field left zero by partial YAML (e.g. a
// document that only sets layout_preset) with its default value.
func applyDefaults(s *Session) {
	d := Defaults()
	if s.LayoutPreset == "" {
		s.LayoutPreset = d.LayoutPreset
	}
	if s.LoudnessPreset == "" {
		s.LoudnessPreset = d.LoudnessPreset
	}
	if s.DRCPreset == "" {
		s.DRCPreset = d.DRCPreset
	}
	if s.FECGroupSize == 0 {
		s.FECGroupSize = d.FECGroupSize
	}
	if s.JitterTargetDelay == 0 {
		s.JitterTargetDelay = d.JitterTargetDelay
	}
	if s.JitterMaxDelay == 0 {
		s.JitterMaxDelay = d.JitterMaxDelay
	}
	if s.ClockSource == "" {
		s.ClockSource = d.ClockSource
	}
	if s.MDNSServiceName == "" {
		s.MDNSServiceName = d.MDNSServiceName
	}
	if s.RESTListenAddr == "" {
		s.RESTListenAddr = d.RESTListenAddr
	}
}

// Validate checks the merged session as a whole, catching
// contradictions a per-field default fill can't.
func (s Session) Validate() error {
	if !validLayoutPresets[s.LayoutPreset] {
		return &ConfigError{Field: "layout_preset", Msg: fmt.Sprintf("unknown preset %q", s.LayoutPreset)}
	}
	if !validLoudnessPresets[s.LoudnessPreset] {
		return &ConfigError{Field: "loudness_preset", Msg: fmt.Sprintf("unknown preset %q", s.LoudnessPreset)}
	}
	if !validDRCPresets[s.DRCPreset] {
		return &ConfigError{Field: "drc_preset", Msg: fmt.Sprintf("unknown preset %q", s.DRCPreset)}
	}
	if !validClockSources[s.ClockSource] {
		return &ConfigError{Field: "clock_source", Msg: fmt.Sprintf("unknown source %q", s.ClockSource)}
	}
	if s.FECGroupSize < 1 {
		return &ConfigError{Field: "fec_group_size", Msg: "must be at least 1"}
	}
	if s.JitterMaxDelay < s.JitterTargetDelay {
		return &ConfigError{Field: "jitter_max_delay", Msg: "must be >= jitter_target_delay"}
	}
	return nil
}
