package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestParseAppliesDefaultsToPartialDocument(t *testing.T) {
	sess, err := Parse([]byte(`layout_preset: "5.1"`))
	require.NoError(t, err)
	assert.Equal(t, "5.1", sess.LayoutPreset)
	assert.Equal(t, "streaming", sess.LoudnessPreset)
	assert.Equal(t, 4, sess.FECGroupSize)
}

func TestParseOverridesEveryField(t *testing.T) {
	doc := []byte(`
layout_preset: "7.1.4"
loudness_preset: film
drc_preset: heavy
fec_group_size: 8
jitter_target_delay: 100ms
jitter_max_delay: 400ms
clock_source: ptp
mdns_service_name: living-room
rest_listen_addr: "127.0.0.1:9000"
calibration_file: /etc/wavemesh/calibration.yaml
`)
	sess, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "7.1.4", sess.LayoutPreset)
	assert.Equal(t, "film", sess.LoudnessPreset)
	assert.Equal(t, "heavy", sess.DRCPreset)
	assert.Equal(t, 8, sess.FECGroupSize)
	assert.Equal(t, 100*time.Millisecond, sess.JitterTargetDelay)
	assert.Equal(t, 400*time.Millisecond, sess.JitterMaxDelay)
	assert.Equal(t, "ptp", sess.ClockSource)
	assert.Equal(t, "living-room", sess.MDNSServiceName)
	assert.Equal(t, "127.0.0.1:9000", sess.RESTListenAddr)
	assert.Equal(t, "/etc/wavemesh/calibration.yaml", sess.CalibrationFile)
}

func TestParseRejectsUnknownPreset(t *testing.T) {
	_, err := Parse([]byte(`loudness_preset: ultra-loud`))
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "loudness_preset", cerr.Field)
}

func TestParseRejectsContradictoryJitterBounds(t *testing.T) {
	_, err := Parse([]byte(`
jitter_target_delay: 200ms
jitter_max_delay: 50ms
`))
	require.Error(t, err)
}

func TestParseTreatsZeroFECGroupSizeAsUnset(t *testing.T) {
	_, err := Parse([]byte(`fec_group_size: 0`))
	require.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/session.yaml")
	require.Error(t, err)
}
