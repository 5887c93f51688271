package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXorFECEncodeScenario(t *testing.T) {
	fec := NewXorFEC(3)

	assert.Nil(t, fec.Encode([]byte{1, 2, 3}))
	assert.Nil(t, fec.Encode([]byte{4, 5, 6}))
	parity := fec.Encode([]byte{7, 8, 9})

	require.NotNil(t, parity)
	assert.Equal(t, []byte{2, 15, 12}, parity)
}

func TestXorFECDecodeScenario(t *testing.T) {
	fec := NewXorFEC(3)
	packets := [][]byte{{1, 2, 3}, {7, 8, 9}}
	parity := []byte{2, 15, 12}

	recovered, err := fec.Decode(packets, parity)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6}, recovered)
}

func TestXorFECDecodeInsufficientData(t *testing.T) {
	fec := NewXorFEC(4)
	_, err := fec.Decode([][]byte{{1, 2}}, []byte{3, 4})
	assert.Error(t, err)
}

func TestXorFECHandlesUnequalLengths(t *testing.T) {
	fec := NewXorFEC(2)
	assert.Nil(t, fec.Encode([]byte{1, 2, 3}))
	parity := fec.Encode([]byte{9})
	require.NotNil(t, parity)
	assert.Equal(t, []byte{1 ^ 9, 2, 3}, parity)
}

func TestXorFECResetsAfterGroup(t *testing.T) {
	fec := NewXorFEC(2)
	fec.Encode([]byte{1})
	fec.Encode([]byte{2})
	// next group starts fresh
	assert.Nil(t, fec.Encode([]byte{3}))
}
