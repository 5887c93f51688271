package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderReceiverLoopback(t *testing.T) {
	recv, err := NewReceiver("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer recv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recv.Run(ctx)

	sender, err := NewSender(recv.conn.LocalAddr().String(), 0xABCDEF01, 0)
	require.NoError(t, err)
	defer sender.Close()

	sender.Send(0, []byte("hello"))
	assert.Equal(t, SenderStreaming, sender.State())

	var got Packet
	require.Eventually(t, func() bool {
		p, ok := recv.Poll()
		if ok {
			got = p
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []byte("hello"), got.Payload)
	assert.Equal(t, uint32(0xABCDEF01), got.Header.SSRC)
}

func TestSenderFECEmitsParityEveryGroup(t *testing.T) {
	recv, err := NewReceiver("127.0.0.1:0", 16)
	require.NoError(t, err)
	defer recv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recv.Run(ctx)

	sender, err := NewSender(recv.conn.LocalAddr().String(), 1, 3)
	require.NoError(t, err)
	defer sender.Close()

	sender.Send(0, []byte{1})
	sender.Send(100, []byte{2})
	sender.Send(200, []byte{3})

	count := 0
	require.Eventually(t, func() bool {
		for {
			_, ok := recv.Poll()
			if !ok {
				return count == 4 // 3 data + 1 parity
			}
			count++
		}
	}, 2*time.Second, 10*time.Millisecond)
}
