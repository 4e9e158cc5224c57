//go:build unit

package route

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func TestPinger_Reachable(t *testing.T) {
	t.Run("InvalidAddress", func(t *testing.T) {
		err := NewPinger().Reachable(context.Background(), "router.lan")
		assert.ErrorContains(t, err, "invalid gateway address")
	})

	t.Run("SocketUnavailable", func(t *testing.T) {
		p := &Pinger{listen: func() (net.PacketConn, bool, error) {
			return nil, false, errNoSocket
		}}
		err := p.Reachable(context.Background(), "192.168.31.1")
		assert.ErrorIs(t, err, errNoSocket)
	})

	t.Run("Loopback", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := NewPinger().Reachable(ctx, "127.0.0.1")
		if errors.Is(err, errNoSocket) {
			t.Skip("ICMP sockets not permitted, skipping test")
		}
		require.NoError(t, err)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPinger().Reachable(ctx, "192.0.2.1")
		if errors.Is(err, errNoSocket) {
			t.Skip("ICMP sockets not permitted, skipping test")
		}
		assert.Error(t, err)
	})
}

func TestPinger_isReply(t *testing.T) {
	p := &Pinger{id: 7}
	gw := net.ParseIP("192.168.31.1").To4()
	encode := func(typ icmp.Type, id, seq int) []byte {
		b, err := (&icmp.Message{Type: typ, Body: &icmp.Echo{ID: id, Seq: seq}}).Marshal(nil)
		require.NoError(t, err)
		return b
	}

	assert.True(t, p.isReply(encode(ipv4.ICMPTypeEchoReply, 7, 3), &net.IPAddr{IP: gw}, gw, 3, true))
	assert.True(t, p.isReply(encode(ipv4.ICMPTypeEchoReply, 99, 3), &net.UDPAddr{IP: gw}, gw, 3, false))

	assert.False(t, p.isReply(encode(ipv4.ICMPTypeEcho, 7, 3), &net.IPAddr{IP: gw}, gw, 3, true), "own request")
	assert.False(t, p.isReply(encode(ipv4.ICMPTypeEchoReply, 7, 4), &net.IPAddr{IP: gw}, gw, 3, true), "stale sequence")
	assert.False(t, p.isReply(encode(ipv4.ICMPTypeEchoReply, 8, 3), &net.IPAddr{IP: gw}, gw, 3, true), "other process")
	assert.False(t, p.isReply(encode(ipv4.ICMPTypeEchoReply, 7, 3), &net.IPAddr{IP: net.ParseIP("10.0.0.1")}, gw, 3, true), "other host")
}
