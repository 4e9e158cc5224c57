package route

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"routerswitcher/internal/port"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	protocolICMP       = 1
	defaultPingTimeout = 2 * time.Second
)

var errNoSocket = errors.New("no ICMP socket")

// Pinger implements the GatewayChecker port with a single ICMP echo.
// It uses a raw socket when permitted and falls back to an unprivileged
// datagram socket, where the kernel owns the echo identifier.
type Pinger struct {
	listen func() (conn net.PacketConn, raw bool, err error)
	id     int
	seq    atomic.Uint32
}

// Ensure Pinger implements the GatewayChecker port
var _ port.GatewayChecker = (*Pinger)(nil)

// NewPinger creates a Pinger.
func NewPinger() *Pinger {
	return &Pinger{listen: listenICMP, id: os.Getpid() & 0xffff}
}

func listenICMP() (net.PacketConn, bool, error) {
	conn, rawErr := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if rawErr == nil {
		return conn, true, nil
	}
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", errNoSocket, errors.Join(rawErr, err))
	}
	return conn, false, nil
}

// Reachable sends one echo request to addr and waits for the matching reply
// until ctx is done.
func (p *Pinger) Reachable(ctx context.Context, addr string) error {
	ip := net.ParseIP(addr).To4()
	if ip == nil {
		return fmt.Errorf("invalid gateway address %q", addr)
	}

	conn, raw, err := p.listen()
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultPingTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set ICMP deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte("routerswitcher")},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("failed to encode echo request: %w", err)
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if !raw {
		dst = &net.UDPAddr{IP: ip}
	}
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return fmt.Errorf("failed to send echo request to %s: %w", addr, err)
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return fmt.Errorf("no echo reply from %s: %w", addr, err)
		}
		if p.isReply(rb[:n], peer, ip, seq, raw) {
			return nil
		}
	}
}

func (p *Pinger) isReply(b []byte, peer net.Addr, ip net.IP, seq int, raw bool) bool {
	reply, err := icmp.ParseMessage(protocolICMP, b)
	if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
		return false
	}
	echo, ok := reply.Body.(*icmp.Echo)
	if !ok || echo.Seq != seq {
		return false
	}
	if raw && echo.ID != p.id {
		return false
	}

	switch a := peer.(type) {
	case *net.IPAddr:
		return a.IP.Equal(ip)
	case *net.UDPAddr:
		return a.IP.Equal(ip)
	}
	return false
}
