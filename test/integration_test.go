//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"routerswitcher/internal/adapter/applier"
	"routerswitcher/internal/adapter/configstore"
	"routerswitcher/internal/adapter/dhcp"
	infraDhcp "routerswitcher/internal/adapter/infrastructure/dhcp"
	"routerswitcher/internal/adapter/infrastructure/file"
	"routerswitcher/internal/adapter/infrastructure/journal"
	"routerswitcher/internal/adapter/infrastructure/network"
	"routerswitcher/internal/engine"
	"routerswitcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

const (
	testLink = "rs-test0"

	homeSSID = "HomeNet"
)

// fixedDetector reports a constant association on testLink.
type fixedDetector struct {
	ssid string
}

func (d fixedDetector) CurrentSSID(ctx context.Context) (types.NetworkObservation, error) {
	return types.NetworkObservation{SSID: d.ssid, Associated: d.ssid != "", Adapter: testLink}, nil
}

// withNamespace runs fn on a locked OS thread inside a fresh network
// namespace holding one dummy link named testLink.
func withNamespace(t *testing.T, fn func(t *testing.T)) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("integration tests need root to create network namespaces")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	require.NoError(t, err)
	defer orig.Close()

	ns, err := netns.New()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, netns.Set(orig))
		ns.Close()
	}()

	dummy := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: testLink}}
	require.NoError(t, netlink.LinkAdd(dummy))

	fn(t)
}

func newApplier(t *testing.T) (*applier.Applier, string) {
	resolv := filepath.Join(t.TempDir(), "resolv.conf")
	a := applier.NewNetlink(infraDhcp.NewClientAdapter(), network.NewManagerAdapter(), file.NewManagerAdapter(), resolv, dhcp.DefaultOptions())
	t.Cleanup(func() { _ = a.Close() })
	return a, resolv
}

func linkState(t *testing.T) ([]string, []string) {
	t.Helper()
	link, err := netlink.LinkByName(testLink)
	require.NoError(t, err)

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	require.NoError(t, err)
	var addrList []string
	for _, a := range addrs {
		addrList = append(addrList, a.IPNet.String())
	}

	routes, err := netlink.RouteList(link, netlink.FAMILY_V4)
	require.NoError(t, err)
	var gateways []string
	for _, r := range routes {
		if r.Dst == nil || r.Dst.String() == "0.0.0.0/0" {
			if r.Gw != nil {
				gateways = append(gateways, r.Gw.String())
			}
		}
	}
	return addrList, gateways
}

func TestApplyStaticOnDummyLink(t *testing.T) {
	withNamespace(t, func(t *testing.T) {
		a, resolv := newApplier(t)
		ctx := context.Background()

		profile := types.StaticProfile{Address: "192.168.31.100", Gateway: "192.168.31.1", DNS: "192.168.31.1, 1.1.1.1"}
		require.NoError(t, a.ApplyStatic(ctx, testLink, profile))

		addrs, gateways := linkState(t)
		assert.Equal(t, []string{"192.168.31.100/24"}, addrs)
		assert.Equal(t, []string{"192.168.31.1"}, gateways)

		data, err := os.ReadFile(resolv)
		require.NoError(t, err)
		assert.Contains(t, string(data), "nameserver 192.168.31.1\n")
		assert.Contains(t, string(data), "nameserver 1.1.1.1\n")

		// Re-applying the same profile leaves the link untouched
		require.NoError(t, a.ApplyStatic(ctx, testLink, profile))
		addrs, gateways = linkState(t)
		assert.Equal(t, []string{"192.168.31.100/24"}, addrs)
		assert.Equal(t, []string{"192.168.31.1"}, gateways)

		// A new profile replaces the old address and route
		require.NoError(t, a.ApplyStatic(ctx, testLink, types.StaticProfile{Address: "10.0.5.20/16", Gateway: "10.0.0.1"}))
		addrs, gateways = linkState(t)
		assert.Equal(t, []string{"10.0.5.20/16"}, addrs)
		assert.Equal(t, []string{"10.0.0.1"}, gateways)
	})
}

func TestApplyStaticInvalidProfileLeavesLink(t *testing.T) {
	withNamespace(t, func(t *testing.T) {
		a, _ := newApplier(t)
		ctx := context.Background()

		require.NoError(t, a.ApplyStatic(ctx, testLink, types.StaticProfile{Address: "192.168.31.100", Gateway: "192.168.31.1"}))

		err := a.ApplyStatic(ctx, testLink, types.StaticProfile{Address: "192.168.31.100", Gateway: "10.0.0.1"})
		require.ErrorIs(t, err, types.ErrInvalidAddress)

		addrs, gateways := linkState(t)
		assert.Equal(t, []string{"192.168.31.100/24"}, addrs)
		assert.Equal(t, []string{"192.168.31.1"}, gateways)
	})
}

func TestApplyStaticMissingInterface(t *testing.T) {
	withNamespace(t, func(t *testing.T) {
		a, _ := newApplier(t)

		err := a.ApplyStatic(context.Background(), "rs-missing0", types.StaticProfile{Address: "192.168.31.100", Gateway: "192.168.31.1"})
		require.ErrorIs(t, err, types.ErrInterfaceNotFound)
	})
}

func TestEngineAppliesHomeProfile(t *testing.T) {
	withNamespace(t, func(t *testing.T) {
		dir := t.TempDir()
		a, _ := newApplier(t)

		store := configstore.New(filepath.Join(dir, configstore.FileName), file.NewManagerAdapter())
		require.NoError(t, store.Save(types.Config{
			HomeSSID: homeSSID,
			StaticIP: "192.168.31.100/24",
			Gateway:  "192.168.31.1",
			IPMode:   types.IPModeStatic,
		}))

		j, err := journal.Open(filepath.Join(dir, "journal.db"))
		require.NoError(t, err)
		defer j.Close()

		e := engine.New(store, fixedDetector{ssid: homeSSID}, a, j, engine.DefaultOptions())

		st := e.Evaluate(context.Background())
		assert.Equal(t, types.StateHomeApplied, st.State)
		assert.Equal(t, types.ModeStatic, st.AppliedMode)
		assert.Equal(t, homeSSID, st.LastSSID)

		addrs, gateways := linkState(t)
		assert.Equal(t, []string{"192.168.31.100/24"}, addrs)
		assert.Equal(t, []string{"192.168.31.1"}, gateways)

		// A second pass with nothing changed records nothing new
		e.Evaluate(context.Background())
		events, err := j.Recent(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, types.OutcomeApplied, events[0].Outcome)
		assert.Equal(t, types.ModeStatic, events[0].Mode)
	})
}
