//----------------------------------------------------------------------
// This file is part of netup.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// netup is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// netup is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package netup

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMAC = HardwareAddr{0xcc, 0xbb, 0xaa, 0xff, 0xee, 0xdd}

func TestAddrConversion(t *testing.T) {
	a := AddrFromUint32(0xC0A8166F)
	assert.Equal(t, "192.168.22.111", a.String())
	assert.Equal(t, uint32(0xC0A8166F), AddrToUint32(a))
	assert.Equal(t, uint32(0), AddrToUint32(netip.Addr{}))
	assert.Equal(t, uint32(0), AddrToUint32(netip.MustParseAddr("fe80::1")))
	assert.Equal(t, uint32(0x0a000001), AddrToUint32(netip.MustParseAddr("::ffff:10.0.0.1")))
}

func TestAcquisitionModeText(t *testing.T) {
	for _, m := range []AcquisitionMode{ModeStatic, ModeDHCP, ModeAutoIP} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var got AcquisitionMode
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, m, got)
	}
	var m AcquisitionMode
	require.ErrorIs(t, m.UnmarshalText([]byte("bootp")), ErrMode)
	assert.Equal(t, "mode(7)", AcquisitionMode(7).String())
}

func TestLinkLocalAddr(t *testing.T) {
	// seed 0xddee: 169.254.1.0 + 0xddee = 169.254.222.238
	assert.Equal(t, "169.254.222.238", LinkLocalAddr(testMAC, 0).String())
	assert.Equal(t, "169.254.222.239", LinkLocalAddr(testMAC, 1).String())

	// wraps around to the start of the range
	mac := HardwareAddr{0, 0, 0, 0, 0xff, 0xff}
	a := LinkLocalAddr(mac, 0)
	assert.Equal(t, "169.254.2.255", a.String())
	for i := range 1000 {
		v := AddrToUint32(LinkLocalAddr(mac, i))
		assert.GreaterOrEqual(t, v, uint32(linkLocalStart))
		assert.LessOrEqual(t, v, uint32(linkLocalEnd))
	}
}

func TestAddrCell(t *testing.T) {
	var c addrCell
	assert.False(t, c.Load().IsValid())
	c.Store(netip.MustParseAddr("0.0.0.0"))
	assert.Equal(t, "0.0.0.0", c.Load().String())
	c.Store(netip.MustParseAddr("192.168.22.111"))
	assert.Equal(t, "192.168.22.111", c.Load().String())
	c.Store(netip.Addr{})
	assert.False(t, c.Load().IsValid())
}

func tickFor(s NetworkStack, d time.Duration) {
	for range int(d / (TickMs * time.Millisecond)) {
		s.ServiceTimers(TickMs)
	}
}

func TestSimStackStatic(t *testing.T) {
	s := NewSimStack(netip.Addr{}, 0, nil)
	cfg := StackConfig{Mode: ModeStatic, Static: AddrFromUint32(0xC0A8166F)}
	require.NoError(t, s.Initialize(testMAC, cfg))
	assert.Equal(t, "192.168.22.111", s.BoundAddress().String())
	require.ErrorIs(t, s.Initialize(testMAC, cfg), ErrStackInit)
}

func TestSimStackStaticInvalid(t *testing.T) {
	s := NewSimStack(netip.Addr{}, 0, nil)
	require.ErrorIs(t, s.Initialize(testMAC, StackConfig{Mode: ModeStatic}), ErrStaticAddr)
	require.ErrorIs(t, s.Initialize(testMAC, StackConfig{Mode: AcquisitionMode(5)}), ErrMode)
}

func TestSimStackOffer(t *testing.T) {
	offer := netip.MustParseAddr("10.1.2.3")
	s := NewSimStack(offer, 200*time.Millisecond, nil)
	require.NoError(t, s.Initialize(testMAC, StackConfig{Mode: ModeDHCP, DHCPTimeout: time.Second}))
	s.ServiceTimers(TickMs)
	assert.False(t, s.BoundAddress().IsValid())
	tickFor(s, 200*time.Millisecond)
	assert.Equal(t, offer, s.BoundAddress())
}

func TestSimStackNoServer(t *testing.T) {
	// plain DHCP keeps trying
	s := NewSimStack(netip.Addr{}, 0, nil)
	require.NoError(t, s.Initialize(testMAC, StackConfig{Mode: ModeDHCP, DHCPTimeout: time.Second}))
	tickFor(s, 5*time.Second)
	assert.False(t, s.BoundAddress().IsValid())

	// automatic addressing falls back to link-local
	s = NewSimStack(netip.Addr{}, 0, nil)
	require.NoError(t, s.Initialize(testMAC, StackConfig{Mode: ModeAutoIP, DHCPTimeout: time.Second}))
	tickFor(s, 990*time.Millisecond)
	assert.False(t, s.BoundAddress().IsValid())
	s.ServiceTimers(TickMs)
	assert.Equal(t, LinkLocalAddr(testMAC, 0), s.BoundAddress())
	assert.Equal(t, time.Second, s.Elapsed())
}

func TestSimStackInvalidOffer(t *testing.T) {
	for _, offer := range []netip.Addr{{}, netip.MustParseAddr("fe80::1")} {
		s := NewSimStack(offer, 100*time.Millisecond, nil)
		require.NoError(t, s.Initialize(testMAC, StackConfig{Mode: ModeAutoIP, DHCPTimeout: 500 * time.Millisecond}))
		tickFor(s, 400*time.Millisecond)
		assert.False(t, s.BoundAddress().IsValid())
		tickFor(s, 100*time.Millisecond)
		assert.Equal(t, LinkLocalAddr(testMAC, 0), s.BoundAddress())
	}
}

func TestSimStackNotInitialized(t *testing.T) {
	s := NewSimStack(netip.MustParseAddr("10.1.2.3"), 10*time.Millisecond, nil)
	tickFor(s, time.Second)
	assert.False(t, s.BoundAddress().IsValid())
}
