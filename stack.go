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
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"sync/atomic"
	"time"
)

// Error messages
var (
	ErrMode       = errors.New("unknown acquisition mode")
	ErrNoNetwork  = errors.New("network not available")
	ErrStack      = errors.New("network stack failed")
	ErrStackInit  = errors.New("network stack already initialized")
	ErrStaticAddr = errors.New("static mode requires a valid IPv4 address")
)

// AcquisitionMode selects how the device obtains its address.
type AcquisitionMode int

// acquisition modes
const (
	ModeStatic AcquisitionMode = iota // fixed address from configuration
	ModeDHCP                          // negotiated lease
	ModeAutoIP                        // negotiated lease, link-local fallback
)

var modeNames = []string{"static", "dhcp", "autoip"}

// String returns the configuration name of the mode.
func (m AcquisitionMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// MarshalText implements encoding.TextMarshaler
func (m AcquisitionMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(modeNames) {
		return nil, ErrMode
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *AcquisitionMode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = AcquisitionMode(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrMode, string(text))
}

// StackConfig is handed to the network stack at initialization.
type StackConfig struct {
	Mode        AcquisitionMode
	Static      netip.Addr    // static address (and DHCP hint)
	Netmask     netip.Addr    // netmask for static address
	Gateway     netip.Addr    // default gateway for static address
	Hostname    string        // hostname sent in DHCP requests
	DHCPTimeout time.Duration // time before link-local fallback
}

// NetworkStack is the adapter to a TCP/IP stack. Initialize is called once
// before the tick source is armed; ServiceTimers is called from the tick
// source and BoundAddress from the idle loop, so implementations must allow
// both to run concurrently. An invalid address means "not bound".
type NetworkStack interface {
	Initialize(mac HardwareAddr, cfg StackConfig) error
	ServiceTimers(elapsedMs uint32)
	BoundAddress() netip.Addr
}

//----------------------------------------------------------------------

// AddrFromUint32 converts a host-order IPv4 address.
func AddrFromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// AddrToUint32 returns the host-order value of an IPv4 address (0 if
// the address is not IPv4).
func AddrToUint32(a netip.Addr) uint32 {
	a = a.Unmap()
	if !a.Is4() {
		return 0
	}
	b := a.As4()
	return binary.BigEndian.Uint32(b[:])
}

// link-local range for automatic addressing (RFC 3927)
const (
	linkLocalStart = 0xa9fe0100 // 169.254.1.0
	linkLocalEnd   = 0xa9fefeff // 169.254.254.255
)

// LinkLocalAddr returns the link-local candidate address for the n-th
// attempt. The first candidate is seeded by the last two bytes of the
// hardware address; later attempts walk the range.
func LinkLocalAddr(mac HardwareAddr, attempt int) netip.Addr {
	const size = linkLocalEnd - linkLocalStart + 1
	seed := uint32(mac[4]) | uint32(mac[5])<<8
	off := (seed + uint32(attempt)) % size
	return AddrFromUint32(linkLocalStart + off)
}

//----------------------------------------------------------------------

// addrCell publishes an IPv4 address between goroutines without locking.
// Bit 32 flags a valid address.
type addrCell struct {
	v atomic.Uint64
}

// Store an address; anything but IPv4 clears the cell.
func (c *addrCell) Store(a netip.Addr) {
	a = a.Unmap()
	if !a.Is4() {
		c.v.Store(0)
		return
	}
	c.v.Store(1<<32 | uint64(AddrToUint32(a)))
}

// Load the current address (invalid if not set).
func (c *addrCell) Load() netip.Addr {
	v := c.v.Load()
	if v>>32 == 0 {
		return netip.Addr{}
	}
	return AddrFromUint32(uint32(v))
}
