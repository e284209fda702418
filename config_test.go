//go:build !rp2350

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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	sc, err := cfg.StackConfig()
	require.NoError(t, err)
	assert.Equal(t, ModeAutoIP, sc.Mode)
	assert.Equal(t, uint32(0xC0A8166F), AddrToUint32(sc.Static))
	assert.Equal(t, uint32(0xFFFFFF00), AddrToUint32(sc.Netmask))
	assert.Equal(t, uint32(0), AddrToUint32(sc.Gateway))
	assert.Equal(t, DefaultDHCPTimeout, sc.DHCPTimeout)
}

func TestConfigValidate(t *testing.T) {
	for name, mod := range map[string]func(*Config){
		"tick rate":      func(c *Config) { c.TickHz = 0 },
		"tick too fast":  func(c *Config) { c.TickHz = 5000 },
		"priority order": func(c *Config) { c.TickPriority, c.NetPriority = 0xC0, 0x80 },
		"same priority":  func(c *Config) { c.TickPriority = 0xC8 },
		"step ticks":     func(c *Config) { c.StepTicks = 0 },
		"dhcp timeout":   func(c *Config) { c.DHCPTimeout = 0 },
		"static ip":      func(c *Config) { c.StaticIP = "192.168.22" },
		"ipv6 netmask":   func(c *Config) { c.Netmask = "ffff::" },
		"gateway":        func(c *Config) { c.Gateway = "gw" },
		"mode":           func(c *Config) { c.Mode = AcquisitionMode(9) },
		"static no ip":   func(c *Config) { c.Mode, c.StaticIP = ModeStatic, "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mod(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestParseConfig(t *testing.T) {
	fc, err := ParseConfig([]byte(`
mode: dhcp
static_ip: 10.0.0.5
dhcp_timeout: 3s
tick_priority: 0x20
hostname: netup
identity:
  user0: 0x00AABBCC
  user1: 0x00DDEEFF
dhcp:
  offer: 10.0.0.77
  offer_after: 1500ms
port: 5640
`))
	require.NoError(t, err)
	assert.Equal(t, ModeDHCP, fc.Mode)
	assert.Equal(t, "10.0.0.5", fc.StaticIP)
	assert.Equal(t, DefaultNetmask, fc.Netmask)
	assert.Equal(t, 3*time.Second, fc.DHCPTimeout)
	assert.Equal(t, Priority(0x20), fc.TickPriority)
	assert.Equal(t, TickHz, fc.TickHz)
	assert.Equal(t, "netup", fc.Hostname)
	assert.Equal(t, "10.0.0.77", fc.OfferAddr().String())
	assert.Equal(t, 1500*time.Millisecond, fc.DHCP.OfferAfter)
	assert.Equal(t, uint16(5640), fc.Port)

	mac, err := AcquireIdentity(fc.UserStore())
	require.NoError(t, err)
	assert.Equal(t, "cc:bb:aa:ff:ee:dd", mac.String())
}

func TestParseConfigErrors(t *testing.T) {
	for _, doc := range []string{
		"mode: bootp",
		"tick_hz: [1]",
		"net_priority: 0x10",
		"dhcp:\n  offer: nowhere",
	} {
		_, err := ParseConfig([]byte(doc))
		require.ErrorIs(t, err, ErrConfig, doc)
	}
}

func TestDefaultIdentityUnprovisioned(t *testing.T) {
	fc, err := ParseConfig(nil)
	require.NoError(t, err)
	_, err = AcquireIdentity(fc.UserStore())
	require.ErrorIs(t, err, ErrUnprovisioned)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: static\n"), 0o600))
	fc, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModeStatic, fc.Mode)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
