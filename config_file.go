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
	"fmt"
	"net/netip"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the host-side configuration: the core settings plus
// the simulated hardware.
type FileConfig struct {
	Config `yaml:",inline"`

	// simulated user registers
	Identity struct {
		User0 uint32 `yaml:"user0"`
		User1 uint32 `yaml:"user1"`
	} `yaml:"identity"`

	// simulated DHCP server
	DHCP struct {
		Offer      string        `yaml:"offer"`
		OfferAfter time.Duration `yaml:"offer_after"`
	} `yaml:"dhcp"`

	// TCP port of the status file server (0: none)
	Port uint16 `yaml:"port"`
}

// DefaultFileConfig returns the built-in host configuration. The
// identity is unprogrammed.
func DefaultFileConfig() *FileConfig {
	fc := &FileConfig{Config: DefaultConfig()}
	fc.Identity.User0 = userUnset
	fc.Identity.User1 = userUnset
	return fc
}

// ParseConfig reads a YAML configuration on top of the defaults.
func ParseConfig(data []byte) (*FileConfig, error) {
	fc := DefaultFileConfig()
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	if len(fc.DHCP.Offer) > 0 {
		if a, err := netip.ParseAddr(fc.DHCP.Offer); err != nil || !a.Is4() {
			return nil, fmt.Errorf("%w: dhcp offer %q", ErrConfig, fc.DHCP.Offer)
		}
	}
	return fc, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// UserStore returns the simulated user registers.
func (fc *FileConfig) UserStore() UserStore {
	return &StaticUserStore{
		User0: fc.Identity.User0,
		User1: fc.Identity.User1,
	}
}

// OfferAddr returns the address offered by the simulated DHCP server.
func (fc *FileConfig) OfferAddr() netip.Addr {
	a, _ := netip.ParseAddr(fc.DHCP.Offer)
	return a
}
