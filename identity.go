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
	"errors"
	"fmt"
	"net"
)

// Unprogrammed user register value
const userUnset = 0xffffffff

// Error messages
var (
	ErrUnprovisioned = errors.New("hardware address not programmed")
	ErrIdentityRead  = errors.New("can't read user registers")
)

// HardwareAddr is the 48-bit identity of the device on the network segment.
type HardwareAddr [6]byte

// String returns the address in colon-separated hex notation.
func (a HardwareAddr) String() string {
	return net.HardwareAddr(a[:]).String()
}

// UserStore gives access to the two non-volatile user registers holding
// the hardware address (24 significant bits each).
type UserStore interface {
	UserWords() (user0, user1 uint32, err error)
}

// AcquireIdentity reads the hardware address from non-volatile storage.
// An unprogrammed register is fatal: the returned error wraps
// ErrUnprovisioned and the caller must not bring up the network.
func AcquireIdentity(store UserStore) (mac HardwareAddr, err error) {
	var user0, user1 uint32
	if user0, user1, err = store.UserWords(); err != nil {
		err = fmt.Errorf("%w: %w", ErrIdentityRead, err)
		return
	}
	if user0 == userUnset || user1 == userUnset {
		err = fmt.Errorf("%w (user0=%08x, user1=%08x)", ErrUnprovisioned, user0, user1)
		return
	}
	// 24/24 split in storage, low byte first
	mac[0] = byte(user0)
	mac[1] = byte(user0 >> 8)
	mac[2] = byte(user0 >> 16)
	mac[3] = byte(user1)
	mac[4] = byte(user1 >> 8)
	mac[5] = byte(user1 >> 16)
	return
}

// IsFatal returns true if the error prevents any network activity.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnprovisioned)
}

//----------------------------------------------------------------------

// StaticUserStore holds register values given by configuration.
type StaticUserStore struct {
	User0 uint32
	User1 uint32
}

// UserWords returns the configured register values.
func (s *StaticUserStore) UserWords() (uint32, uint32, error) {
	return s.User0, s.User1, nil
}

// splitHardwareAddr is the inverse of the register layout used by
// AcquireIdentity.
func splitHardwareAddr(mac [6]byte) (user0, user1 uint32) {
	user0 = uint32(mac[0]) | uint32(mac[1])<<8 | uint32(mac[2])<<16
	user1 = uint32(mac[3]) | uint32(mac[4])<<8 | uint32(mac[5])<<16
	return
}
