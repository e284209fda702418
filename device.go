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

import "net"

// Device is a hardware abstraction
type Device interface {
	// LED on or off (if applicable)
	LED(on bool)

	// Listen for TCP connections on the given port once the network
	// stack is up.
	Listen(port uint16) (net.Listener, error)
}

// NopDevice has neither LED nor network.
type NopDevice struct{}

// LED is ignored
func (NopDevice) LED(bool) {}

// Listen always fails
func (NopDevice) Listen(uint16) (net.Listener, error) {
	return nil, ErrNoNetwork
}
