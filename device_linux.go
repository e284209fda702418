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
	"context"
	"fmt"
	"net"
	"sync/atomic"
)

// LinuxDevice (for testing purposes)
type LinuxDevice struct {
	led atomic.Bool
}

// LED on or off (remembered only)
func (dev *LinuxDevice) LED(on bool) {
	dev.led.Store(on)
}

// LEDState returns the last LED setting.
func (dev *LinuxDevice) LEDState() bool {
	return dev.led.Load()
}

// Listen returns a TCP listener on the given port (all interfaces).
func (dev *LinuxDevice) Listen(port uint16) (net.Listener, error) {
	cfg := new(net.ListenConfig)
	return cfg.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
}

// InitDevice returns the host device.
func InitDevice() *LinuxDevice {
	return new(LinuxDevice)
}
