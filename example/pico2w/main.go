//go:build rp2350

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

package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bfix/netup"
)

// WiFi credentials, hostname and 9p port (set with -ldflags)
var (
	SSID   string
	Passwd string
	Host   string
	Port   = "564"
)

// bring up the network and serve the status files
func main() {
	logger := netup.SerialLogger()

	// access device
	dev, stat := netup.InitDevice(netup.WifiConfig{SSID: SSID, Passwd: Passwd}, logger)
	state := netup.NewStatus(dev)
	defer state.Trap(30 * time.Second)
	if stat != netup.StatOK {
		state.Halt(stat)
	}
	port, err := strconv.ParseUint(Port, 10, 16)
	if err != nil {
		state.Halt(netup.StatCONF)
	}

	// acquire identity and initialize the network stack
	cfg := netup.DefaultConfig()
	cfg.Hostname = Host
	disp := netup.NewLEDDisplay(dev, logger)
	node, err := netup.Bringup(cfg, dev.UserStore(), dev.Stack(), disp, logger)
	if err != nil {
		state.Halt(netup.StatusOf(err))
	}

	// serve status files in the background
	fs, err := netup.NewStatusFS(node)
	if err != nil {
		state.Halt(netup.StatSRV)
	}
	go serve(dev, node, fs, uint16(port), state, logger)

	// the idle loop never returns
	node.Run(context.Background())
}

// serve the status namespace via 9p once an address is bound
func serve(dev *netup.Pico2WDevice, node *netup.Node, fs *netup.Namespace, port uint16, state *netup.Status, logger *slog.Logger) {
	for node.Supervisor().State() != netup.Bound {
		time.Sleep(500 * time.Millisecond)
	}
	lst, err := dev.Listen(port)
	if err != nil {
		logger.Error("listen", slog.String("err", err.Error()))
		state.Set(netup.StatLISTEN, 0)
		return
	}
	for {
		if err = fs.ServeListener(lst); err != nil {
			logger.Error("serve", slog.String("err", err.Error()))
			state.Set(netup.StatSRV, 3)
			time.Sleep(time.Second)
		}
	}

	// srv tcp!<host>!564 netup
	// mount /srv/netup /n/netup
	// cat /n/netup/net/addr
}
