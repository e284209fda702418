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

package netup

import (
	"log/slog"
	"machine"
	"net"
	"time"

	"github.com/soypat/cyw43439"
)

// Raspberry Pico2 W  [RP2350]
type Pico2WDevice struct {
	ref   *cyw43439.Device // reference to device
	stack *SeqsStack       // network stack (once created)
	log   *slog.Logger
}

// WifiConfig for joining an access point
type WifiConfig struct {
	SSID   string
	Passwd string
}

// SerialLogger logs to the USB serial port.
func SerialLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelDebug - 1}))
}

// InitDevice initializes the wireless chip and joins the access point.
// The returned status code is StatOK on success.
func InitDevice(cfg WifiConfig, logger *slog.Logger) (dev *Pico2WDevice, state int) {
	logger = orDiscard(logger)
	time.Sleep(2 * time.Second)

	dev = &Pico2WDevice{
		ref: cyw43439.NewPicoWDevice(),
		log: logger,
	}
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = logger
	logger.Info("initializing pico W device...")
	devInitTime := time.Now()
	if err := dev.ref.Init(wificfg); err != nil {
		return dev, StatWIFI
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(devInitTime)))

	if len(cfg.Passwd) == 0 {
		logger.Info("joining open network:", slog.String("ssid", cfg.SSID))
	} else {
		logger.Info("joining WPA secure network", slog.String("ssid", cfg.SSID), slog.Int("passlen", len(cfg.Passwd)))
	}
	var err error
	for range 5 {
		if err = dev.ref.JoinWPA2(cfg.SSID, cfg.Passwd); err == nil {
			break
		}
		logger.Error("wifi join failed", slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		return dev, StatWPA2
	}
	logger.Info("wifi join success!")
	return dev, StatOK
}

// LED on or off (if applicable)
func (dev *Pico2WDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// Stack returns the seqs network stack on top of the wireless chip.
func (dev *Pico2WDevice) Stack() *SeqsStack {
	if dev.stack == nil {
		dev.stack = NewSeqsStack(dev.ref, SeqsConfig{
			MTU:      cyw43439.MTU,
			TCPPorts: 1,
		}, dev.log)
	}
	return dev.stack
}

// Listen returns a TCP listener on the given port.
func (dev *Pico2WDevice) Listen(port uint16) (net.Listener, error) {
	if dev.stack == nil {
		return nil, ErrNoNetwork
	}
	return dev.stack.Listen(port)
}

// UserStore returns the identity store of the device.
func (dev *Pico2WDevice) UserStore() UserStore {
	return &ChipUserStore{dev: dev.ref}
}

//----------------------------------------------------------------------

// ChipUserStore reads the hardware address programmed into the
// wireless chip and presents it as the two user registers.
type ChipUserStore struct {
	dev *cyw43439.Device
}

// UserWords returns the register values.
func (s *ChipUserStore) UserWords() (uint32, uint32, error) {
	mac, err := s.dev.HardwareAddr6()
	if err != nil {
		return userUnset, userUnset, err
	}
	user0, user1 := splitHardwareAddr(mac)
	return user0, user1, nil
}
