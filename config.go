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
	"io"
	"log/slog"
	"net/netip"
	"time"
)

// Compile-time defaults
const (
	TickHz = 100           // tick source rate
	TickMs = 1000 / TickHz // milliseconds per tick

	// The tick must preempt the network handler: protocol timers are
	// serviced while a packet burst is processed.
	TickPriority Priority = 0x80
	NetPriority  Priority = 0xC0

	StepTicks          = 10              // ticks per supervisory step
	DefaultDHCPTimeout = 8 * time.Second // DHCP time before link-local fallback
	DefaultMode        = ModeAutoIP

	DefaultStaticIP = "192.168.22.111"
	DefaultNetmask  = "255.255.255.0"
	DefaultGateway  = "0.0.0.0"
)

// Error messages
var (
	ErrConfig = errors.New("invalid configuration")
)

// Config of the acquisition core
type Config struct {
	TickHz       int             `yaml:"tick_hz"`
	TickPriority Priority        `yaml:"tick_priority"`
	NetPriority  Priority        `yaml:"net_priority"`
	StepTicks    int             `yaml:"step_ticks"`
	Mode         AcquisitionMode `yaml:"mode"`
	StaticIP     string          `yaml:"static_ip"`
	Netmask      string          `yaml:"netmask"`
	Gateway      string          `yaml:"gateway"`
	Hostname     string          `yaml:"hostname"`
	DHCPTimeout  time.Duration   `yaml:"dhcp_timeout"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		TickHz:       TickHz,
		TickPriority: TickPriority,
		NetPriority:  NetPriority,
		StepTicks:    StepTicks,
		Mode:         DefaultMode,
		StaticIP:     DefaultStaticIP,
		Netmask:      DefaultNetmask,
		Gateway:      DefaultGateway,
		DHCPTimeout:  DefaultDHCPTimeout,
	}
}

// Validate the configuration.
func (c *Config) Validate() error {
	if c.TickHz <= 0 || c.TickHz > 1000 {
		return fmt.Errorf("%w: tick rate %d Hz", ErrConfig, c.TickHz)
	}
	if !c.TickPriority.Preempts(c.NetPriority) {
		return fmt.Errorf("%w: tick priority %#02x must be higher than network priority %#02x",
			ErrConfig, uint8(c.TickPriority), uint8(c.NetPriority))
	}
	if c.StepTicks <= 0 {
		return fmt.Errorf("%w: step ticks %d", ErrConfig, c.StepTicks)
	}
	if c.Mode != ModeStatic && c.DHCPTimeout <= 0 {
		return fmt.Errorf("%w: DHCP timeout %s", ErrConfig, c.DHCPTimeout)
	}
	_, err := c.StackConfig()
	return err
}

// StackConfig returns the parsed network stack configuration.
func (c *Config) StackConfig() (sc StackConfig, err error) {
	sc.Mode = c.Mode
	sc.Hostname = c.Hostname
	sc.DHCPTimeout = c.DHCPTimeout
	if c.Mode < ModeStatic || c.Mode > ModeAutoIP {
		err = fmt.Errorf("%w: %w", ErrConfig, ErrMode)
		return
	}
	parse := func(name, s string) (a netip.Addr, err error) {
		if len(s) == 0 {
			return
		}
		if a, err = netip.ParseAddr(s); err == nil && !a.Is4() {
			err = errors.New("not an IPv4 address")
		}
		if err != nil {
			err = fmt.Errorf("%w: %s %q: %w", ErrConfig, name, s, err)
		}
		return
	}
	if sc.Static, err = parse("static_ip", c.StaticIP); err != nil {
		return
	}
	if sc.Netmask, err = parse("netmask", c.Netmask); err != nil {
		return
	}
	if sc.Gateway, err = parse("gateway", c.Gateway); err != nil {
		return
	}
	if c.Mode == ModeStatic && !sc.Static.IsValid() {
		err = fmt.Errorf("%w: %w", ErrConfig, ErrStaticAddr)
	}
	return
}

// orDiscard returns a logger that drops everything if none is given.
func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(127),
	}))
}
