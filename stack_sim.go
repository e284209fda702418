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
	"net/netip"
	"sync/atomic"
	"time"
)

// SimStack is a network stack without a network: a simulated DHCP server
// offers an address after a given (tick) time. Without a server the stack
// falls back to a link-local address in ModeAutoIP.
type SimStack struct {
	// OfferAfter is the time until the DHCP offer arrives; zero or
	// negative (or an offer that is not IPv4) means there is no DHCP
	// server.
	OfferAfter time.Duration
	// Offer is the address handed out by the simulated server.
	Offer netip.Addr

	log     *slog.Logger
	mac     HardwareAddr
	cfg     StackConfig
	init    atomic.Bool
	elapsed time.Duration // touched by ServiceTimers only
	bound   addrCell
}

// NewSimStack creates a simulated stack.
func NewSimStack(offer netip.Addr, after time.Duration, logger *slog.Logger) *SimStack {
	return &SimStack{
		OfferAfter: after,
		Offer:      offer,
		log:        orDiscard(logger),
	}
}

// Initialize the stack. A static configuration is bound immediately.
func (s *SimStack) Initialize(mac HardwareAddr, cfg StackConfig) error {
	if s.init.Load() {
		return ErrStackInit
	}
	switch cfg.Mode {
	case ModeStatic:
		if !cfg.Static.Unmap().Is4() {
			return ErrStaticAddr
		}
	case ModeDHCP, ModeAutoIP:
	default:
		return ErrMode
	}
	s.mac, s.cfg = mac, cfg
	s.init.Store(true)
	s.log.Info("simulated stack up",
		slog.String("mac", mac.String()),
		slog.String("mode", cfg.Mode.String()))
	if cfg.Mode == ModeStatic {
		s.bind(cfg.Static, "static")
	}
	return nil
}

// ServiceTimers advances the simulated clock.
func (s *SimStack) ServiceTimers(elapsedMs uint32) {
	if !s.init.Load() || s.bound.Load().IsValid() {
		return
	}
	s.elapsed += time.Duration(elapsedMs) * time.Millisecond
	if s.hasServer() && s.elapsed >= s.OfferAfter {
		s.bind(s.Offer.Unmap(), "dhcp")
		return
	}
	if s.cfg.Mode == ModeAutoIP && s.elapsed >= s.cfg.DHCPTimeout {
		s.bind(LinkLocalAddr(s.mac, 0), "autoip")
	}
}

// BoundAddress returns the current address (invalid if unbound).
func (s *SimStack) BoundAddress() netip.Addr {
	return s.bound.Load()
}

// Elapsed returns the simulated time since initialization.
func (s *SimStack) Elapsed() time.Duration {
	return s.elapsed
}

func (s *SimStack) hasServer() bool {
	return s.OfferAfter > 0 && s.Offer.Unmap().Is4()
}

func (s *SimStack) bind(addr netip.Addr, how string) {
	s.bound.Store(addr)
	s.log.Info("address assigned",
		slog.String("ip", addr.String()),
		slog.String("by", how),
		slog.Duration("after", s.elapsed))
}
