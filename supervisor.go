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
)

// State of address acquisition
type State int

// supervisory states
const (
	Unbound State = iota // no address yet
	Bound                // address assigned (terminal)
)

// String returns a human-readable state.
func (s State) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// AddressSource reports the currently bound address (invalid if none).
type AddressSource interface {
	BoundAddress() netip.Addr
}

// Indicator shows acquisition progress.
type Indicator interface {
	// Advance the progress display by one step.
	Advance()
	// Finalize the display with the bound address.
	Finalize(addr netip.Addr)
}

// Supervisor tracks the acquisition of an address. Evaluate must only be
// called from the idle loop; the accessors can be used by any goroutine.
type Supervisor struct {
	src   AddressSource
	ind   Indicator
	log   *slog.Logger
	addr  addrCell     // latched address; valid means Bound
	evals atomic.Int64 // number of evaluations
	lost  bool         // warned about a withdrawn address
}

// NewSupervisor creates a supervisor in state Unbound.
func NewSupervisor(src AddressSource, ind Indicator, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		src: src,
		ind: ind,
		log: orDiscard(logger),
	}
}

// Evaluate polls the address source once. While unbound the indicator is
// advanced by one step; the first address seen is latched and finalizes
// the indicator.
func (s *Supervisor) Evaluate() State {
	n := s.evals.Add(1)
	cur := s.src.BoundAddress().Unmap()
	if latched := s.addr.Load(); latched.IsValid() {
		if !cur.IsValid() && !s.lost {
			// TODO: restart acquisition once lease expiry is reported by the stack
			s.lost = true
			s.log.Warn("stack withdrew bound address; keeping it",
				slog.String("ip", latched.String()))
		}
		return Bound
	}
	if !cur.Is4() {
		s.ind.Advance()
		return Unbound
	}
	s.addr.Store(cur)
	s.log.Info("address bound",
		slog.String("ip", cur.String()),
		slog.Int64("evaluations", n))
	s.ind.Finalize(cur)
	return Bound
}

// State is derived from the latched address.
func (s *Supervisor) State() State {
	if s.addr.Load().IsValid() {
		return Bound
	}
	return Unbound
}

// Address returns the latched address.
func (s *Supervisor) Address() (netip.Addr, bool) {
	a := s.addr.Load()
	return a, a.IsValid()
}

// Evaluations returns the number of Evaluate calls so far.
func (s *Supervisor) Evaluations() int64 {
	return s.evals.Load()
}
