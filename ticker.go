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
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Error messages
var (
	ErrArmed    = errors.New("tick source already armed")
	ErrTickRate = errors.New("tick rate out of range")
)

// Priority of an interrupt source. Only the top 3 bits are significant;
// lower values mean higher priority.
type Priority uint8

// Level returns the significant part of the priority.
func (p Priority) Level() uint8 {
	return uint8(p) >> 5
}

// String returns the priority in hex notation.
func (p Priority) String() string {
	return fmt.Sprintf("0x%02x", uint8(p))
}

// Preempts returns true if p has a strictly higher priority than q.
func (p Priority) Preempts(q Priority) bool {
	return p.Level() < q.Level()
}

// TickState of a periodic tick source
type TickState int32

// tick source states
const (
	Disarmed TickState = iota // initial state
	Armed                     // firing periodically
)

// String returns a human-readable tick state.
func (s TickState) String() string {
	if s == Armed {
		return "armed"
	}
	return "disarmed"
}

// Ticker is a periodic tick source. Once armed it calls a single callback
// once per period for the lifetime of the process. Ticks the callback can't
// keep up with are dropped.
type Ticker struct {
	hz    int
	prio  Priority
	state atomic.Int32
}

// NewTicker creates a disarmed tick source with given rate and priority.
func NewTicker(hz int, prio Priority) *Ticker {
	return &Ticker{
		hz:   hz,
		prio: prio,
	}
}

// State returns the current state of the tick source.
func (t *Ticker) State() TickState {
	return TickState(t.state.Load())
}

// Priority of the tick source
func (t *Ticker) Priority() Priority {
	return t.prio
}

// Period between two ticks
func (t *Ticker) Period() time.Duration {
	return time.Second / time.Duration(t.hz)
}

// ElapsedMs is the number of milliseconds reported per tick.
func (t *Ticker) ElapsedMs() uint32 {
	return uint32(1000 / t.hz)
}

// Start arms the tick source: fn is called once per period from a
// dedicated goroutine. The context only releases the goroutine (used in
// tests); the ticker itself stays armed.
func (t *Ticker) Start(ctx context.Context, fn func()) error {
	if t.hz <= 0 || t.hz > 1000 {
		return ErrTickRate
	}
	if !t.state.CompareAndSwap(int32(Disarmed), int32(Armed)) {
		return ErrArmed
	}
	// time.Ticker drops ticks for slow receivers
	tick := time.NewTicker(t.Period())
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				fn()
			}
		}
	}()
	return nil
}
