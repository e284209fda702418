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
	"sync/atomic"
	"time"
)

// status codes (number of blinks)
const (
	StatUNK    = iota // unknown status (init)
	StatOK            // processing active
	StatDEV           // device failure
	StatPROV          // hardware address not programmed
	StatCONF          // invalid configuration
	StatSTACK         // network stack failed
	StatWIFI          // can't connect to AP
	StatWPA2          // WPA2 failed
	StatLISTEN        // failed to create listener
	StatSRV           // can't serve status files
	StatEXCP          // exception (panic) occured
)

// StatusOf maps a bring-up error to a status code.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return StatOK
	case errors.Is(err, ErrUnprovisioned):
		return StatPROV
	case errors.Is(err, ErrIdentityRead):
		return StatDEV
	case errors.Is(err, ErrConfig):
		return StatCONF
	case errors.Is(err, ErrStack):
		return StatSTACK
	}
	// never halt without a visible code
	return StatDEV
}

// pulse of the status LED
type pulse struct {
	on, off time.Duration
}

// blinkPattern encodes a status code: a long pulse for every five, then a
// short pulse for each remaining unit.
func blinkPattern(code int) (p []pulse) {
	for ; code > 5; code -= 5 {
		p = append(p, pulse{time.Second, 300 * time.Millisecond})
	}
	for range code {
		p = append(p, pulse{150 * time.Millisecond, 150 * time.Millisecond})
	}
	return
}

// Status handler.
// Blinks the current status code on the device LED every five seconds
// unless the status is StatOK (the LED then belongs to the display).
type Status struct {
	dev    Device       // reference to device
	curr   atomic.Int32 // current state
	repeat atomic.Int32 // remaining repetitions (<= 0: forever)
}

// NewStatus creates a new status display
func NewStatus(dev Device) *Status {
	state := &Status{dev: dev}
	state.curr.Store(StatOK)
	go state.run()
	return state
}

func (state *Status) run() {
	for {
		time.Sleep(5 * time.Second)
		code := int(state.curr.Load())
		if code == StatOK {
			continue
		}
		for _, p := range blinkPattern(code) {
			state.dev.LED(true)
			time.Sleep(p.on)
			state.dev.LED(false)
			time.Sleep(p.off)
		}
		if state.repeat.Add(-1) == 0 {
			state.curr.Store(StatOK)
		}
	}
}

// Set status and repeat <num> times (0: until changed).
func (state *Status) Set(flag, num int) {
	if state != nil {
		state.curr.Store(int32(flag))
		state.repeat.Store(int32(num))
	}
}

// Get current state and repeat counter
func (state *Status) Get() (int, int) {
	return int(state.curr.Load()), int(state.repeat.Load())
}

// Halt shows the status code forever and never returns.
func (state *Status) Halt(flag int) {
	state.Set(flag, 0)
	select {}
}

// Trap critical failures (panic); to be deferred in main.
func (state *Status) Trap(t time.Duration) {
	s, _ := state.Get()
	if r := recover(); r != nil {
		fmt.Printf("EXCP: %v\n", r)
		if s == StatOK {
			state.Set(StatEXCP, 0)
		}
	} else if s == StatOK {
		state.Set(StatUNK, 0)
	}
	time.Sleep(t)
}
