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
	"net/netip"
)

// Frame of the waiting animation: a dot at a position (relative to
// the center of the animation) in a given color.
type Frame struct {
	Pos   Point
	Color Color
}

// DefaultFrames is a ring of eight dots getting brighter clockwise.
var DefaultFrames = []Frame{
	{Point{12, 0}, 0x111111},
	{Point{8, -9}, 0x333333},
	{Point{0, -12}, 0x555555},
	{Point{-8, -9}, 0x777777},
	{Point{-12, 0}, 0x999999},
	{Point{-8, 9}, 0xbbbbbb},
	{Point{0, 12}, 0xdddddd},
	{Point{8, 9}, 0xffffff},
}

// Animator shows a cyclic animation while no address is bound and the
// address once it is. It is not safe for concurrent use.
type Animator struct {
	disp   Display
	frames []Frame
	ticks  uint64 // number of advances
	idx    int    // current frame
	frozen bool
}

// NewAnimator creates an animator drawing on the display. If no frames
// are given, DefaultFrames is used.
func NewAnimator(disp Display, frames []Frame) *Animator {
	if len(frames) == 0 {
		frames = DefaultFrames
	}
	return &Animator{
		disp:   disp,
		frames: frames,
	}
}

// Advance to the next frame and repaint its dot. No-op once finalized.
func (a *Animator) Advance() {
	if a.frozen {
		return
	}
	a.ticks++
	a.idx = int(a.ticks % uint64(len(a.frames)))
	f := a.frames[a.idx]
	a.disp.Repaint(Element{
		Kind:  ElemDot,
		Pos:   f.Pos,
		Color: f.Color,
	})
}

// Finalize stops the animation and replaces it with the address.
// Only the first call has an effect.
func (a *Animator) Finalize(addr netip.Addr) {
	if a.frozen {
		return
	}
	a.frozen = true
	a.disp.Repaint(Element{
		Kind: ElemText,
		Text: "IP: " + addr.String(),
	})
}

// Index of the current frame
func (a *Animator) Index() int {
	return a.idx
}

// Ticks returns the number of advances.
func (a *Animator) Ticks() uint64 {
	return a.ticks
}

// Frozen returns true after Finalize.
func (a *Animator) Frozen() bool {
	return a.frozen
}
