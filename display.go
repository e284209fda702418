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
	"fmt"
	"log/slog"
)

// Point on the display (relative to the center of the status area)
type Point struct {
	X, Y int32
}

// Color as 0xRRGGBB
type Color uint32

// Hex returns the color in "#rrggbb" notation.
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// Brightness is the mean of the three color channels (0..255).
func (c Color) Brightness() uint8 {
	r, g, b := (c>>16)&0xff, (c>>8)&0xff, c&0xff
	return uint8((r + g + b) / 3)
}

// ElementKind of a display element
type ElementKind int

// element kinds
const (
	ElemDot  ElementKind = iota // single dot of the animation
	ElemText                    // text replacing the animation
)

// Element is a single repaint request.
type Element struct {
	Kind  ElementKind
	Pos   Point  // ElemDot only
	Color Color  // ElemDot only
	Text  string // ElemText only
}

// Display composites repaint requests. The core never draws itself.
type Display interface {
	Repaint(e Element)
}

//----------------------------------------------------------------------

// LEDDisplay uses the device LED as a (very) low resolution display:
// dots switch the LED depending on their brightness, text switches
// it on permanently and is logged.
type LEDDisplay struct {
	dev Device
	log *slog.Logger
}

// NewLEDDisplay for given device
func NewLEDDisplay(dev Device, logger *slog.Logger) *LEDDisplay {
	return &LEDDisplay{
		dev: dev,
		log: orDiscard(logger),
	}
}

// Repaint an element
func (d *LEDDisplay) Repaint(e Element) {
	switch e.Kind {
	case ElemDot:
		d.dev.LED(e.Color.Brightness() >= 0x80)
	case ElemText:
		d.dev.LED(true)
		d.log.Info("display", slog.String("text", e.Text))
	}
}
