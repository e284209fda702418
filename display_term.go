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
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TermDisplay renders the status area as a single terminal line: the dots
// of the animation (in the order they first appeared) or the final text.
type TermDisplay struct {
	out    io.Writer
	pos    []Point         // dot positions
	colors map[Point]Color // current dot colors
	text   bool            // text shown
}

// NewTermDisplay writing to out
func NewTermDisplay(out io.Writer) *TermDisplay {
	return &TermDisplay{
		out:    out,
		colors: make(map[Point]Color),
	}
}

var textStyle = lipgloss.NewStyle().Bold(true)

// Repaint an element
func (d *TermDisplay) Repaint(e Element) {
	switch e.Kind {
	case ElemDot:
		if d.text {
			return
		}
		if _, ok := d.colors[e.Pos]; !ok {
			d.pos = append(d.pos, e.Pos)
		}
		d.colors[e.Pos] = e.Color
		io.WriteString(d.out, "\r"+d.Line())
	case ElemText:
		d.text = true
		io.WriteString(d.out, "\r"+textStyle.Render(e.Text)+"\n")
	}
}

// Line returns the rendered dots.
func (d *TermDisplay) Line() string {
	var sb strings.Builder
	for _, p := range d.pos {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(d.colors[p].Hex()))
		sb.WriteString(dot.Render("●"))
	}
	return sb.String()
}
