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
	"strconv"
)

const statusReadme = `Network status of this device:
  /net/state   acquisition state (unbound, bound)
  /net/addr    bound IPv4 address (empty while unbound)
  /net/mac     hardware address
  /net/mode    acquisition mode (static, dhcp, autoip)
  /net/evals   number of supervisory steps
`

// NewStatusFS builds the status file tree of a node.
func NewStatusFS(node *Node) (ns *Namespace, err error) {
	sup := node.Supervisor()
	ns = NewNamespace("sys", "sys", 0555)
	if err = ns.NewFile("/readme", 0444, NewTextFile(statusReadme)); err != nil {
		return
	}
	if err = ns.NewDir("/net", 0555); err != nil {
		return
	}
	files := []struct {
		name string
		fcn  func() string
	}{
		{"state", func() string { return sup.State().String() }},
		{"addr", func() string {
			if a, ok := sup.Address(); ok {
				return a.String()
			}
			return ""
		}},
		{"mac", node.MAC().String},
		{"mode", node.Mode().String},
		{"evals", func() string { return strconv.FormatInt(sup.Evaluations(), 10) }},
	}
	for _, f := range files {
		if err = ns.NewFile("/net/"+f.name, 0444, NewLineFile(f.fcn)); err != nil {
			return
		}
	}
	return
}
