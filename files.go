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

import "errors"

var errReadOnly = errors.New("read-only file")

// File interface for file handler implementations:
// The interface methods are called by the 9p protocol handler on demand.
type File interface {
	Read() ([]byte, error)
	Write([]byte) error
}

// ReadOnly rejects all writes; embed it in status files.
type ReadOnly struct{}

// Write is refused
func (ReadOnly) Write([]byte) error {
	return errReadOnly
}

// TextFile with (small) static text content.
type TextFile struct {
	ReadOnly
	body []byte
}

// NewTextFile with given text content.
func NewTextFile(content string) *TextFile {
	return &TextFile{body: []byte(content)}
}

// Read returns the text.
func (f *TextFile) Read() ([]byte, error) {
	return f.body, nil
}

// FuncFile content is computed on every read.
type FuncFile struct {
	ReadOnly
	fcn func() ([]byte, error)
}

// NewFuncFile with specified function.
func NewFuncFile(fcn func() ([]byte, error)) *FuncFile {
	return &FuncFile{fcn: fcn}
}

// NewLineFile returns a single line (newline appended) on every read.
func NewLineFile(fcn func() string) *FuncFile {
	return NewFuncFile(func() ([]byte, error) {
		return []byte(fcn() + "\n"), nil
	})
}

// Read calls the content function.
func (f *FuncFile) Read() ([]byte, error) {
	return f.fcn()
}
