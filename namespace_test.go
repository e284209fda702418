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
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build a test namespace
func newNamespace() (ns *Namespace, err error) {
	ns = NewNamespace("sys", "sys", 0777)
	if err = ns.NewFile("/readme", 0444, NewTextFile("Just a test...\n")); err != nil {
		return
	}
	if err = ns.NewDir("/sensors", 0777); err != nil {
		return
	}
	err = ns.NewFile("/sensors/temp", 0444, NewFuncFile(
		func() ([]byte, error) {
			s := fmt.Sprintf("%f\n", rand.Float32())
			return []byte(s), nil
		},
	))
	return
}

func TestNamespaceNew(t *testing.T) {
	ns, err := newNamespace()
	require.NoError(t, err)

	e, err := ns.Get("/readme")
	require.NoError(t, err)
	assert.False(t, e.IsDir())
	data, err := e.Content()
	require.NoError(t, err)
	assert.Equal(t, "Just a test...\n", string(data))

	assert.ErrorIs(t, e.file.Write([]byte("x")), errReadOnly)

	e, err = ns.Get("/sensors")
	require.NoError(t, err)
	assert.True(t, e.IsDir())

	e, err = ns.Get("/sensors/temp")
	require.NoError(t, err)
	assert.Equal(t, "temp", e.Name())
}

func TestNamespaceErrors(t *testing.T) {
	ns, err := newNamespace()
	require.NoError(t, err)

	_, err = ns.Get("readme")
	assert.ErrorIs(t, err, errNoAbs)
	_, err = ns.Get("/missing")
	assert.ErrorIs(t, err, errNoFile)
	_, err = ns.Get("/readme/more")
	assert.ErrorIs(t, err, errNoDir)

	assert.ErrorIs(t, ns.NewDir("/sensors", 0777), errExists)
	assert.ErrorIs(t, ns.NewFile("/readme/x", 0444, NewTextFile("")), errNoDir)
	assert.ErrorIs(t, ns.NewFile("/none/x", 0444, NewTextFile("")), errNoFile)
}

func TestNamespaceWalk(t *testing.T) {
	ns, err := newNamespace()
	require.NoError(t, err)

	root := ns.Root()
	q := ns.Walk(&root.dir.Qid, "sensors")
	require.NotNil(t, q)
	q = ns.Walk(q, "temp")
	require.NotNil(t, q)
	assert.Nil(t, ns.Walk(q, "deeper"))
	assert.Nil(t, ns.Walk(&root.dir.Qid, "missing"))
}

// exchange a Tversion/Rversion pair on a 9p connection
func versionHandshake(t *testing.T, c net.Conn) {
	t.Helper()
	const version = "9P2000"
	msg := make([]byte, 7+4+2+len(version))
	binary.LittleEndian.PutUint32(msg, uint32(len(msg)))
	msg[4] = 100 // Tversion
	binary.LittleEndian.PutUint16(msg[5:], 0xffff)
	binary.LittleEndian.PutUint32(msg[7:], 8192)
	binary.LittleEndian.PutUint16(msg[11:], uint16(len(version)))
	copy(msg[13:], version)
	_, err := c.Write(msg)
	require.NoError(t, err)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var hdr [7]byte
	_, err = io.ReadFull(c, hdr[:])
	require.NoError(t, err)
	assert.Equal(t, byte(101), hdr[4]) // Rversion
	body := make([]byte, binary.LittleEndian.Uint32(hdr[:])-7)
	_, err = io.ReadFull(c, body)
	require.NoError(t, err)
	assert.Equal(t, version, string(body[6:]))
}

func TestNamespaceServeListener(t *testing.T) {
	ns, err := newNamespace()
	require.NoError(t, err)

	lst, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- ns.ServeListener(lst) }()

	// clients hanging up (after a request, mid-message and right away)
	c, err := net.Dial("tcp", lst.Addr().String())
	require.NoError(t, err)
	versionHandshake(t, c)
	c.Close()

	c, err = net.Dial("tcp", lst.Addr().String())
	require.NoError(t, err)
	_, err = c.Write([]byte{0x20, 0, 0})
	require.NoError(t, err)
	c.Close()

	c, err = net.Dial("tcp", lst.Addr().String())
	require.NoError(t, err)
	c.Close()
	time.Sleep(100 * time.Millisecond)

	// the server keeps serving
	c, err = net.Dial("tcp", lst.Addr().String())
	require.NoError(t, err)
	versionHandshake(t, c)
	c.Close()

	require.NoError(t, lst.Close())
	assert.ErrorIs(t, <-done, net.ErrClosed)
}
