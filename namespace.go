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
	"net"
	"path"
	"runtime"
	"strings"

	"git.sr.ht/~moody/ninep"
)

// Error messages
var (
	errNoRoot = errors.New("no root directory")
	errNoFile = errors.New("no such file or directory")
	errNoDir  = errors.New("not a directory")
	errNoAbs  = errors.New("no absolute path")
	errExists = errors.New("file exists")
)

// Entry in the status filesystem. Directories keep their children in
// creation order so listings are stable.
type Entry struct {
	dir  ninep.Dir // 9p stat record (Qid.Path is the index in the namespace)
	kids []*Entry  // children (directories only)
	file File      // content (files only)
}

// IsDir returns true if entry is a directory
func (e *Entry) IsDir() bool {
	return e.file == nil
}

// Name of the entry
func (e *Entry) Name() string {
	return e.dir.Name
}

// Content of a file entry
func (e *Entry) Content() ([]byte, error) {
	if e.IsDir() {
		return nil, errNoFile
	}
	return e.file.Read()
}

func (e *Entry) child(name string) *Entry {
	for _, k := range e.kids {
		if k.dir.Name == name {
			return k
		}
	}
	return nil
}

//----------------------------------------------------------------------

// Namespace is a synthetic, append-only file system served via 9p.
// It must be complete before it is served.
type Namespace struct {
	ninep.NopFS          // use default handlers where needed
	entries     []*Entry // indexed by Qid.Path; root is entry 0
	user, group string   // owner of all entries
}

// NewNamespace creates a new filesystem (with root directory) for the given
// user/group with the specified permissions.
func NewNamespace(user, group string, perm uint32) *Namespace {
	ns := &Namespace{user: user, group: group}
	ns.newEntry("/", perm, nil)
	return ns
}

// newEntry appends an entry; a nil impl makes it a directory.
func (ns *Namespace) newEntry(name string, perm uint32, impl File) *Entry {
	kind := ninep.QTFile
	if impl == nil {
		kind = ninep.QTDir
		perm |= ninep.DMDir
	}
	e := &Entry{file: impl}
	e.dir = ninep.Dir{
		Qid: ninep.Qid{
			Path: uint64(len(ns.entries)),
			Type: byte(kind),
		},
		Name: name,
		Mode: perm,
		Uid:  ns.user,
		Gid:  ns.group,
		Muid: ns.user,
	}
	ns.entries = append(ns.entries, e)
	return e
}

// lookup entry by Qid
func (ns *Namespace) lookup(q *ninep.Qid) (*Entry, bool) {
	if q == nil || q.Path >= uint64(len(ns.entries)) {
		return nil, false
	}
	return ns.entries[q.Path], true
}

// Root returns the entry of the root directory
func (ns *Namespace) Root() *Entry {
	return ns.entries[0]
}

// Get entry with given absolute path
func (ns *Namespace) Get(fpath string) (*Entry, error) {
	if !strings.HasPrefix(fpath, "/") {
		return nil, errNoAbs
	}
	curr := ns.Root()
	for _, label := range strings.Split(fpath[1:], "/") {
		if len(label) == 0 {
			continue
		}
		if !curr.IsDir() {
			return nil, errNoDir
		}
		if curr = curr.child(label); curr == nil {
			return nil, errNoFile
		}
	}
	return curr, nil
}

// NewFile creates a file at the given (absolute) path.
func (ns *Namespace) NewFile(fpath string, perm uint32, impl File) error {
	return ns.add(fpath, perm, impl)
}

// NewDir creates a directory at the given (absolute) path.
func (ns *Namespace) NewDir(fpath string, perm uint32) error {
	return ns.add(fpath, perm, nil)
}

func (ns *Namespace) add(fpath string, perm uint32, impl File) error {
	dir, name := path.Split(path.Clean(fpath))
	if len(name) == 0 {
		return errExists
	}
	parent, err := ns.Get(dir)
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return errNoDir
	}
	if parent.child(name) != nil {
		return errExists
	}
	parent.kids = append(parent.kids, ns.newEntry(name, perm, impl))
	return nil
}

// ServeListener serves the 9p protocol on all connections accepted by
// the listener. It returns on the first accept error.
func (ns *Namespace) ServeListener(lst net.Listener) error {
	for {
		c, err := lst.Accept()
		if err != nil {
			return err
		}
		srv := ninep.NewSrv(func() ninep.FS { return ns })
		sc := &serverConn{Conn: c}
		go srv.ServeIO(sc, sc)
	}
}

// serverConn ends a 9p session when the peer goes away. The server
// aborts the process on any I/O error, so a failed read terminates the
// reading goroutine instead of returning the error; failed writes are
// discarded (the next read fails).
type serverConn struct {
	net.Conn
}

func (c *serverConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.Conn.Close()
		runtime.Goexit()
	}
	return n, nil
}

func (c *serverConn) Write(p []byte) (int, error) {
	if _, err := c.Conn.Write(p); err != nil {
		c.Conn.Close()
	}
	return len(p), nil
}

// ninep FS implementation

// Attach to 9p session
func (ns *Namespace) Attach(t *ninep.Tattach) {
	if len(ns.entries) == 0 {
		t.Err(errNoRoot)
		return
	}
	t.Respond(&ns.Root().dir.Qid)
}

// Walk to child entry with name "next".
func (ns *Namespace) Walk(cur *ninep.Qid, next string) *ninep.Qid {
	if e, ok := ns.lookup(cur); ok && e.IsDir() {
		if k := e.child(next); k != nil {
			return &k.dir.Qid
		}
	}
	return nil
}

// Open entry for file operation
func (ns *Namespace) Open(t *ninep.Topen, q *ninep.Qid) {
	t.Respond(q, 8192)
}

// Read a file or list a directory.
func (ns *Namespace) Read(t *ninep.Tread, q *ninep.Qid) {
	e, ok := ns.lookup(q)
	if !ok {
		t.Err(errNoFile)
		return
	}
	if e.IsDir() {
		kids := make([]ninep.Dir, len(e.kids))
		for i, k := range e.kids {
			kids[i] = k.dir
		}
		ninep.ReadDir(t, kids)
		return
	}
	data, err := e.file.Read()
	if err != nil {
		t.Err(err)
		return
	}
	ninep.ReadBuf(t, data)
}

// Stat returns information for a filesytem entry.
func (ns *Namespace) Stat(t *ninep.Tstat, q *ninep.Qid) {
	if e, ok := ns.lookup(q); ok {
		t.Respond(&e.dir)
		return
	}
	t.Err(errNoFile)
}
