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
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
)

// NIC is a network interface exchanging raw ethernet frames.
type NIC interface {
	// RecvEthHandle registers the handler for incoming frames
	// (called from within PollOne).
	RecvEthHandle(handler func(pkt []byte) error)
	// PollOne receives at most one frame.
	PollOne() (bool, error)
	// SendEth sends a frame.
	SendEth(pkt []byte) error
}

// SeqsConfig sizes the seqs port stack.
type SeqsConfig struct {
	MTU      uint16 // maximum frame size
	UDPPorts uint16 // open UDP ports (plus one for DHCP)
	TCPPorts uint16 // open TCP ports
}

// ARP probing of link-local candidates (RFC 3927 uses several probes;
// a single resolve window is enough for a small segment)
const probeWindow = time.Second

// acquisition phases of the seqs stack
const (
	phaseDHCP  = iota // waiting for a lease
	phaseProbe        // probing a link-local candidate
	phaseDone         // address assigned
)

// SeqsStack is a NetworkStack based on the seqs userspace TCP/IP stack.
// Frames are exchanged with the NIC in a background loop; DHCP timeout
// and link-local fallback are driven by ServiceTimers.
type SeqsStack struct {
	nic  NIC
	conf SeqsConfig
	log  *slog.Logger

	mu        sync.Mutex // protects the seqs stack and the fields below
	stack     *stacks.PortStack
	dhcp      *stacks.DHCPClient
	cfg       StackConfig
	mac       HardwareAddr
	phase     int
	elapsed   time.Duration
	attempt   int
	candidate netip.Addr
	probeEnd  time.Duration

	bound addrCell
	done  chan struct{} // closed to stop the NIC loop
}

// NewSeqsStack creates a stack on top of the given NIC.
func NewSeqsStack(nic NIC, conf SeqsConfig, logger *slog.Logger) *SeqsStack {
	return &SeqsStack{
		nic:  nic,
		conf: conf,
		log:  orDiscard(logger),
	}
}

// Initialize the stack with the device identity and start the NIC loop.
// On error the stack is left uninitialized.
func (s *SeqsStack) Initialize(mac HardwareAddr, cfg StackConfig) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stack != nil {
		return ErrStackInit
	}
	if cfg.Mode == ModeStatic && !cfg.Static.Unmap().Is4() {
		return ErrStaticAddr
	}
	if cfg.Mode < ModeStatic || cfg.Mode > ModeAutoIP {
		return ErrMode
	}
	s.mac, s.cfg = mac, cfg
	s.stack = stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: int(s.conf.UDPPorts) + 1, // extra port for DHCP client
		MaxOpenPortsTCP: int(s.conf.TCPPorts),
		MTU:             s.conf.MTU,
		Logger:          s.log,
	})

	switch cfg.Mode {
	case ModeStatic:
		s.assign(cfg.Static, "static")
	default:
		s.dhcp = stacks.NewDHCPClient(s.stack, dhcp.DefaultClientPort)
		err = s.dhcp.BeginRequest(stacks.DHCPRequestConfig{
			RequestedAddr: cfg.Static,
			Xid:           uint32(time.Now().UnixNano()) | 1,
			Hostname:      cfg.Hostname,
		})
		if err != nil {
			s.log.Error("DHCP request failed", slog.String("err", err.Error()))
			if cfg.Mode == ModeDHCP {
				s.stack, s.dhcp = nil, nil
				return err
			}
			// no DHCP at all: go for a link-local address right away
			s.dhcp = nil
			s.beginProbe()
		}
	}

	// begin asynchronous packet handling
	s.nic.RecvEthHandle(s.stack.RecvEth)
	s.done = make(chan struct{})
	go s.nicLoop(s.done)
	return nil
}

// Close stops the NIC loop. The stack can't be used afterwards.
func (s *SeqsStack) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	return nil
}

// ServiceTimers advances the acquisition state machine.
func (s *SeqsStack) ServiceTimers(elapsedMs uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stack == nil || s.phase == phaseDone {
		return
	}
	s.elapsed += time.Duration(elapsedMs) * time.Millisecond

	// a lease always wins (even while probing)
	if s.dhcp != nil && s.dhcp.State() == dhcp.StateBound {
		ip := s.dhcp.Offer()
		s.log.Info("DHCP complete",
			slog.Uint64("cidrbits", uint64(s.dhcp.CIDRBits())),
			slog.String("gateway", s.dhcp.Gateway().String()),
			slog.Duration("lease", s.dhcp.IPLeaseTime()))
		s.assign(ip, "dhcp")
		return
	}
	switch s.phase {
	case phaseDHCP:
		if s.cfg.Mode != ModeAutoIP || s.elapsed < s.cfg.DHCPTimeout {
			return
		}
		s.log.Info("DHCP did not complete, trying link-local address")
		s.beginProbe()

	case phaseProbe:
		arpc := s.stack.ARP()
		if arpc.IsDone() {
			if _, hw, err := arpc.ResultAs6(); err == nil {
				s.log.Info("link-local address in use",
					slog.String("ip", s.candidate.String()),
					slog.String("by", net.HardwareAddr(hw[:]).String()))
				s.attempt++
				s.beginProbe()
				return
			}
		}
		if s.elapsed >= s.probeEnd {
			arpc.Abort()
			s.assign(s.candidate, "autoip")
		}
	}
}

// BoundAddress returns the assigned address (invalid if none).
func (s *SeqsStack) BoundAddress() netip.Addr {
	return s.bound.Load()
}

// Listen returns a TCP listener on the given port.
func (s *SeqsStack) Listen(port uint16) (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stack == nil || !s.bound.Load().IsValid() {
		return nil, ErrNoNetwork
	}
	listener, err := stacks.NewTCPListener(s.stack, stacks.TCPListenerConfig{
		MaxConnections: 3,
		ConnTxBufSize:  512,
		ConnRxBufSize:  512,
	})
	if err != nil {
		return nil, err
	}
	if err = listener.StartListening(port); err != nil {
		return nil, err
	}
	return listener, nil
}

// start probing the next link-local candidate
func (s *SeqsStack) beginProbe() {
	s.phase = phaseProbe
	s.candidate = LinkLocalAddr(s.mac, s.attempt)
	s.probeEnd = s.elapsed + probeWindow
	arpc := s.stack.ARP()
	arpc.Abort() // remove any previous ARP requests
	if err := arpc.BeginResolve(s.candidate); err != nil {
		// can't probe: claim the candidate when the window closes
		s.log.Warn("ARP probe failed",
			slog.String("ip", s.candidate.String()),
			slog.String("err", err.Error()))
	}
}

// assign the address to the stack and publish it
func (s *SeqsStack) assign(ip netip.Addr, how string) {
	s.stack.SetAddr(ip) // set the IP address after acquisition completes
	s.phase = phaseDone
	s.bound.Store(ip)
	s.log.Info("address assigned",
		slog.String("ip", ip.String()),
		slog.String("by", how),
		slog.Duration("after", s.elapsed))
}

// nicLoop exchanges frames between NIC and stack until done is closed.
func (s *SeqsStack) nicLoop(done <-chan struct{}) {
	// Maximum number of packets to queue before sending them.
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	mtu := s.conf.MTU
	queue := make([][]byte, queueSize)
	for i := range queue {
		queue[i] = make([]byte, mtu)
	}
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		select {
		case <-done:
			return
		default:
		}
		s.mu.Lock()
		// Poll for incoming packets.
		gotPacket, err := s.nic.PollOne()
		if err != nil {
			s.log.Debug("poll error", slog.String("err", err.Error()))
		}
		stallRx := !gotPacket

		// Queue packets to be sent.
		for i := range queue {
			if retries[i] != 0 {
				continue // Packet currently queued for retransmission.
			}
			lenBuf[i], err = s.stack.HandleEth(queue[i])
			if err != nil {
				s.log.Debug("stack error", slog.String("err", err.Error()))
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		s.mu.Unlock()

		stallTx := lenBuf == [queueSize]int{}
		if stallTx {
			if stallRx {
				// Avoid busy waiting when both Rx and Tx stall.
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		// Send queued packets.
		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			if err := s.nic.SendEth(queue[i][:n]); err != nil {
				// Queue packet for retransmission.
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
					s.log.Warn("dropped outgoing packet", slog.String("err", err.Error()))
				}
			} else {
				markSent(i)
			}
		}
	}
}
