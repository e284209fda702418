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
	"fmt"
	"log/slog"
	"time"
)

// Node ties identity, network stack, tick source, supervisor and
// animator together. All core state is owned by the goroutine calling Run.
type Node struct {
	cfg    Config
	mac    HardwareAddr
	stack  NetworkStack
	ticker *Ticker
	anim   *Animator
	sup    *Supervisor
	log    *slog.Logger
	steps  chan struct{}
	ticks  int // steps seen by the idle loop
}

// Bringup validates the configuration, acquires the hardware identity and
// initializes the network stack. An unprovisioned identity is shown on
// the display before the (fatal) error is returned, as is a failing
// network stack.
func Bringup(cfg Config, store UserStore, stack NetworkStack, disp Display, logger *slog.Logger) (*Node, error) {
	logger = orDiscard(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc, _ := cfg.StackConfig()

	mac, err := AcquireIdentity(store)
	if err != nil {
		if IsFatal(err) {
			disp.Repaint(Element{Kind: ElemText, Text: "no hardware address"})
		}
		logger.Error("identity", slog.String("err", err.Error()))
		return nil, err
	}
	logger.Info("identity", slog.String("mac", mac.String()))

	if err = stack.Initialize(mac, sc); err != nil {
		disp.Repaint(Element{Kind: ElemText, Text: "no network"})
		logger.Error("network stack", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrStack, err)
	}
	logger.Info("network stack initialized",
		slog.String("mode", sc.Mode.String()),
		slog.String("static", sc.Static.String()),
		slog.String("netmask", sc.Netmask.String()),
		slog.String("gateway", sc.Gateway.String()))

	n := &Node{
		cfg:    cfg,
		mac:    mac,
		stack:  stack,
		ticker: NewTicker(cfg.TickHz, cfg.TickPriority),
		anim:   NewAnimator(disp, nil),
		log:    logger,
		steps:  make(chan struct{}, 1),
	}
	n.sup = NewSupervisor(stack, n.anim, logger)
	return n, nil
}

// Run arms the tick source and runs the idle loop until the context is
// done. The tick callback only services the stack timers and signals the
// idle loop; signals not yet consumed are coalesced.
func (n *Node) Run(ctx context.Context) error {
	ms := n.ticker.ElapsedMs()
	err := n.ticker.Start(ctx, func() {
		n.stack.ServiceTimers(ms)
		select {
		case n.steps <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	n.log.Info("tick source armed",
		slog.Int("hz", n.cfg.TickHz),
		slog.String("priority", n.ticker.Priority().String()),
		slog.Duration("step", n.ticker.Period()*time.Duration(n.cfg.StepTicks)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-n.steps:
			n.step()
		}
	}
}

// step evaluates the supervisor on every StepTicks-th tick.
func (n *Node) step() {
	if n.ticks++; n.ticks%n.cfg.StepTicks == 0 {
		n.sup.Evaluate()
	}
}

// MAC returns the hardware identity.
func (n *Node) MAC() HardwareAddr {
	return n.mac
}

// Mode returns the configured acquisition mode.
func (n *Node) Mode() AcquisitionMode {
	return n.cfg.Mode
}

// Supervisor returns the address supervisor (for observers).
func (n *Node) Supervisor() *Supervisor {
	return n.sup
}
