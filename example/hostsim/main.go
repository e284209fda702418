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

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"os/signal"
	"time"

	"github.com/bfix/netup"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath    string
		mode       string
		offer      string
		offerAfter time.Duration
		port       uint16
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "hostsim",
		Short: "Run the address acquisition core against a simulated network",
		Long: `hostsim brings up the acquisition core on the host: the hardware
identity comes from the configuration, a simulated DHCP server offers
an address after a delay (or never), and the status animation is shown
in the terminal. Status files can be served via 9p.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc := netup.DefaultFileConfig()
			if len(cfgPath) > 0 {
				var err error
				if fc, err = netup.LoadConfig(cfgPath); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("mode") {
				if err := fc.Mode.UnmarshalText([]byte(mode)); err != nil {
					return err
				}
			}
			if flags.Changed("offer") {
				fc.DHCP.Offer = offer
			}
			if flags.Changed("offer-after") {
				fc.DHCP.OfferAfter = offerAfter
			}
			if flags.Changed("port") {
				fc.Port = port
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return run(cmd.Context(), fc, logger)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&mode, "mode", "", "acquisition mode (static, dhcp, autoip)")
	f.StringVar(&offer, "offer", "", "address offered by the simulated DHCP server")
	f.DurationVar(&offerAfter, "offer-after", 0, "delay of the DHCP offer (0: no DHCP server)")
	f.Uint16VarP(&port, "port", "p", 0, "serve status files via 9p on this TCP port")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(ctx context.Context, fc *netup.FileConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	offer := fc.OfferAddr()
	if fc.DHCP.OfferAfter > 0 && !offer.IsValid() {
		offer = netip.MustParseAddr("192.168.22.50")
	}
	stack := netup.NewSimStack(offer, fc.DHCP.OfferAfter, logger)
	disp := netup.NewTermDisplay(os.Stdout)
	node, err := netup.Bringup(fc.Config, fc.UserStore(), stack, disp, logger)
	if err != nil {
		return err
	}
	if fc.Port != 0 {
		fs, err := netup.NewStatusFS(node)
		if err != nil {
			return err
		}
		lst, err := netup.InitDevice().Listen(fc.Port)
		if err != nil {
			return err
		}
		defer lst.Close()
		go func() {
			if err := fs.ServeListener(lst); err != nil && !errors.Is(err, net.ErrClosed) {
				logger.Error("status server", slog.String("err", err.Error()))
			}
		}()
		logger.Info("serving status files", slog.Int("port", int(fc.Port)))
	}
	if err = node.Run(ctx); errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
