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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerFires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tck := NewTicker(TickHz, TickPriority)
	assert.Equal(t, Disarmed, tck.State())
	assert.Equal(t, 10*time.Millisecond, tck.Period())
	assert.Equal(t, uint32(TickMs), tck.ElapsedMs())

	var n atomic.Int32
	require.NoError(t, tck.Start(ctx, func() { n.Add(1) }))
	assert.Equal(t, Armed, tck.State())
	require.Eventually(t, func() bool { return n.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)
}

func TestTickerDropsTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// callback takes three periods
	const slow = 30 * time.Millisecond
	var n atomic.Int32
	tck := NewTicker(TickHz, TickPriority)
	start := time.Now()
	require.NoError(t, tck.Start(ctx, func() {
		n.Add(1)
		time.Sleep(slow)
	}))
	time.Sleep(300 * time.Millisecond)
	calls := int(n.Load())
	elapsed := time.Since(start)
	cancel()

	// no backlog: calls bounded by the callback duration, not the period
	assert.GreaterOrEqual(t, calls, 2)
	assert.LessOrEqual(t, calls, int(elapsed/slow)+1)
	assert.Less(t, calls, int(elapsed/tck.Period()))
}

func TestTickerStartOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tck := NewTicker(TickHz, TickPriority)
	require.NoError(t, tck.Start(ctx, func() {}))
	require.ErrorIs(t, tck.Start(ctx, func() {}), ErrArmed)
	assert.Equal(t, Armed, tck.State())
}

func TestTickerRate(t *testing.T) {
	for _, hz := range []int{0, -1, 1001} {
		tck := NewTicker(hz, TickPriority)
		require.ErrorIs(t, tck.Start(context.Background(), func() {}), ErrTickRate)
		assert.Equal(t, Disarmed, tck.State())
	}
}

func TestPriority(t *testing.T) {
	assert.True(t, Priority(0x80).Preempts(0xC0))
	assert.False(t, Priority(0xC0).Preempts(0x80))
	// only the top 3 bits count
	assert.False(t, Priority(0x80).Preempts(0x9f))
	assert.Equal(t, uint8(4), Priority(0x80).Level())
	assert.Equal(t, "0x80", Priority(0x80).String())
}
