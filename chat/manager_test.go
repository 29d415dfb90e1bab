// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPair(t *testing.T) (initiator *Session, responder *Session, m1, m2 *Manager) {
	t.Helper()
	m1 = NewManager()
	m2 = NewManager()
	t.Cleanup(func() {
		m1.Close()
		m2.Close()
	})

	initiator, req, err := m1.StartOutgoing("sess-1", "peer-responder")
	require.NoError(t, err)

	responder, resp, err := m2.HandleIncomingRequest("sess-1", "peer-initiator", req)
	require.NoError(t, err)

	require.NoError(t, initiator.CompleteInitiation(resp))
	require.NoError(t, responder.AcceptLocally())
	return initiator, responder, m1, m2
}

func TestManagerStartOutgoingRejectsDuplicatePeer(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, _, err := m.StartOutgoing("sess-1", "peer-a")
	require.NoError(t, err)

	_, _, err = m.StartOutgoing("sess-2", "peer-a")
	require.Error(t, err)
}

func TestManagerHandshakeAndMessageRoundTrip(t *testing.T) {
	initiator, responder, _, _ := newTestPair(t)

	require.Equal(t, StateActive, initiator.State())
	require.Equal(t, StateActive, responder.State())

	msg, err := initiator.Send([]byte("hello"))
	require.NoError(t, err)

	plaintext, err := responder.Receive(msg)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), plaintext)

	reply, err := responder.Send([]byte("hi back"))
	require.NoError(t, err)

	plaintext, err = initiator.Receive(reply)
	require.NoError(t, err)
	require.Equal(t, []byte("hi back"), plaintext)
}

func TestManagerEndRemovesSession(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, _, err := m.StartOutgoing("sess-1", "peer-a")
	require.NoError(t, err)

	m.End("peer-a")

	_, ok := m.Get("peer-a")
	require.False(t, ok)
}

func TestManagerSweepExpiredEndsIdleSession(t *testing.T) {
	initiator, _, m1, _ := newTestPair(t)

	// Force the session to look idle without waiting the real
	// IdleTimeout out.
	initiator.mu.Lock()
	initiator.lastActivity = time.Now().Add(-IdleTimeout - time.Second)
	initiator.mu.Unlock()

	m1.sweepExpired()

	_, ok := m1.Get("peer-responder")
	require.False(t, ok)
	require.Equal(t, StateEnded, initiator.State())
}

func TestManagerSessionsListsPeers(t *testing.T) {
	m := NewManager()
	defer m.Close()

	_, _, err := m.StartOutgoing("sess-1", "peer-a")
	require.NoError(t, err)
	_, _, err = m.StartOutgoing("sess-2", "peer-b")
	require.NoError(t, err)

	peers := m.Sessions()
	require.ElementsMatch(t, []string{"peer-a", "peer-b"}, peers)
}
