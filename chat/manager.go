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
	"fmt"
	"sync"
	"time"

	"github.com/meshpay-project/meshcore/ratchet"
)

// cleanupInterval is how often Manager sweeps for expired pending
// requests and idle active sessions.
const cleanupInterval = 30 * time.Second

// Manager owns every chat session a node is party to, keyed by peer id.
// A node talks to at most one session per peer at a time, so PeerID is
// sufficient as a key (unlike the mesh's multi-session-per-key-id
// identity layer this is adapted from).
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewManager constructs a Manager and starts its background cleanup
// loop. Callers must call Close when the node shuts down.
func NewManager() *Manager {
	m := &Manager{
		sessions:      make(map[string]*Session),
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
	}
	go m.runCleanup()
	return m
}

// StartOutgoing begins a new chat request to peerID, registering the
// session in pendingAccept. Fails if a session for this peer already
// exists.
func (m *Manager) StartOutgoing(sessionID, peerID string) (*Session, *ratchet.KeyAgreementRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[peerID]; exists {
		return nil, nil, fmt.Errorf("chat.Manager.StartOutgoing: session already exists for peer %s", peerID)
	}

	s, req, err := NewOutgoingRequest(sessionID, peerID)
	if err != nil {
		return nil, nil, err
	}
	m.sessions[peerID] = s
	return s, req, nil
}

// HandleIncomingRequest registers a responder-side session for an
// incoming chatRequest, in pendingLocalAccept, awaiting the local
// user's AcceptLocally/DeclineLocally call.
func (m *Manager) HandleIncomingRequest(sessionID, peerID string, req *ratchet.KeyAgreementRequest) (*Session, *ratchet.KeyAgreementResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[peerID]; exists {
		return nil, nil, fmt.Errorf("chat.Manager.HandleIncomingRequest: session already exists for peer %s", peerID)
	}

	s, resp, err := NewIncomingRequest(sessionID, peerID, req)
	if err != nil {
		return nil, nil, err
	}
	m.sessions[peerID] = s
	return s, resp, nil
}

// Get returns the session for peerID, if any.
func (m *Manager) Get(peerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[peerID]
	return s, ok
}

// End ends and removes the session for peerID, zeroizing its ratchet
// state. A no-op if no session exists for peerID.
func (m *Manager) End(peerID string) {
	m.mu.Lock()
	s, ok := m.sessions[peerID]
	if ok {
		delete(m.sessions, peerID)
	}
	m.mu.Unlock()

	if ok {
		s.End()
	}
}

// Sessions returns a snapshot of every peer id with a live session.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	peers := make([]string, 0, len(m.sessions))
	for peerID := range m.sessions {
		peers = append(peers, peerID)
	}
	return peers
}

// Close stops the cleanup loop and ends every remaining session.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		m.cleanupTicker.Stop()
	})

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.End()
	}
}

func (m *Manager) runCleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.sweepExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

// sweepExpired ends sessions whose pending request timed out
// (RequestExpiry) or whose active conversation went idle
// (IdleTimeout), and removes them from the map.
func (m *Manager) sweepExpired() {
	now := time.Now()

	m.mu.Lock()
	var expired []*Session
	for peerID, s := range m.sessions {
		if s.IsRequestExpired(now) || s.IsIdleExpired(now) {
			expired = append(expired, s)
			delete(m.sessions, peerID)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.End()
	}
}
