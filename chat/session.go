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

// Package chat implements the chat session lifecycle state machine
// layered on the ratchet engine: request/accept/decline
// handshaking, message send/receive, idle timeout, and end-of-session
// key zeroization.
package chat

import (
	"sync"
	"time"

	"github.com/meshpay-project/meshcore/primitives"
	"github.com/meshpay-project/meshcore/ratchet"
)

// State is a chat session's lifecycle state.
type State string

const (
	StateInitializing      State = "initializing"
	StatePendingAccept      State = "pendingAccept"
	StatePendingLocalAccept State = "pendingLocalAccept"
	StateActive             State = "active"
	StateEnding             State = "ending"
	StateEnded              State = "ended"
)

// RequestExpiry is how long a pending request may sit unanswered
// before the manager's cleanup sweep expires it.
const RequestExpiry = 120 * time.Second

// IdleTimeout is how long an active session may sit unused before it
// is ended and its keys zeroized.
const IdleTimeout = 1800 * time.Second

// Session is one chat session's state machine plus its ratchet
// material. Every mutator acquires mu: the enclosing Manager is the
// single writer driving these transitions, but Session guards itself
// too so it can be used standalone in tests.
type Session struct {
	mu sync.Mutex

	PeerID      string
	IsInitiator bool
	state       State

	ratchetState *ratchet.State

	createdAt   time.Time
	requestedAt time.Time
	lastActivity time.Time
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NewOutgoingRequest creates an initiator-side session in
// pendingAccept, along with the key-agreement request to send on the
// wire as a chatRequest message.
func NewOutgoingRequest(sessionID, peerID string) (*Session, *ratchet.KeyAgreementRequest, error) {
	rs, req, err := ratchet.InitiateSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	s := &Session{
		PeerID:       peerID,
		IsInitiator:  true,
		state:        StatePendingAccept,
		ratchetState: rs,
		createdAt:    now,
		requestedAt:  now,
		lastActivity: now,
	}
	return s, req, nil
}

// NewIncomingRequest creates a responder-side session in
// pendingLocalAccept from an incoming chatRequest, along with the
// key-agreement response to send back as a chatAccept message.
func NewIncomingRequest(sessionID, peerID string, req *ratchet.KeyAgreementRequest) (*Session, *ratchet.KeyAgreementResponse, error) {
	rs, resp, err := ratchet.RespondToSession(sessionID, req)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	s := &Session{
		PeerID:       peerID,
		IsInitiator:  false,
		state:        StatePendingLocalAccept,
		ratchetState: rs,
		createdAt:    now,
		requestedAt:  now,
		lastActivity: now,
	}
	return s, resp, nil
}

// CompleteInitiation finishes the initiator's key agreement on receipt
// of the peer's chatAccept and moves the session to active.
func (s *Session) CompleteInitiation(resp *ratchet.KeyAgreementResponse) error {
	const op = "chat.Session.CompleteInitiation"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePendingAccept {
		return primitives.NewError(primitives.KindProtocolViolation, op, ErrWrongState)
	}
	if err := ratchet.CompleteSession(s.ratchetState, resp); err != nil {
		return err
	}
	s.state = StateActive
	s.lastActivity = time.Now()
	return nil
}

// DeclineAsInitiator handles an incoming chatDecline, ending the
// session without ever having completed key agreement.
func (s *Session) DeclineAsInitiator() error {
	const op = "chat.Session.DeclineAsInitiator"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePendingAccept {
		return primitives.NewError(primitives.KindProtocolViolation, op, ErrWrongState)
	}
	s.endLocked()
	return nil
}

// AcceptLocally moves a responder-side session from pendingLocalAccept
// to active, the point at which the local user has accepted the
// incoming chat request.
func (s *Session) AcceptLocally() error {
	const op = "chat.Session.AcceptLocally"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePendingLocalAccept {
		return primitives.NewError(primitives.KindProtocolViolation, op, ErrWrongState)
	}
	s.state = StateActive
	s.lastActivity = time.Now()
	return nil
}

// DeclineLocally moves a responder-side session from
// pendingLocalAccept straight to ended.
func (s *Session) DeclineLocally() error {
	const op = "chat.Session.DeclineLocally"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePendingLocalAccept {
		return primitives.NewError(primitives.KindProtocolViolation, op, ErrWrongState)
	}
	s.endLocked()
	return nil
}

// Send encrypts plaintext for the wire. Fails with ProtocolViolation
// if the session is not active.
func (s *Session) Send(plaintext []byte) (*ratchet.Message, error) {
	const op = "chat.Session.Send"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, primitives.NewError(primitives.KindProtocolViolation, op, ErrNotActive)
	}
	msg, err := ratchet.Encrypt(s.ratchetState, plaintext)
	if err != nil {
		return nil, err
	}
	s.lastActivity = time.Now()
	return msg, nil
}

// Receive decrypts an incoming ratchet message. Fails with
// ProtocolViolation if the session is not active.
func (s *Session) Receive(msg *ratchet.Message) ([]byte, error) {
	const op = "chat.Session.Receive"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return nil, primitives.NewError(primitives.KindProtocolViolation, op, ErrNotActive)
	}
	plaintext, err := ratchet.Decrypt(s.ratchetState, msg)
	if err != nil {
		return nil, err
	}
	s.lastActivity = time.Now()
	return plaintext, nil
}

// End explicitly ends the session: transitions through ending to
// ended and zeroizes ratchet key material.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
}

func (s *Session) endLocked() {
	if s.state == StateEnded {
		return
	}
	s.state = StateEnding
	s.ratchetState.Zeroize()
	s.state = StateEnded
}

// IsIdleExpired reports whether an active session has been idle longer
// than IdleTimeout.
func (s *Session) IsIdleExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateActive && now.Sub(s.lastActivity) > IdleTimeout
}

// IsRequestExpired reports whether a pending (not yet active) session's
// request is older than RequestExpiry.
func (s *Session) IsRequestExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.state == StatePendingAccept || s.state == StatePendingLocalAccept
	return pending && now.Sub(s.requestedAt) > RequestExpiry
}
