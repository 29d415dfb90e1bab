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

// Package ratchet implements the hybrid (X25519 + ML-KEM-768) double
// ratchet session engine: key agreement, the per-message symmetric
// ratchet, and the DH ratchet step.
package ratchet

import (
	"time"

	"github.com/meshpay-project/meshcore/primitives"
)

// skippedKeyCap bounds the skipped-message-key table.
const skippedKeyCap = 100

// skippedKeyID identifies one stored skipped message key by the DH
// public key in effect at the time plus the message number.
type skippedKeyID struct {
	dhPublicKey string // hex-free raw bytes as a string, used purely as a map key
	messageNumber uint32
}

// State is a single chat session's ratchet material. Every field
// here is single-writer, owned exclusively by the enclosing chat
// session.
type State struct {
	SessionID string
	IsInitiator bool

	dhPriv       *primitives.X25519KeyPair
	remoteDhPub  []byte

	mlkemPriv      *primitives.MLKEMKeyPair
	remoteMlkemPub []byte

	rootKey      []byte
	sendChainKey []byte
	recvChainKey []byte

	sendN        uint32
	recvN        uint32
	prevChainLen uint32

	// sendRatchetPending marks that the next Encrypt must rotate the
	// local DH keypair first. Set on the responder at session
	// establishment so its first reply opens a new epoch; after that,
	// rotation happens inside the receive-side DH ratchet step.
	sendRatchetPending bool

	skipped      map[skippedKeyID][]byte
	skippedOrder []skippedKeyID

	CreatedAt    time.Time
	LastActivity time.Time
}

// newState builds the shared scaffolding both the initiator and
// responder constructors populate.
func newState(sessionID string, isInitiator bool, dhPriv *primitives.X25519KeyPair, mlkemPriv *primitives.MLKEMKeyPair) *State {
	now := time.Now()
	return &State{
		SessionID:    sessionID,
		IsInitiator:  isInitiator,
		dhPriv:       dhPriv,
		mlkemPriv:    mlkemPriv,
		skipped:      make(map[skippedKeyID][]byte),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// DHPublicKey returns this side's current X25519 public key, the value
// carried on the wire as a message's dhPublicKey field.
func (s *State) DHPublicKey() []byte { return s.dhPriv.PublicBytes() }

// RemoteDHPublicKey returns the last-known remote DH public key.
func (s *State) RemoteDHPublicKey() []byte { return s.remoteDhPub }

// storeSkipped records a skipped message key, evicting the oldest
// entry once the table is at its cap.
func (s *State) storeSkipped(dhPub []byte, messageNumber uint32, key []byte) {
	if len(s.skipped) >= skippedKeyCap {
		oldest := s.skippedOrder[0]
		s.skippedOrder = s.skippedOrder[1:]
		delete(s.skipped, oldest)
	}
	id := skippedKeyID{dhPublicKey: string(dhPub), messageNumber: messageNumber}
	s.skipped[id] = key
	s.skippedOrder = append(s.skippedOrder, id)
}

// takeSkipped consumes and removes a stored skipped key, if present.
func (s *State) takeSkipped(dhPub []byte, messageNumber uint32) ([]byte, bool) {
	id := skippedKeyID{dhPublicKey: string(dhPub), messageNumber: messageNumber}
	key, ok := s.skipped[id]
	if !ok {
		return nil, false
	}
	delete(s.skipped, id)
	for i, sid := range s.skippedOrder {
		if sid == id {
			s.skippedOrder = append(s.skippedOrder[:i], s.skippedOrder[i+1:]...)
			break
		}
	}
	return key, true
}

// SkippedCount returns the number of currently stored skipped keys,
// exposed for the invariant test that it never exceeds skippedKeyCap.
func (s *State) SkippedCount() int { return len(s.skipped) }

// Zeroize overwrites the root key, both chain keys and every skipped
// key with zero bytes and drops the remote public-key references. The
// local X25519 and ML-KEM private keys are not overwritten.
func (s *State) Zeroize() {
	zero(s.rootKey)
	zero(s.sendChainKey)
	zero(s.recvChainKey)
	for _, k := range s.skipped {
		zero(k)
	}
	s.skipped = make(map[skippedKeyID][]byte)
	s.skippedOrder = nil
	s.remoteDhPub = nil
	s.remoteMlkemPub = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
