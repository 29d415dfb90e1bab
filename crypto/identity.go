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

// Package crypto provides a mesh node's long-lived signing identity --
// the ed25519 key a peer uses to authenticate the envelopes it
// originates, distinct from the raw-scalar stealth spending keys the
// scanner recovers -- and the key-store boundary behind which an
// external device-bound store persists a receiver's stealth identity.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrKeyNotFound      = errors.New("key not found")
)

// NodeIdentity is a node's ed25519 signing key pair. The peer id other
// mesh participants address this node by is derived from the public
// key, so the identity is created once and persisted; rotating it would
// change the peer id and orphan every stored peer record.
type NodeIdentity struct {
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	peerID string
}

// GenerateNodeIdentity creates a fresh signing identity.
func GenerateNodeIdentity() (*NodeIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto.GenerateNodeIdentity: %w", err)
	}
	return &NodeIdentity{priv: priv, pub: pub, peerID: derivePeerID(pub)}, nil
}

// NodeIdentityFromSeed restores an identity from its 32-byte seed, the
// form the key store persists.
func NodeIdentityFromSeed(seed []byte) (*NodeIdentity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("crypto.NodeIdentityFromSeed: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &NodeIdentity{priv: priv, pub: pub, peerID: derivePeerID(pub)}, nil
}

// derivePeerID maps a public key to the short hex id peers advertise.
func derivePeerID(pub ed25519.PublicKey) string {
	hash := sha256.Sum256(pub)
	return hex.EncodeToString(hash[:8])
}

// PeerID returns the node's stable mesh identifier.
func (id *NodeIdentity) PeerID() string { return id.peerID }

// PublicKey returns the verifying key other peers check envelope
// signatures against.
func (id *NodeIdentity) PublicKey() ed25519.PublicKey { return id.pub }

// Seed returns the 32-byte seed the key store persists.
func (id *NodeIdentity) Seed() []byte { return id.priv.Seed() }

// Sign signs message with the node's private key.
func (id *NodeIdentity) Sign(message []byte) []byte {
	return ed25519.Sign(id.priv, message)
}

// Verify checks a signature against an arbitrary peer's public key.
func Verify(pub ed25519.PublicKey, message, signature []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("crypto.Verify: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	if !ed25519.Verify(pub, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}
