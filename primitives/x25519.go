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

package primitives

import (
	"crypto/ecdh"
	"crypto/rand"
)

// X25519KeyPair is an ephemeral or long-lived Curve25519 ECDH keypair.
type X25519KeyPair struct {
	priv *ecdh.PrivateKey
	pub  *ecdh.PublicKey
}

// GenerateX25519 creates a fresh X25519 keypair using the system CSPRNG.
func GenerateX25519() (*X25519KeyPair, error) {
	const op = "primitives.GenerateX25519"
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return &X25519KeyPair{priv: priv, pub: priv.PublicKey()}, nil
}

// RestoreX25519 reconstructs a keypair from a 32-byte private scalar,
// as used when an identity's viewing key is loaded from storage.
func RestoreX25519(priv []byte) (*X25519KeyPair, error) {
	const op = "primitives.RestoreX25519"
	pk, err := ecdh.X25519().NewPrivateKey(priv)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	return &X25519KeyPair{priv: pk, pub: pk.PublicKey()}, nil
}

// PublicBytes returns the 32-byte X25519 public key.
func (kp *X25519KeyPair) PublicBytes() []byte { return kp.pub.Bytes() }

// PrivateBytes returns the 32-byte X25519 private scalar.
func (kp *X25519KeyPair) PrivateBytes() []byte { return kp.priv.Bytes() }

// ECDH computes the 32-byte X25519 shared secret between kp and a
// peer's public key bytes.
func (kp *X25519KeyPair) ECDH(peerPub []byte) ([]byte, error) {
	return X25519(kp.priv.Bytes(), peerPub)
}

// X25519 performs a raw Diffie-Hellman exchange between a private
// scalar and a peer public key, both 32 bytes, returning the 32-byte
// shared secret. Fails with InvalidInput on wrong-length input and with
// CryptoFailure on low-order/identity points.
func X25519(priv, peerPub []byte) ([]byte, error) {
	const op = "primitives.X25519"
	if len(priv) != 32 || len(peerPub) != 32 {
		return nil, NewError(KindInvalidInput, op, ErrWrongLength)
	}
	curve := ecdh.X25519()
	pk, err := curve.NewPrivateKey(priv)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	peer, err := curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	secret, err := pk.ECDH(peer)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return secret, nil
}
