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

package stealth

import (
	"github.com/meshpay-project/meshcore/primitives"
)

// Identity is a receiver's long-term stealth key material: a raw
// ed25519 spending scalar, an X25519 viewing key, and an optional
// ML-KEM-768 key pair for the hybrid leg.
type Identity struct {
	SpendingScalar   []byte // m, 32-byte raw scalar in [0, L)
	SpendingPublic   []byte // M = m*G
	ViewingKey       *primitives.X25519KeyPair
	MLKEM            *primitives.MLKEMKeyPair
}

// MetaAddress returns the public meta-address for this identity.
func (id *Identity) MetaAddress() *MetaAddress {
	meta := &MetaAddress{
		SpendingPublicKey: id.SpendingPublic,
		ViewingPublicKey:  id.ViewingKey.PublicBytes(),
	}
	if id.MLKEM != nil {
		meta.MLKEMPublicKey = id.MLKEM.PublicKeyBytes()
	}
	return meta
}

// Generate creates a fresh stealth identity. When withPostQuantum is
// true, an ML-KEM-768 key pair is generated alongside the classical
// legs, producing a hybrid-capable identity.
func Generate(withPostQuantum bool) (*Identity, error) {
	const op = "stealth.Generate"

	rawScalar, err := primitives.RandomBytes(64)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	m, err := primitives.ReduceScalar(rawScalar[:32])
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	M, err := primitives.ScalarMultBaseNoClamp(m)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	viewing, err := primitives.GenerateX25519()
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	id := &Identity{SpendingScalar: m, SpendingPublic: M, ViewingKey: viewing}
	if withPostQuantum {
		kem, err := primitives.GenerateMLKEM()
		if err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
		id.MLKEM = kem
	}
	return id, nil
}

// Restore re-derives public keys from previously stored private
// material. It fails if m*G is not a valid curve point or, when
// mlkemPrivate is supplied, if ML-KEM private-key restoration fails its
// integrity check.
func Restore(spendingScalar, viewingPrivate, mlkemPrivate []byte) (*Identity, error) {
	const op = "stealth.Restore"
	if len(spendingScalar) != primitives.PointSize {
		return nil, primitives.NewError(primitives.KindInvalidInput, op, primitives.ErrWrongLength)
	}

	M, err := primitives.ScalarMultBaseNoClamp(spendingScalar)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	if !primitives.IsOnCurve(M) {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, primitives.ErrNotOnCurve)
	}

	viewing, err := primitives.RestoreX25519(viewingPrivate)
	if err != nil {
		return nil, primitives.NewError(primitives.KindInvalidInput, op, err)
	}

	id := &Identity{SpendingScalar: spendingScalar, SpendingPublic: M, ViewingKey: viewing}
	if mlkemPrivate != nil {
		kem, err := primitives.ParseMLKEMPrivateKey(mlkemPrivate)
		if err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
		id.MLKEM = kem
	}
	return id, nil
}

// ComputeSharedSecret computes the classical shared secret X25519(v, R)
// against a sender's ephemeral public key R.
func (id *Identity) ComputeSharedSecret(R []byte) ([]byte, error) {
	return id.ViewingKey.ECDH(R)
}

// DecapsulateMLKEM recovers the ML-KEM shared secret from a ciphertext.
// Fails with CryptoFailure if this identity has no post-quantum key.
func (id *Identity) DecapsulateMLKEM(ciphertext []byte) ([]byte, error) {
	const op = "stealth.Identity.DecapsulateMLKEM"
	if id.MLKEM == nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, ErrNoPostQuantumIdentity)
	}
	return id.MLKEM.Decapsulate(ciphertext)
}

// ComputeHybridSharedSecret combines the classical and post-quantum
// shared secrets: SHA-256(X25519(v,R) || MLKEM.Decaps(k_sk, ct)).
func (id *Identity) ComputeHybridSharedSecret(R, ciphertext []byte) ([]byte, error) {
	classical, err := id.ComputeSharedSecret(R)
	if err != nil {
		return nil, err
	}
	pq, err := id.DecapsulateMLKEM(ciphertext)
	if err != nil {
		return nil, err
	}
	return primitives.Sha256(classical, pq), nil
}

// DeriveStealthSpendingKey returns m + h mod L, the recovered one-time
// spending scalar for a detected payment. h MUST already be reduced
// into [0, L).
func (id *Identity) DeriveStealthSpendingKey(h []byte) ([]byte, error) {
	return primitives.AddScalars(id.SpendingScalar, h)
}
