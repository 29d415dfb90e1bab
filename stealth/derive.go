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
	"github.com/mr-tron/base58"

	"github.com/meshpay-project/meshcore/primitives"
)

// Output is a one-time stealth destination produced by DeriveAddress,
// carrying everything the receiver needs to detect and, if it belongs
// to them, spend it.
type Output struct {
	StealthAddress     string // base58(P)
	StealthPublicKey   []byte // P, 32 bytes
	EphemeralPublicKey []byte // R, 32-byte X25519 point
	ViewTag            byte
	MLKEMCiphertext    []byte // nil unless hybrid
}

// DeriveAddress produces a one-time stealth address for a payment to
// meta. When meta is hybrid, the ML-KEM leg is exercised and the
// returned Output carries a ciphertext; otherwise only the classical
// ECDH leg runs.
//
//  1. Generate ephemeral X25519 (r, R).
//  2. S_c = X25519(r, V).
//  3. If hybrid: (ct, S_k) = MLKEM.Encaps(k_pk); S = SHA-256(S_c || S_k). Else S = S_c.
//  4. h_raw = SHA-256(S); viewTag = h_raw[0].
//  5. h = reduce(h_raw) mod L.
//  6. H = h*G.
//  7. P = M + H; MUST be on curve.
//  8. stealthAddress = base58(P).
func DeriveAddress(meta *MetaAddress) (*Output, error) {
	const op = "stealth.DeriveAddress"

	ephemeral, err := primitives.GenerateX25519()
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	R := ephemeral.PublicBytes()

	Sc, err := ephemeral.ECDH(meta.ViewingPublicKey)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	var S []byte
	var ciphertext []byte
	if meta.IsHybrid() {
		ct, Sk, err := primitives.MLKEMEncapsulate(meta.MLKEMPublicKey)
		if err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
		ciphertext = ct
		S = primitives.Sha256(Sc, Sk)
	} else {
		S = Sc
	}

	hRaw := primitives.Sha256(S)
	viewTag := hRaw[0]

	h, err := primitives.ReduceScalar(hRaw)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	H, err := primitives.ScalarMultBaseNoClamp(h)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	P, err := primitives.AddPoints(meta.SpendingPublicKey, H)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	if !primitives.IsOnCurve(P) {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, primitives.ErrNotOnCurve)
	}

	return &Output{
		StealthAddress:     base58.Encode(P),
		StealthPublicKey:   P,
		EphemeralPublicKey: R,
		ViewTag:            viewTag,
		MLKEMCiphertext:    ciphertext,
	}, nil
}

// VerifyOutput recomputes out's one-time address from the receiver's
// side (the viewing key, and the ML-KEM key for a hybrid output) and
// reports whether it matches. It is the symmetric check of
// DeriveAddress, exposed so tests can confirm both halves agree
// without going through the full scanner.
func VerifyOutput(id *Identity, out *Output) (bool, error) {
	var S []byte
	var err error
	if len(out.MLKEMCiphertext) > 0 {
		S, err = id.ComputeHybridSharedSecret(out.EphemeralPublicKey, out.MLKEMCiphertext)
	} else {
		S, err = id.ComputeSharedSecret(out.EphemeralPublicKey)
	}
	if err != nil {
		return false, err
	}

	hRaw := primitives.Sha256(S)
	if hRaw[0] != out.ViewTag {
		return false, nil
	}
	h, err := primitives.ReduceScalar(hRaw)
	if err != nil {
		return false, err
	}
	H, err := primitives.ScalarMultBaseNoClamp(h)
	if err != nil {
		return false, err
	}
	P, err := primitives.AddPoints(id.SpendingPublic, H)
	if err != nil {
		return false, err
	}
	return base58.Encode(P) == out.StealthAddress, nil
}
