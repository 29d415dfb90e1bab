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

// Package signer implements a deterministic RFC-8032-style ed25519
// signer for raw scalars recovered from the stealth protocol, where the
// standard seed-expansion signing API does not apply.
package signer

import (
	"github.com/meshpay-project/meshcore/primitives"
)

// SignatureSize is the length of an R||s ed25519 signature.
const SignatureSize = 64

// Sign produces a deterministic ed25519 signature over message using the
// raw scalar p. publicKey MUST equal p*G; Sign does not re-derive it and
// will produce a signature that fails verification under a mismatched
// public key rather than detect the mismatch itself.
//
//  1. r = SHA-512(p || message) mod L
//  2. R = r*G (no-clamp base multiplication)
//  3. k = SHA-512(R || A || message) mod L
//  4. s = r + k*p mod L
//  5. signature = R || s
func Sign(p, publicKey, message []byte) ([]byte, error) {
	const op = "signer.Sign"
	if len(p) != primitives.PointSize || len(publicKey) != primitives.PointSize {
		return nil, primitives.NewError(primitives.KindInvalidInput, op, primitives.ErrWrongLength)
	}

	r, err := primitives.Sha512ModL(p, message)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	R, err := primitives.ScalarMultBaseNoClamp(r)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	k, err := primitives.Sha512ModL(R, publicKey, message)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	kp, err := primitives.MulScalars(k, p)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	s, err := primitives.AddScalars(r, kp)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, R...)
	sig = append(sig, s...)
	return sig, nil
}

// Verify checks a signature produced by Sign (or any compliant RFC-8032
// ed25519 implementation) against the standard ed25519 verify equation
// s*G == R + k*A.
func Verify(publicKey, message, signature []byte) (bool, error) {
	const op = "signer.Verify"
	if len(publicKey) != primitives.PointSize || len(signature) != SignatureSize {
		return false, primitives.NewError(primitives.KindInvalidInput, op, primitives.ErrWrongLength)
	}
	R := signature[:32]
	s := signature[32:]

	if !primitives.IsOnCurve(R) || !primitives.IsOnCurve(publicKey) {
		return false, primitives.NewError(primitives.KindCryptoFailure, op, primitives.ErrNotOnCurve)
	}

	k, err := primitives.Sha512ModL(R, publicKey, message)
	if err != nil {
		return false, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	sG, err := primitives.ScalarMultBaseNoClamp(s)
	if err != nil {
		return false, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	kA, err := primitives.ScalarMultPoint(k, publicKey)
	if err != nil {
		return false, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	RplusKA, err := primitives.AddPoints(R, kA)
	if err != nil {
		return false, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	return constantTimeEqual(sG, RplusKA), nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
