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
	"bytes"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

// PointSize is the canonical compressed ed25519 point/scalar encoding size.
const PointSize = 32

// IsOnCurve reports whether b is the canonical compressed encoding of a
// valid ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != PointSize {
		return false
	}
	P, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return false
	}
	// SetBytes also accepts non-canonical encodings (y at or above the
	// field prime); only the canonical form is accepted here.
	return bytes.Equal(P.Bytes(), b)
}

// AddPoints returns the compressed encoding of p+q, failing if either
// input is not a valid curve point.
func AddPoints(p, q []byte) ([]byte, error) {
	const op = "primitives.AddPoints"
	P, err := new(edwards25519.Point).SetBytes(p)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, fmt.Errorf("%w: p", ErrNotOnCurve))
	}
	Q, err := new(edwards25519.Point).SetBytes(q)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, fmt.Errorf("%w: q", ErrNotOnCurve))
	}
	sum := new(edwards25519.Point).Add(P, Q)
	return sum.Bytes(), nil
}

// ReduceScalar reduces an arbitrary-length hash output modulo the group
// order L, returning a canonical 32-byte little-endian scalar. Inputs
// shorter than 64 bytes are zero-extended before reduction, which is
// equivalent to reducing the zero-extended little-endian integer mod L.
func ReduceScalar(h []byte) ([]byte, error) {
	const op = "primitives.ReduceScalar"
	var wide [64]byte
	if len(h) > 64 {
		return nil, NewError(KindInvalidInput, op, fmt.Errorf("%w: input longer than 64 bytes", ErrWrongLength))
	}
	copy(wide[:], h)
	s, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return s.Bytes(), nil
}

// AddScalars returns (a+b) mod L as a canonical 32-byte scalar.
func AddScalars(a, b []byte) ([]byte, error) {
	const op = "primitives.AddScalars"
	sa, err := scalarFromCanonical(a)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	sb, err := scalarFromCanonical(b)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	sum := new(edwards25519.Scalar).Add(sa, sb)
	return sum.Bytes(), nil
}

// MulScalars returns (a*b) mod L as a canonical 32-byte scalar.
func MulScalars(a, b []byte) ([]byte, error) {
	const op = "primitives.MulScalars"
	sa, err := scalarFromCanonical(a)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	sb, err := scalarFromCanonical(b)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	prod := new(edwards25519.Scalar).Multiply(sa, sb)
	return prod.Bytes(), nil
}

// ScalarMultBaseNoClamp returns scalar*G for a scalar already reduced
// into canonical form, with no RFC-8032 clamping applied. This is the
// operation the stealth protocol and the raw-scalar signer need: both
// treat their scalars as plain integers mod L, not as clamped ed25519
// seeds.
func ScalarMultBaseNoClamp(scalar []byte) ([]byte, error) {
	const op = "primitives.ScalarMultBaseNoClamp"
	s, err := scalarFromCanonical(scalar)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	P := new(edwards25519.Point).ScalarBaseMult(s)
	return P.Bytes(), nil
}

// ScalarMultBase returns (clamp(seed))*G, applying the standard
// RFC-8032 clamping to the 32 input bytes as given, without hashing
// them first. For an RFC-8032 seed, pass the first 32 bytes of
// SHA-512(seed) to get the public key crypto/ed25519 derives. Stealth
// spending scalars go through ScalarMultBaseNoClamp instead.
func ScalarMultBase(seed []byte) ([]byte, error) {
	const op = "primitives.ScalarMultBase"
	if len(seed) != PointSize {
		return nil, NewError(KindInvalidInput, op, ErrWrongLength)
	}
	var clamped [32]byte
	copy(clamped[:], seed)
	clamped[0] &= 248
	clamped[31] &= 127
	clamped[31] |= 64
	s, err := new(edwards25519.Scalar).SetBytesWithClamping(clamped[:])
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	P := new(edwards25519.Point).ScalarBaseMult(s)
	return P.Bytes(), nil
}

// ScalarMultPoint returns scalar*P for an arbitrary curve point P, used
// by signature verification to compute k*A against a caller-supplied
// public key rather than the base point.
func ScalarMultPoint(scalar, point []byte) ([]byte, error) {
	const op = "primitives.ScalarMultPoint"
	s, err := scalarFromCanonical(scalar)
	if err != nil {
		return nil, NewError(KindInvalidInput, op, err)
	}
	P, err := new(edwards25519.Point).SetBytes(point)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, ErrNotOnCurve)
	}
	Q := new(edwards25519.Point).ScalarMult(s, P)
	return Q.Bytes(), nil
}

func scalarFromCanonical(b []byte) (*edwards25519.Scalar, error) {
	if len(b) != PointSize {
		return nil, fmt.Errorf("%w: scalar", ErrWrongLength)
	}
	s, err := new(edwards25519.Scalar).SetCanonicalBytes(b)
	if err != nil {
		return nil, fmt.Errorf("scalar not canonical: %w", err)
	}
	return s, nil
}

// Sha512ModL hashes msg with SHA-512 and reduces the 64-byte digest
// modulo L in one step, the operation RFC-8032 signing needs for the
// nonce r and the challenge k.
func Sha512ModL(parts ...[]byte) ([]byte, error) {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	digest := h.Sum(nil)
	s, err := new(edwards25519.Scalar).SetUniformBytes(digest)
	if err != nil {
		return nil, NewError(KindCryptoFailure, "primitives.Sha512ModL", err)
	}
	return s.Bytes(), nil
}
