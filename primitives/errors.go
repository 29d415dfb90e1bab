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

// Package primitives provides the cryptographic building blocks shared
// by every other package in this module: curve arithmetic, X25519 ECDH,
// ML-KEM-768, hashing/HKDF, AES-256-GCM, and a typed error taxonomy.
package primitives

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way callers need to branch on it,
// rather than forcing string matching on wrapped errors.
type Kind string

const (
	// KindInvalidInput covers malformed meta-addresses, wrong-length
	// keys/ciphertexts, non-curve points, and TTL overflow.
	KindInvalidInput Kind = "invalid_input"
	// KindCryptoFailure covers KEM encaps/decaps failure, off-curve
	// point addition, AEAD tag mismatch, and HKDF/HMAC failure.
	KindCryptoFailure Kind = "crypto_failure"
	// KindProtocolViolation covers state-machine violations: a chat
	// message received outside the active state, an accept attempted
	// outside pendingLocalAccept, or a replay with no stored skipped key.
	KindProtocolViolation Kind = "protocol_violation"
	// KindCapacityExceeded covers payloads over the 4096-byte wire limit.
	KindCapacityExceeded Kind = "capacity_exceeded"
	// KindTransient covers conditions a caller may usefully retry:
	// peer not found, transport write timeout.
	KindTransient Kind = "transient"
)

// Error is the module's structured error type. It wraps an underlying
// cause (if any) and is comparable with errors.Is/errors.As through Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &Error{Kind: KindInvalidInput}) style checks
// that only compare Kind, ignoring Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// NewError constructs a structured Error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Sentinel errors for conditions that are not wrapped with additional
// context at the call site.
var (
	ErrNotOnCurve        = errors.New("point is not on curve")
	ErrWrongLength       = errors.New("wrong-length input")
	ErrNoPostQuantumKey  = errors.New("identity has no post-quantum key")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)
