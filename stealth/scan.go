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

// Candidate is a single on-chain output the scanner inspects.
type Candidate struct {
	DestinationAddress string
	EphemeralPublicKey []byte
	ViewTag            *byte // nil disables the fast pre-filter
	MLKEMCiphertext    []byte
}

// DetectedPayment is a stealth output that was confirmed to belong to
// the scanning identity, along with its recovered spending scalar.
type DetectedPayment struct {
	StealthAddress     string
	SpendingPrivateKey []byte // p = m + h mod L
}

// Scan inspects a single candidate against id, choosing the classical or
// hybrid path based on whether a ciphertext and a post-quantum key are
// both present.
//
//  1. Quick filter: compute S and SHA-256(S)[0]; skip on view-tag mismatch.
//  2. Recompute h = reduce(SHA-256(S)) mod L, P' = M + h*G, address' = base58(P').
//  3. If address' == destinationAddress, recover p = m + h mod L.
func Scan(id *Identity, c Candidate) (*DetectedPayment, error) {
	const op = "stealth.Scan"

	var S []byte
	var err error
	if len(c.MLKEMCiphertext) > 0 && id.MLKEM != nil {
		S, err = id.ComputeHybridSharedSecret(c.EphemeralPublicKey, c.MLKEMCiphertext)
	} else {
		S, err = id.ComputeSharedSecret(c.EphemeralPublicKey)
	}
	if err != nil {
		return nil, err
	}

	hRaw := primitives.Sha256(S)
	if c.ViewTag != nil && hRaw[0] != *c.ViewTag {
		return nil, nil
	}

	h, err := primitives.ReduceScalar(hRaw)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	H, err := primitives.ScalarMultBaseNoClamp(h)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	Pprime, err := primitives.AddPoints(id.SpendingPublic, H)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	candidateAddress := base58.Encode(Pprime)
	if candidateAddress != c.DestinationAddress {
		return nil, nil
	}

	p, err := id.DeriveStealthSpendingKey(h)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	return &DetectedPayment{StealthAddress: candidateAddress, SpendingPrivateKey: p}, nil
}

// ScanBatch scans every candidate in candidates, returning only the
// ones that belong to id. A nil ViewTag on a candidate disables its
// pre-filter; callers that always have tags available should set them
// for best performance.
func ScanBatch(id *Identity, candidates []Candidate) ([]*DetectedPayment, error) {
	var out []*DetectedPayment
	for _, c := range candidates {
		payment, err := Scan(id, c)
		if err != nil {
			return nil, err
		}
		if payment != nil {
			out = append(out, payment)
		}
	}
	return out, nil
}

// ParseMemo validates and splits a stealth memo into its ephemeral
// public key and, if present, ML-KEM ciphertext. Accepts exactly 32
// bytes (classical) or 32+1088 bytes (hybrid); anything else is
// InvalidInput.
func ParseMemo(memo []byte) (ephemeralPublicKey, mlkemCiphertext []byte, err error) {
	const op = "stealth.ParseMemo"
	switch len(memo) {
	case 32:
		return memo, nil, nil
	case 32 + primitives.MLKEMCiphertextSize:
		return memo[:32], memo[32:], nil
	default:
		return nil, nil, primitives.NewError(primitives.KindInvalidInput, op, ErrInvalidMemo)
	}
}
