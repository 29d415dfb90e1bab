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

// Package stealth implements the stealth-address protocol: meta-address
// encoding, one-time address derivation, and receiver-side scanning,
// over ed25519/X25519 with an optional ML-KEM-768 hybrid leg.
package stealth

import (
	"github.com/mr-tron/base58"

	"github.com/meshpay-project/meshcore/primitives"
)

// Byte lengths of an encoded meta-address, used to discriminate
// classical from hybrid on decode.
const (
	ClassicalMetaAddressSize = 64   // M (32) || V (32)
	HybridMetaAddressSize    = 1248 // M (32) || V (32) || k_pk (1184)
)

// MetaAddress is a receiver's long-term public identity.
type MetaAddress struct {
	SpendingPublicKey []byte // M, 32-byte ed25519 point
	ViewingPublicKey  []byte // V, 32-byte X25519 point
	MLKEMPublicKey    []byte // k_pk, 1184 bytes, nil unless hybrid
}

// IsHybrid reports whether the meta-address carries a post-quantum leg.
func (a *MetaAddress) IsHybrid() bool { return a.MLKEMPublicKey != nil }

// Encode returns the base58 encoding of the meta-address.
func (a *MetaAddress) Encode() string {
	buf := make([]byte, 0, HybridMetaAddressSize)
	buf = append(buf, a.SpendingPublicKey...)
	buf = append(buf, a.ViewingPublicKey...)
	if a.IsHybrid() {
		buf = append(buf, a.MLKEMPublicKey...)
	}
	return base58.Encode(buf)
}

// ParseMetaAddress decodes a base58 meta-address, validating curve
// membership of M and, for hybrid addresses, the ML-KEM public-key
// representation. Any length other than 64 or 1,248 bytes fails with
// InvalidInput.
func ParseMetaAddress(encoded string) (*MetaAddress, error) {
	const op = "stealth.ParseMetaAddress"
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, primitives.NewError(primitives.KindInvalidInput, op, err)
	}
	return ParseMetaAddressBytes(raw)
}

// ParseMetaAddressBytes decodes a raw meta-address buffer of exactly 64
// (classical) or 1,248 (hybrid) bytes.
func ParseMetaAddressBytes(raw []byte) (*MetaAddress, error) {
	const op = "stealth.ParseMetaAddressBytes"
	switch len(raw) {
	case ClassicalMetaAddressSize:
		M, V := raw[:32], raw[32:64]
		if !primitives.IsOnCurve(M) {
			return nil, primitives.NewError(primitives.KindInvalidInput, op, primitives.ErrNotOnCurve)
		}
		return &MetaAddress{SpendingPublicKey: M, ViewingPublicKey: V}, nil
	case HybridMetaAddressSize:
		M, V, kpk := raw[:32], raw[32:64], raw[64:]
		if !primitives.IsOnCurve(M) {
			return nil, primitives.NewError(primitives.KindInvalidInput, op, primitives.ErrNotOnCurve)
		}
		if _, err := primitives.ParseMLKEMPublicKey(kpk); err != nil {
			return nil, primitives.NewError(primitives.KindInvalidInput, op, err)
		}
		return &MetaAddress{SpendingPublicKey: M, ViewingPublicKey: V, MLKEMPublicKey: kpk}, nil
	default:
		return nil, primitives.NewError(primitives.KindInvalidInput, op, ErrInvalidMetaAddress)
	}
}
