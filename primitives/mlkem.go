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
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// ML-KEM-768 wire sizes, per NIST FIPS 203.
const (
	MLKEMPublicKeySize  = 1184
	MLKEMPrivateKeySize = 2400
	MLKEMCiphertextSize = 1088
	MLKEMSharedKeySize  = 32
)

// MLKEMKeyPair is an ML-KEM-768 encapsulation/decapsulation keypair.
// The packed byte forms are captured at construction so serialization
// never fails after the keypair exists.
type MLKEMKeyPair struct {
	pubBytes []byte
	skBytes  []byte
	sk       kem.PrivateKey
}

// GenerateMLKEM creates a fresh ML-KEM-768 keypair.
func GenerateMLKEM() (*MLKEMKeyPair, error) {
	const op = "primitives.GenerateMLKEM"
	pk, sk, err := mlkem768.Scheme().GenerateKeyPair()
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	pubBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return &MLKEMKeyPair{pubBytes: pubBytes, skBytes: skBytes, sk: sk}, nil
}

// PublicKeyBytes returns the 1,184-byte packed public key.
func (kp *MLKEMKeyPair) PublicKeyBytes() []byte {
	return append([]byte(nil), kp.pubBytes...)
}

// PrivateKeyBytes returns the packed private key, the integrity-checked
// representation the persistence boundary stores (unlike the raw public
// key bytes, unpacking it validates the embedded key structure).
func (kp *MLKEMKeyPair) PrivateKeyBytes() []byte {
	return append([]byte(nil), kp.skBytes...)
}

// ParseMLKEMPrivateKey restores a keypair from its packed private key,
// failing with CryptoFailure if the representation does not validate.
func ParseMLKEMPrivateKey(data []byte) (*MLKEMKeyPair, error) {
	const op = "primitives.ParseMLKEMPrivateKey"
	if len(data) != MLKEMPrivateKeySize {
		return nil, NewError(KindInvalidInput, op, ErrWrongLength)
	}
	sk, err := mlkem768.Scheme().UnmarshalBinaryPrivateKey(data)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	pubBytes, err := sk.Public().MarshalBinary()
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return &MLKEMKeyPair{
		pubBytes: pubBytes,
		skBytes:  append([]byte(nil), data...),
		sk:       sk,
	}, nil
}

// ParseMLKEMPublicKey validates and parses a raw 1,184-byte public key.
func ParseMLKEMPublicKey(data []byte) (kem.PublicKey, error) {
	const op = "primitives.ParseMLKEMPublicKey"
	if len(data) != MLKEMPublicKeySize {
		return nil, NewError(KindInvalidInput, op, ErrWrongLength)
	}
	pk, err := mlkem768.Scheme().UnmarshalBinaryPublicKey(data)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return pk, nil
}

// MLKEMEncapsulate encapsulates against a raw public key, returning the
// 1,088-byte ciphertext and 32-byte shared secret.
func MLKEMEncapsulate(pubKey []byte) (ciphertext, sharedSecret []byte, err error) {
	const op = "primitives.MLKEMEncapsulate"
	pk, err := ParseMLKEMPublicKey(pubKey)
	if err != nil {
		return nil, nil, err
	}
	ct, ss, err := mlkem768.Scheme().Encapsulate(pk)
	if err != nil {
		return nil, nil, NewError(KindCryptoFailure, op, err)
	}
	return ct, ss, nil
}

// Decapsulate recovers the 32-byte shared secret for a given ciphertext.
func (kp *MLKEMKeyPair) Decapsulate(ciphertext []byte) ([]byte, error) {
	const op = "primitives.MLKEMKeyPair.Decapsulate"
	if kp.sk == nil {
		return nil, NewError(KindCryptoFailure, op, ErrNoPostQuantumKey)
	}
	if len(ciphertext) != MLKEMCiphertextSize {
		return nil, NewError(KindInvalidInput, op, fmt.Errorf("%w: ciphertext", ErrWrongLength))
	}
	ss, err := mlkem768.Scheme().Decapsulate(kp.sk, ciphertext)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	return ss, nil
}
