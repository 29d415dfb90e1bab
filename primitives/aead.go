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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// AEADKeySize, AEADNonceSize and AEADTagSize are the fixed AES-256-GCM
// sizes this module standardizes on for every encrypted payload: ratchet
// message ciphertexts and key-store blobs alike.
const (
	AEADKeySize   = 32
	AEADNonceSize = 12
	AEADTagSize   = 16
)

// SealAESGCM encrypts plaintext under key (32 bytes) with a fresh random
// 12-byte nonce, authenticating aad, and returns nonce||ciphertext||tag.
func SealAESGCM(key, aad, plaintext []byte) ([]byte, error) {
	const op = "primitives.SealAESGCM"
	gcm, err := newGCM(key)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	nonce := make([]byte, AEADNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// OpenAESGCM decrypts a nonce||ciphertext||tag blob produced by
// SealAESGCM, verifying aad, and returns the plaintext.
func OpenAESGCM(key, aad, sealed []byte) ([]byte, error) {
	const op = "primitives.OpenAESGCM"
	gcm, err := newGCM(key)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, err)
	}
	if len(sealed) < AEADNonceSize+AEADTagSize {
		return nil, NewError(KindInvalidInput, op, ErrWrongLength)
	}
	nonce, ct := sealed[:AEADNonceSize], sealed[AEADNonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, NewError(KindCryptoFailure, op, ErrInvalidCiphertext)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AEADKeySize {
		return nil, ErrWrongLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, AEADNonceSize)
	if err != nil {
		return nil, err
	}
	if gcm.Overhead() != AEADTagSize {
		return nil, ErrInvalidCiphertext
	}
	return gcm, nil
}
