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
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256ConcatenatesParts(t *testing.T) {
	want := sha256.Sum256([]byte("hello world"))
	require.Equal(t, want[:], Sha256([]byte("hello "), []byte("world")))
}

func TestSha512ConcatenatesParts(t *testing.T) {
	want := sha512.Sum512([]byte("hello world"))
	require.Equal(t, want[:], Sha512([]byte("hello "), []byte("world")))
	require.Len(t, Sha512(nil), sha512.Size)
}

func TestHKDFSHA256IsDeterministic(t *testing.T) {
	ikm := []byte("input keying material")
	salt := []byte("salt")
	info := []byte("info")

	a, err := HKDFSHA256(ikm, salt, info, 96)
	require.NoError(t, err)
	require.Len(t, a, 96)

	b, err := HKDFSHA256(ikm, salt, info, 96)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := HKDFSHA256(ikm, salt, []byte("other info"), 96)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestHMACSHA256DomainSeparation(t *testing.T) {
	chain := []byte("chain key material, 32 bytes....")
	messageKey := HMACSHA256(chain, []byte{0x01})
	nextChain := HMACSHA256(chain, []byte{0x02})

	require.Len(t, messageKey, sha256.Size)
	require.NotEqual(t, messageKey, nextChain)
}
