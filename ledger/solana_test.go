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

package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/meshpay-project/meshcore/stealth"
)

func TestDestinationMatchesStealthPublicKey(t *testing.T) {
	id, err := stealth.Generate(false)
	require.NoError(t, err)

	out, err := stealth.DeriveAddress(id.MetaAddress())
	require.NoError(t, err)

	dest, err := Destination(out)
	require.NoError(t, err)
	require.True(t, solana.PublicKeyFromBytes(out.StealthPublicKey).Equals(dest))
}

func TestBuildMemoClassical(t *testing.T) {
	id, err := stealth.Generate(false)
	require.NoError(t, err)

	out, err := stealth.DeriveAddress(id.MetaAddress())
	require.NoError(t, err)

	memo := BuildMemo(out)
	require.Len(t, memo, 32)

	ephemeral, ciphertext, err := stealth.ParseMemo(memo)
	require.NoError(t, err)
	require.Equal(t, out.EphemeralPublicKey, ephemeral)
	require.Empty(t, ciphertext)
}

func TestBuildMemoHybrid(t *testing.T) {
	id, err := stealth.Generate(true)
	require.NoError(t, err)

	out, err := stealth.DeriveAddress(id.MetaAddress())
	require.NoError(t, err)
	require.NotEmpty(t, out.MLKEMCiphertext)

	memo := BuildMemo(out)
	ephemeral, ciphertext, err := stealth.ParseMemo(memo)
	require.NoError(t, err)
	require.Equal(t, out.EphemeralPublicKey, ephemeral)
	require.Equal(t, out.MLKEMCiphertext, ciphertext)
}

func TestMemoInstructionCarriesMemoBytes(t *testing.T) {
	id, err := stealth.Generate(false)
	require.NoError(t, err)

	out, err := stealth.DeriveAddress(id.MetaAddress())
	require.NoError(t, err)

	payer := solana.NewWallet().PublicKey()
	ix := MemoInstruction(out, payer)
	require.Equal(t, memoProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, BuildMemo(out), data)
}

func TestEndpointFallsBackToDevnet(t *testing.T) {
	require.Equal(t, ClusterEndpoints["mainnet-beta"], Endpoint("mainnet-beta"))
	require.Equal(t, ClusterEndpoints["devnet"], Endpoint("unknown-cluster"))
}
