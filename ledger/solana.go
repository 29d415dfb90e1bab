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

// Package ledger converts a recovered stealth destination into the
// Solana-compatible wire types an external settlement layer needs: the
// destination's solana.PublicKey and the memo instruction carrying the
// ephemeral public key (and, for a hybrid meta-address, the ML-KEM
// ciphertext) a scanner needs to detect the payment. It never builds a
// full transaction or submits anything over RPC; that is an external
// collaborator's concern.
package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/meshpay-project/meshcore/primitives"
	"github.com/meshpay-project/meshcore/stealth"
)

// memoProgramID is the well-known SPL Memo program address.
var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxXnY24MKb6XKG6pQ")

// ClusterEndpoints maps the cluster names config.LedgerConfig.Cluster
// accepts to their public RPC endpoints. These are read-only lookups;
// nothing in this package dials out to them, since the module never
// submits a transaction.
var ClusterEndpoints = map[string]string{
	"mainnet-beta": "https://api.mainnet-beta.solana.com",
	"devnet":       "https://api.devnet.solana.com",
	"testnet":      "https://api.testnet.solana.com",
	"localnet":     "http://127.0.0.1:8899",
}

// Destination converts a stealth.Output's 32-byte ed25519 point into a
// solana.PublicKey so an external settlement layer can address a
// transfer at it.
func Destination(out *stealth.Output) (solana.PublicKey, error) {
	const op = "ledger.Destination"
	if len(out.StealthPublicKey) != 32 {
		return solana.PublicKey{}, primitives.NewError(primitives.KindInvalidInput, op,
			fmt.Errorf("stealth public key must be 32 bytes, got %d", len(out.StealthPublicKey)))
	}
	return solana.PublicKeyFromBytes(out.StealthPublicKey), nil
}

// BuildMemo lays out the bytes a scanner recovers via stealth.ParseMemo:
// the 32-byte ephemeral X25519 public key, followed by the ML-KEM
// ciphertext when out is a hybrid payment.
func BuildMemo(out *stealth.Output) []byte {
	if len(out.MLKEMCiphertext) == 0 {
		return out.EphemeralPublicKey
	}
	memo := make([]byte, 0, len(out.EphemeralPublicKey)+len(out.MLKEMCiphertext))
	memo = append(memo, out.EphemeralPublicKey...)
	memo = append(memo, out.MLKEMCiphertext...)
	return memo
}

// MemoInstruction builds the SPL Memo instruction carrying out's memo
// bytes, signed by payer. The caller is responsible for assembling this
// alongside a transfer instruction into a transaction and getting it
// signed and submitted by whatever component owns the fee payer's
// key; this package only shapes the instruction.
func MemoInstruction(out *stealth.Output, payer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		memoProgramID,
		solana.AccountMetaSlice{
			{PublicKey: payer, IsWritable: false, IsSigner: true},
		},
		BuildMemo(out),
	)
}

// Endpoint returns the public RPC endpoint for a configured cluster
// name, or the devnet endpoint if cluster is unrecognized.
func Endpoint(cluster string) string {
	if endpoint, ok := ClusterEndpoints[cluster]; ok {
		return endpoint
	}
	return ClusterEndpoints["devnet"]
}
