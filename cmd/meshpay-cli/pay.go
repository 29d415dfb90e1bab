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

package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshpay-project/meshcore/ledger"
	"github.com/meshpay-project/meshcore/stealth"
)

var (
	scanCiphertextB64 string
	scanViewTag       int
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Derive and scan stealth payment destinations",
}

var payDeriveCmd = &cobra.Command{
	Use:   "derive <meta-address>",
	Short: "Derive a one-time stealth destination for a payment to a meta-address",
	Args:  cobra.ExactArgs(1),
	RunE:  runPayDerive,
}

var payScanCmd = &cobra.Command{
	Use:   "scan <stealth-address> <ephemeral-public-key-b64>",
	Short: "Check whether a candidate stealth output belongs to the stored identity",
	Args:  cobra.ExactArgs(2),
	RunE:  runPayScan,
}

func init() {
	rootCmd.AddCommand(payCmd)
	payCmd.AddCommand(payDeriveCmd)
	payCmd.AddCommand(payScanCmd)

	payScanCmd.Flags().StringVar(&scanCiphertextB64, "ciphertext", "", "base64 ML-KEM ciphertext, for a hybrid candidate")
	payScanCmd.Flags().IntVar(&scanViewTag, "view-tag", -1, "candidate's view tag byte (0-255); omit to skip the pre-filter")
}

func runPayDerive(cmd *cobra.Command, args []string) error {
	meta, err := stealth.ParseMetaAddress(args[0])
	if err != nil {
		return fmt.Errorf("invalid meta-address: %w", err)
	}

	out, err := stealth.DeriveAddress(meta)
	if err != nil {
		return fmt.Errorf("failed to derive stealth address: %w", err)
	}

	dest, err := ledger.Destination(out)
	if err != nil {
		return fmt.Errorf("failed to convert to a solana address: %w", err)
	}

	fmt.Printf("Stealth address:   %s\n", out.StealthAddress)
	fmt.Printf("Solana address:    %s\n", dest.String())
	fmt.Printf("View tag:          0x%02x\n", out.ViewTag)
	fmt.Printf("Ephemeral pubkey:  %s\n", base64.StdEncoding.EncodeToString(out.EphemeralPublicKey))
	if len(out.MLKEMCiphertext) > 0 {
		fmt.Printf("ML-KEM ciphertext: %s\n", base64.StdEncoding.EncodeToString(out.MLKEMCiphertext))
	}
	fmt.Printf("Memo (hex):        %s\n", hex.EncodeToString(ledger.BuildMemo(out)))
	return nil
}

func runPayScan(cmd *cobra.Command, args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	destinationAddress := args[0]

	ephemeral, err := base64.StdEncoding.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid ephemeral public key: %w", err)
	}

	var ciphertext []byte
	if scanCiphertextB64 != "" {
		ciphertext, err = base64.StdEncoding.DecodeString(scanCiphertextB64)
		if err != nil {
			return fmt.Errorf("invalid ciphertext: %w", err)
		}
	}

	candidate := stealth.Candidate{
		DestinationAddress: destinationAddress,
		EphemeralPublicKey: ephemeral,
		MLKEMCiphertext:    ciphertext,
	}
	if scanViewTag >= 0 {
		tag := byte(scanViewTag)
		candidate.ViewTag = &tag
	}

	payment, err := stealth.Scan(id, candidate)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if payment == nil {
		fmt.Println("no match: this candidate does not belong to the identity")
		return nil
	}

	fmt.Printf("match: %s\n", payment.StealthAddress)
	fmt.Printf("spending private key (base64): %s\n", base64.StdEncoding.EncodeToString(payment.SpendingPrivateKey))
	return nil
}
