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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshpay-project/meshcore/crypto"
	"github.com/meshpay-project/meshcore/stealth"
)

var (
	keystoreDir      string
	keystoreID       string
	passphraseEnvVar string
	identityHybrid   bool
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage receiver stealth identities",
}

var identityGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new receiver identity and print its meta-address",
	RunE:  runIdentityGenerate,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the meta-address for a stored identity",
	RunE:  runIdentityShow,
}

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored identity ids",
	RunE:  runIdentityList,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityGenerateCmd)
	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identityListCmd)

	// The key-store flags are shared with `pay scan`, which loads the
	// same identity the identity commands manage.
	rootCmd.PersistentFlags().StringVar(&keystoreDir, "keystore", ".meshpay/keys", "directory of the encrypted key store")
	rootCmd.PersistentFlags().StringVar(&keystoreID, "id", "default", "identity id within the key store")
	rootCmd.PersistentFlags().StringVar(&passphraseEnvVar, "passphrase-env", "MESHPAY_PASSPHRASE", "environment variable holding the key store passphrase")

	identityGenerateCmd.Flags().BoolVar(&identityHybrid, "hybrid", false, "include an ML-KEM-768 post-quantum leg")
}

func openKeyStore() (*crypto.FileKeyStore, error) {
	passphrase := os.Getenv(passphraseEnvVar)
	if passphrase == "" {
		return nil, fmt.Errorf("key store passphrase not set: export %s", passphraseEnvVar)
	}
	return crypto.NewFileKeyStore(keystoreDir, []byte(passphrase))
}

func runIdentityGenerate(cmd *cobra.Command, args []string) error {
	store, err := openKeyStore()
	if err != nil {
		return err
	}
	if store.Exists(keystoreID) {
		return fmt.Errorf("identity %q already exists in %s", keystoreID, keystoreDir)
	}

	id, err := stealth.Generate(identityHybrid)
	if err != nil {
		return fmt.Errorf("failed to generate identity: %w", err)
	}

	blob := crypto.IdentityBlob{
		SpendingScalar: id.SpendingScalar,
		ViewingPrivate: id.ViewingKey.PrivateBytes(),
	}
	if id.MLKEM != nil {
		blob.MLKEMPrivate = id.MLKEM.PrivateKeyBytes()
	}
	if err := store.Put(keystoreID, blob); err != nil {
		return fmt.Errorf("failed to store identity: %w", err)
	}

	fmt.Printf("Identity %q written to: %s\n", keystoreID, keystoreDir)
	fmt.Printf("Meta-address: %s\n", id.MetaAddress().Encode())
	return nil
}

func runIdentityShow(cmd *cobra.Command, args []string) error {
	id, err := loadIdentity()
	if err != nil {
		return err
	}
	fmt.Println(id.MetaAddress().Encode())
	return nil
}

func runIdentityList(cmd *cobra.Command, args []string) error {
	store, err := openKeyStore()
	if err != nil {
		return err
	}
	ids, err := store.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func loadIdentity() (*stealth.Identity, error) {
	store, err := openKeyStore()
	if err != nil {
		return nil, err
	}
	blob, err := store.Get(keystoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity %q: %w", keystoreID, err)
	}
	return stealth.Restore(blob.SpendingScalar, blob.ViewingPrivate, blob.MLKEMPrivate)
}
