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

package crypto

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"

	"github.com/meshpay-project/meshcore/primitives"
)

const (
	blobExt      = ".blob"
	saltFileName = "salt"
	saltSize     = 16
)

// scrypt parameters for deriving the store key from a passphrase.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// FileKeyStore is a passphrase-encrypted on-disk KeyStore: each blob is
// sealed with AES-256-GCM under a scrypt-derived key and written via a
// temp-file rename, so Put is an atomic replace. It stands in for the
// device-bound store on platforms without a hardware keychain.
type FileKeyStore struct {
	mu  sync.Mutex
	dir string
	key []byte
}

// NewFileKeyStore opens (or initializes) an encrypted store rooted at
// dir. The first open writes a random scrypt salt next to the blobs;
// later opens must present a passphrase that derives the same key, or
// every Get will fail its AEAD check.
func NewFileKeyStore(dir string, passphrase []byte) (*FileKeyStore, error) {
	const op = "crypto.NewFileKeyStore"
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%s: empty passphrase", op)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	salt, err := loadOrCreateSalt(filepath.Join(dir, saltFileName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, primitives.AEADKeySize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &FileKeyStore{dir: dir, key: key}, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltSize {
			return nil, fmt.Errorf("corrupt salt file %s", path)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	salt, err = primitives.RandomBytes(saltSize)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *FileKeyStore) blobPath(id string) string {
	return filepath.Join(s.dir, id+blobExt)
}

// Put seals blob under the store key, binding the ciphertext to id via
// the AEAD's associated data, and atomically replaces any previous
// blob file.
func (s *FileKeyStore) Put(id string, blob IdentityBlob) error {
	const op = "crypto.FileKeyStore.Put"
	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sealed, err := primitives.SealAESGCM(s.key, []byte(id), plaintext)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(s.dir, id+".tmp-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, s.blobPath(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileKeyStore) Get(id string) (IdentityBlob, error) {
	const op = "crypto.FileKeyStore.Get"
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(s.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return IdentityBlob{}, ErrKeyNotFound
		}
		return IdentityBlob{}, fmt.Errorf("%s: %w", op, err)
	}

	plaintext, err := primitives.OpenAESGCM(s.key, []byte(id), sealed)
	if err != nil {
		return IdentityBlob{}, fmt.Errorf("%s: %w", op, err)
	}

	var blob IdentityBlob
	if err := json.Unmarshal(plaintext, &blob); err != nil {
		return IdentityBlob{}, fmt.Errorf("%s: %w", op, err)
	}
	return blob, nil
}

func (s *FileKeyStore) Delete(id string) error {
	const op = "crypto.FileKeyStore.Delete"
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.blobPath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileKeyStore) List() ([]string, error) {
	const op = "crypto.FileKeyStore.List"
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, blobExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileKeyStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.blobPath(id))
	return err == nil
}
