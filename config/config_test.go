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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `environment: staging
node:
  peer_id: "peer-1"
  listen_url: "ws://127.0.0.1:7777"
mesh:
  payment_ttl: 7
ledger:
  cluster: "testnet"
keystore:
  type: "memory"
logging:
  level: "debug"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "peer-1", cfg.Node.PeerID)
	assert.Equal(t, "ws://127.0.0.1:7777", cfg.Node.ListenURL)
	assert.Equal(t, uint8(7), cfg.Mesh.PaymentTTL)
	assert.Equal(t, "testnet", cfg.Ledger.Cluster)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{
		Node:     &NodeConfig{},
		Mesh:     &MeshConfig{},
		Chat:     &ChatConfig{},
		Ledger:   &LedgerConfig{},
		KeyStore: &KeyStoreConfig{},
		Logging:  &LoggingConfig{},
	}

	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, uint8(5), cfg.Mesh.PaymentTTL)
	assert.Equal(t, "devnet", cfg.Ledger.Cluster)
	assert.Equal(t, "memory", cfg.KeyStore.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveAndReloadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.json")

	cfg := &Config{
		Environment: "production",
		Node:        &NodeConfig{PeerID: "peer-x", ListenURL: "ws://host:1"},
	}
	require.NoError(t, SaveToFile(cfg, path))

	reloaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", reloaded.Environment)
	assert.Equal(t, "peer-x", reloaded.Node.PeerID)
}
