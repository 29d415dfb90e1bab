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

// Package config loads the YAML/env configuration surface for a mesh
// node: identity/keystore location, mesh relay knobs, ratchet and chat
// session timeouts, and the optional Solana ledger settle-out target.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a meshpay node.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Node        *NodeConfig     `yaml:"node" json:"node"`
	Mesh        *MeshConfig     `yaml:"mesh" json:"mesh"`
	Chat        *ChatConfig     `yaml:"chat" json:"chat"`
	Ledger      *LedgerConfig   `yaml:"ledger" json:"ledger"`
	KeyStore    *KeyStoreConfig `yaml:"keystore" json:"keystore"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
}

// NodeConfig identifies this node on the mesh.
type NodeConfig struct {
	PeerID    string `yaml:"peer_id" json:"peer_id"`
	ListenURL string `yaml:"listen_url" json:"listen_url"`
}

// MeshConfig holds the payment TTL and the relay message expiry and
// prune interval. setDefaults fills zero values. The mesh package does
// not read this struct: mesh.Node and mesh.Relay take their settings
// from their own constants and constructor arguments.
type MeshConfig struct {
	PaymentTTL    uint8         `yaml:"payment_ttl" json:"payment_ttl"`
	MessageExpiry time.Duration `yaml:"message_expiry" json:"message_expiry"`
	PruneInterval time.Duration `yaml:"prune_interval" json:"prune_interval"`
}

// ChatConfig holds request/idle timeouts. The chat package does not read
// it; chat.RequestExpiry and chat.IdleTimeout are fixed constants.
type ChatConfig struct {
	RequestExpiry time.Duration `yaml:"request_expiry" json:"request_expiry"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// LedgerConfig names the Solana-compatible cluster a stealth payment
// settles against. The ledger package never submits a transaction; a
// cluster name only selects an RPC endpoint through ledger.Endpoint, and
// the address and memo encodings do not depend on it.
type LedgerConfig struct {
	Cluster   string `yaml:"cluster" json:"cluster"` // mainnet-beta, devnet, testnet, localnet
	TokenMint string `yaml:"token_mint,omitempty" json:"token_mint,omitempty"`
}

// KeyStoreConfig selects where long-lived identity keys are stored.
type KeyStoreConfig struct {
	Type          string `yaml:"type" json:"type"` // memory, encrypted-file
	Directory     string `yaml:"directory" json:"directory"`
	PassphraseEnv string `yaml:"passphrase_env" json:"passphrase_env"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing JSON for a ".json"
// extension and YAML otherwise.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills in the zero-value fields every component already
// defaults internally, so a partially-specified config file still
// produces a usable Config.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Node != nil && cfg.Node.ListenURL == "" {
		cfg.Node.ListenURL = "ws://127.0.0.1:7650"
	}

	if cfg.Mesh != nil {
		if cfg.Mesh.PaymentTTL == 0 {
			cfg.Mesh.PaymentTTL = 5
		}
		if cfg.Mesh.MessageExpiry == 0 {
			cfg.Mesh.MessageExpiry = 3600 * time.Second
		}
		if cfg.Mesh.PruneInterval == 0 {
			cfg.Mesh.PruneInterval = 60 * time.Second
		}
	}

	if cfg.Chat != nil {
		if cfg.Chat.RequestExpiry == 0 {
			cfg.Chat.RequestExpiry = 120 * time.Second
		}
		if cfg.Chat.IdleTimeout == 0 {
			cfg.Chat.IdleTimeout = 1800 * time.Second
		}
	}

	if cfg.Ledger != nil && cfg.Ledger.Cluster == "" {
		cfg.Ledger.Cluster = "devnet"
	}

	if cfg.KeyStore != nil {
		if cfg.KeyStore.Type == "" {
			cfg.KeyStore.Type = "memory"
		}
		if cfg.KeyStore.Directory == "" {
			cfg.KeyStore.Directory = ".meshpay/keys"
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}
}
