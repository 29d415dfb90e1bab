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
	"strings"
)

// SubstituteEnvVars expands ${VAR} and ${VAR:default} references in
// input from the process environment. An unset or empty variable
// expands to its default, or to the empty string when none is given.
// Only the braced form is recognized; a bare $ passes through
// untouched, so values like passphrases are safe to carry.
func SubstituteEnvVars(input string) string {
	var b strings.Builder
	for {
		start := strings.Index(input, "${")
		if start < 0 {
			break
		}
		end := strings.Index(input[start:], "}")
		if end < 0 {
			break
		}

		b.WriteString(input[:start])
		ref := input[start+2 : start+end]
		name, fallback, _ := strings.Cut(ref, ":")
		if value := os.Getenv(name); value != "" {
			b.WriteString(value)
		} else {
			b.WriteString(fallback)
		}
		input = input[start+end+1:]
	}
	b.WriteString(input)
	return b.String()
}

// SubstituteEnvVarsInConfig expands environment references in every
// string field an operator plausibly parameterizes per deployment.
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Node != nil {
		cfg.Node.PeerID = SubstituteEnvVars(cfg.Node.PeerID)
		cfg.Node.ListenURL = SubstituteEnvVars(cfg.Node.ListenURL)
	}

	if cfg.Ledger != nil {
		cfg.Ledger.Cluster = SubstituteEnvVars(cfg.Ledger.Cluster)
		cfg.Ledger.TokenMint = SubstituteEnvVars(cfg.Ledger.TokenMint)
	}

	if cfg.KeyStore != nil {
		cfg.KeyStore.Type = SubstituteEnvVars(cfg.KeyStore.Type)
		cfg.KeyStore.Directory = SubstituteEnvVars(cfg.KeyStore.Directory)
		cfg.KeyStore.PassphraseEnv = SubstituteEnvVars(cfg.KeyStore.PassphraseEnv)
	}

	if cfg.Logging != nil {
		cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
		cfg.Logging.Format = SubstituteEnvVars(cfg.Logging.Format)
		cfg.Logging.Output = SubstituteEnvVars(cfg.Logging.Output)
		cfg.Logging.FilePath = SubstituteEnvVars(cfg.Logging.FilePath)
	}
}

// GetEnvironment returns the deployment environment, lowercased, from
// MESHPAY_ENV or ENVIRONMENT, defaulting to development.
func GetEnvironment() string {
	for _, key := range []string{"MESHPAY_ENV", "ENVIRONMENT"} {
		if env := os.Getenv(key); env != "" {
			return strings.ToLower(env)
		}
	}
	return "development"
}

// IsProduction reports whether the node runs in production.
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment reports whether the node runs in a development or
// local environment.
func IsDevelopment() bool {
	switch GetEnvironment() {
	case "development", "local":
		return true
	}
	return false
}
