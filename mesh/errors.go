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

// Package mesh implements the store-and-forward message layer: typed
// envelopes, per-node peer/dedup bookkeeping, and a relay that queues
// and retries undelivered messages.
package mesh

import "errors"

var (
	ErrPayloadTooLarge        = errors.New("encoded envelope exceeds maximum size")
	ErrTTLOutOfRange          = errors.New("ttl out of range")
	ErrPeerNotFound           = errors.New("peer not found")
	ErrUnknownMessage         = errors.New("unknown message type")
	ErrProtocolMismatch       = errors.New("pre-signed transaction presence does not match protocol version")
	ErrUnknownProtocolVersion = errors.New("unknown stealth payload protocol version")
	ErrInvalidEnvelope        = errors.New("envelope signature invalid or missing")
)
