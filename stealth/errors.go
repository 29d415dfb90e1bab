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

package stealth

import "errors"

var (
	// ErrInvalidMetaAddress is returned when a decoded buffer matches
	// neither the classical (64-byte) nor hybrid (1,248-byte) length.
	ErrInvalidMetaAddress = errors.New("invalid meta-address length")
	// ErrNoPostQuantumIdentity is returned when a hybrid operation is
	// requested on an identity with no ML-KEM key pair.
	ErrNoPostQuantumIdentity = errors.New("identity has no post-quantum key pair")
	// ErrInvalidMemo is returned when a stealth memo length matches
	// neither the classical (32-byte) nor hybrid (1,120-byte) form.
	ErrInvalidMemo = errors.New("invalid stealth memo length")
	// ErrStealthAddressMismatch names the case of a candidate that does
	// not belong to the scanning identity. Scan and ScanBatch do not
	// return it: they report that case as a nil payment and a nil error.
	ErrStealthAddressMismatch = errors.New("stealth address does not match identity")
)
