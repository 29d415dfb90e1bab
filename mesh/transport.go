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

package mesh

// Transport is the external framed-byte-channel collaborator. The
// core makes no assumption about the underlying radio; it requires
// exactly these five primitives.
type Transport interface {
	// Broadcast sends frame to every connected peer. Implementations
	// must reject frames over MaxEnvelopeSize with ErrPayloadTooLarge
	// and leave their own state unchanged on failure.
	Broadcast(frame []byte) error
	// SendTo unicasts frame to a single peer.
	SendTo(peerID string, frame []byte) error
	// OnFrame registers the callback invoked for every inbound frame.
	OnFrame(fn func(peerID string, frame []byte))
	// OnPeerObserved registers the callback invoked when a peer is
	// discovered or its advertisement changes.
	OnPeerObserved(fn func(peerID string, rssi int, localName string, caps *Capabilities))
	// OnPeerDisconnected registers the callback invoked when a peer
	// drops off the transport.
	OnPeerDisconnected(fn func(peerID string))
}
