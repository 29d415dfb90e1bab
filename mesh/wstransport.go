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

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSTransportConfig configures the loopback WebSocket stand-in for
// the BLE/mesh radio.
type WSTransportConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
}

// DefaultWSTransportConfig returns sane defaults for local testing.
func DefaultWSTransportConfig() WSTransportConfig {
	return WSTransportConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     20 * time.Second,
	}
}

// WSTransport implements Transport over per-peer WebSocket connections.
// It is one concrete transport satisfying the mesh.Transport contract;
// production deployments plug in a BLE/mesh radio binding instead.
type WSTransport struct {
	cfg      WSTransportConfig
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*websocket.Conn

	onFrame      func(peerID string, frame []byte)
	onObserved   func(peerID string, rssi int, localName string, caps *Capabilities)
	onDisconnect func(peerID string)
}

// NewWSTransport creates an empty transport ready to accept or dial
// peer connections.
func NewWSTransport(cfg WSTransportConfig) *WSTransport {
	return &WSTransport{
		cfg:   cfg,
		conns: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades an inbound connection and registers it under
// peerID, the identity the mesh layer's discovery step already
// assigned it.
func (t *WSTransport) ServeHTTP(peerID string, w http.ResponseWriter, r *http.Request) error {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("mesh.WSTransport: upgrade: %w", err)
	}
	t.adopt(peerID, conn)
	return nil
}

// Dial opens an outbound connection to a peer's WebSocket endpoint.
func (t *WSTransport) Dial(peerID, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("mesh.WSTransport: dial %s: %w", peerID, err)
	}
	t.adopt(peerID, conn)
	return nil
}

func (t *WSTransport) adopt(peerID string, conn *websocket.Conn) {
	t.mu.Lock()
	t.conns[peerID] = conn
	t.mu.Unlock()

	if cb := t.onObserved; cb != nil {
		cb(peerID, 0, "", nil)
	}
	go t.readLoop(peerID, conn)
}

func (t *WSTransport) readLoop(peerID string, conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		if t.conns[peerID] == conn {
			delete(t.conns, peerID)
		}
		t.mu.Unlock()
		conn.Close()
		if cb := t.onDisconnect; cb != nil {
			cb(peerID)
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(frame) > MaxEnvelopeSize {
			continue
		}
		if cb := t.onFrame; cb != nil {
			cb(peerID, frame)
		}
	}
}

// Broadcast sends frame to every connected peer, rejecting oversized
// frames before touching the network.
func (t *WSTransport) Broadcast(frame []byte) error {
	if len(frame) > MaxEnvelopeSize {
		return ErrPayloadTooLarge
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for peerID, conn := range t.conns {
		conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("mesh.WSTransport: broadcast to %s: %w", peerID, err)
		}
	}
	return nil
}

// SendTo unicasts frame to a single peer.
func (t *WSTransport) SendTo(peerID string, frame []byte) error {
	if len(frame) > MaxEnvelopeSize {
		return ErrPayloadTooLarge
	}
	t.mu.RLock()
	conn, ok := t.conns[peerID]
	t.mu.RUnlock()
	if !ok {
		return ErrPeerNotFound
	}
	conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("mesh.WSTransport: send to %s: %w", peerID, err)
	}
	return nil
}

// OnFrame registers the inbound-frame callback.
func (t *WSTransport) OnFrame(fn func(peerID string, frame []byte)) { t.onFrame = fn }

// OnPeerObserved registers the peer-discovery callback.
func (t *WSTransport) OnPeerObserved(fn func(peerID string, rssi int, localName string, caps *Capabilities)) {
	t.onObserved = fn
}

// OnPeerDisconnected registers the peer-disconnection callback.
func (t *WSTransport) OnPeerDisconnected(fn func(peerID string)) { t.onDisconnect = fn }

// Close closes every open connection.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, conn := range t.conns {
		conn.Close()
		delete(t.conns, id)
	}
	return nil
}
