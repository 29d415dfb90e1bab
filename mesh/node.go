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
	"container/list"
	"sync"
	"time"
)

// ConnectionState is a peer's link state.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnecting ConnectionState = "disconnecting"
)

// Capabilities describes what a peer's mesh stack supports.
type Capabilities struct {
	SupportsHybrid    bool `json:"supportsHybrid"`
	CanRelay          bool `json:"canRelay"`
	HasConnectivity   bool `json:"hasConnectivity"`
	MaxMessageSize    int  `json:"maxMessageSize"`
	ProtocolVersion   int  `json:"protocolVersion"`
}

// Peer is a discovered mesh participant.
type Peer struct {
	ID              string
	Name            string
	RSSI            int
	Capabilities    Capabilities
	DiscoveredAt    time.Time
	LastSeenAt      time.Time
	ConnectionState ConnectionState
}

// ProcessResult is the outcome of dispatching one incoming envelope
// through Node.ProcessIncoming.
type ProcessResult struct {
	Kind       ProcessResultKind
	Relay      *Envelope // set iff Kind == ProcessResultRelay
	StealthTx  *StealthPayload
}

// ProcessResultKind enumerates the envelope-processing outcomes.
type ProcessResultKind string

const (
	ProcessResultProcessed ProcessResultKind = "processed"
	ProcessResultRelay     ProcessResultKind = "relay"
	ProcessResultDuplicate ProcessResultKind = "duplicate"
	ProcessResultExpired   ProcessResultKind = "expired"
	ProcessResultInvalid   ProcessResultKind = "invalid"
)

// Dedup eviction is a time-ordered FIFO (oldest inserted evicted
// first) rather than an arbitrary map-iteration delete, so replay
// protection degrades predictably under load.
const (
	dedupCapacity      = 1000
	dedupEvictFraction = 0.10
	pendingCapacity    = 100
)

// Node owns the mesh's single-writer state: the peer table, the
// bounded dedup set, and the pending-delivery queue. Every exported
// mutator acquires mu; the node has no background goroutine of its
// own beyond what Relay separately owns.
type Node struct {
	mu sync.Mutex

	peers map[string]*Peer

	dedupSet   map[string]*list.Element
	dedupOrder *list.List // oldest at Front, newest at Back

	pending []*Envelope

	receivedCount uint64
	invalidCount  uint64

	onStealthPayment func(*StealthPayload, *Envelope)
	onEnvelope       map[MessageType]func(*Envelope)
}

// NewNode creates an empty mesh node.
func NewNode() *Node {
	return &Node{
		peers:      make(map[string]*Peer),
		dedupSet:   make(map[string]*list.Element),
		dedupOrder: list.New(),
		onEnvelope: make(map[MessageType]func(*Envelope)),
	}
}

// OnStealthPayment registers the single subscriber invoked whenever a
// decoded stealth payment payload is processed. The mesh has no
// global event bus; handlers register explicitly per concern.
func (n *Node) OnStealthPayment(fn func(*StealthPayload, *Envelope)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onStealthPayment = fn
}

// OnEnvelope registers the handler for one non-payment message type
// (meta-address exchange, chat control, chat messages). One handler
// per type; registering again replaces the previous handler.
func (n *Node) OnEnvelope(t MessageType, fn func(*Envelope)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onEnvelope[t] = fn
}

// AddPeer inserts or replaces a peer record.
func (n *Node) AddPeer(p *Peer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[p.ID] = p
}

// UpdatePeer mutates an existing peer's RSSI/last-seen/state via fn. A
// no-op if the peer is unknown.
func (n *Node) UpdatePeer(id string, fn func(*Peer)) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.peers[id]
	if !ok {
		return false
	}
	fn(p)
	return true
}

// RemovePeer deletes a peer record.
func (n *Node) RemovePeer(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.peers, id)
}

// GetPeer returns a value copy of the peer record, or false if unknown.
func (n *Node) GetPeer(id string) (Peer, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.peers[id]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

// ConnectedPeers returns a value-copy snapshot of every peer
// currently in the connected state; cross-owner reads never share the
// live records.
func (n *Node) ConnectedPeers() []Peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Peer, 0, len(n.peers))
	for _, p := range n.peers {
		if p.ConnectionState == ConnectionConnected {
			out = append(out, *p)
		}
	}
	return out
}

// PruneStale removes every peer whose LastSeenAt is older than timeout,
// returning the removed peer ids.
func (n *Node) PruneStale(timeout time.Duration) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := time.Now()
	var removed []string
	for id, p := range n.peers {
		if now.Sub(p.LastSeenAt) > timeout {
			delete(n.peers, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// ProcessIncoming runs the envelope dispatch algorithm:
//  1. dedup check
//  2. expiry check (maxAge, default 3600s)
//  3. insert into dedup set, bump received counter
//  4. dispatch by type; stealth payments decode and publish, all other
//     types are not relayed, and payment envelopes produce a forwarded
//     copy when TTL allows.
func (n *Node) ProcessIncoming(env *Envelope, maxAge time.Duration) ProcessResult {
	if maxAge <= 0 {
		maxAge = 3600 * time.Second
	}

	// A TTL of zero can only come off the wire malformed; it must not
	// enter the dedup set, or a later well-formed copy of the same id
	// would be dropped as a duplicate.
	if env.TTL == 0 {
		n.mu.Lock()
		n.invalidCount++
		n.mu.Unlock()
		return ProcessResult{Kind: ProcessResultInvalid}
	}

	n.mu.Lock()
	if _, dup := n.dedupSet[env.ID]; dup {
		n.mu.Unlock()
		return ProcessResult{Kind: ProcessResultDuplicate}
	}
	if time.Since(env.CreatedAt) > maxAge {
		n.mu.Unlock()
		return ProcessResult{Kind: ProcessResultExpired}
	}
	n.insertDedupLocked(env.ID)
	n.receivedCount++
	n.mu.Unlock()

	if env.Type != MessageTypeStealthPayment {
		n.mu.Lock()
		handler := n.onEnvelope[env.Type]
		n.mu.Unlock()
		if handler != nil {
			handler(env)
		}
		return ProcessResult{Kind: ProcessResultProcessed}
	}

	payload, err := DecodeStealthPayload(env.Payload)
	if err != nil {
		n.mu.Lock()
		n.invalidCount++
		n.mu.Unlock()
		return ProcessResult{Kind: ProcessResultInvalid}
	}

	n.mu.Lock()
	cb := n.onStealthPayment
	n.mu.Unlock()
	if cb != nil {
		cb(payload, env)
	}

	if fwd := env.Forwarded(); fwd != nil {
		return ProcessResult{Kind: ProcessResultRelay, Relay: fwd, StealthTx: payload}
	}
	return ProcessResult{Kind: ProcessResultProcessed, StealthTx: payload}
}

// insertDedupLocked inserts id into the dedup set, evicting the oldest
// ~10% of entries once the set reaches capacity. mu must be held.
func (n *Node) insertDedupLocked(id string) {
	if n.dedupOrder.Len() >= dedupCapacity {
		evict := int(float64(dedupCapacity) * dedupEvictFraction)
		if evict < 1 {
			evict = 1
		}
		for i := 0; i < evict && n.dedupOrder.Len() > 0; i++ {
			front := n.dedupOrder.Front()
			oldest := front.Value.(string)
			n.dedupOrder.Remove(front)
			delete(n.dedupSet, oldest)
		}
	}
	elem := n.dedupOrder.PushBack(id)
	n.dedupSet[id] = elem
}

// EnqueuePending appends env to the pending-delivery queue, dropping
// the oldest entry if the queue is already at capacity.
func (n *Node) EnqueuePending(env *Envelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.pending) >= pendingCapacity {
		n.pending = n.pending[1:]
	}
	n.pending = append(n.pending, env)
}

// DrainPending removes and returns every currently pending envelope.
func (n *Node) DrainPending() []*Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

// Stats returns a snapshot of the node's received/invalid counters.
func (n *Node) Stats() (received, invalid uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receivedCount, n.invalidCount
}
