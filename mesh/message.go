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
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meshpay-project/meshcore/crypto"
)

// MessageType enumerates every envelope payload kind the mesh carries.
type MessageType string

const (
	MessageTypeStealthPayment    MessageType = "stealthPayment"
	MessageTypeAcknowledgment    MessageType = "acknowledgment"
	MessageTypeDiscovery         MessageType = "discovery"
	MessageTypeHeartbeat         MessageType = "heartbeat"
	MessageTypeMetaAddrRequest   MessageType = "metaAddressRequest"
	MessageTypeMetaAddrResponse  MessageType = "metaAddressResponse"
	MessageTypeChatRequest       MessageType = "chatRequest"
	MessageTypeChatAccept        MessageType = "chatAccept"
	MessageTypeChatDecline       MessageType = "chatDecline"
	MessageTypeChatMessage       MessageType = "chatMessage"
	MessageTypeChatEnd           MessageType = "chatEnd"
)

// MaxTTL is the hard ceiling on any envelope's hop budget.
const MaxTTL = 10

// MaxEnvelopeSize is the largest a serialized envelope may be; anything
// larger fails with ErrPayloadTooLarge before it ever reaches a
// transport.
const MaxEnvelopeSize = 4096

// DefaultTTL returns the per-type default hop budget:
// stealth payments default to a configurable value (the caller passes
// paymentTTL), acks default to 3, and every discovery/meta/chat control
// message is direct-peer only (TTL 1).
func DefaultTTL(t MessageType, paymentTTL uint8) uint8 {
	switch t {
	case MessageTypeStealthPayment:
		if paymentTTL == 0 {
			return 5
		}
		return paymentTTL
	case MessageTypeAcknowledgment:
		return 3
	default:
		return 1
	}
}

// Envelope is the mesh's self-describing wire record: a
// 128-bit dedup id, a hop-bounded TTL, the originating peer, a creation
// timestamp, an opaque payload, and an optional signature over it.
type Envelope struct {
	ID           string      `json:"id"`
	Type         MessageType `json:"type"`
	TTL          uint8       `json:"ttl"`
	OriginPeerID string      `json:"originPeerId"`
	CreatedAt    time.Time   `json:"createdAt"`
	Payload      []byte      `json:"payload"`
	Signature    []byte      `json:"signature,omitempty"`
}

// NewEnvelope builds an envelope with a fresh UUID id and the supplied
// TTL, failing if ttl exceeds MaxTTL.
func NewEnvelope(t MessageType, originPeerID string, ttl uint8, payload []byte) (*Envelope, error) {
	const op = "mesh.NewEnvelope"
	if ttl > MaxTTL {
		return nil, fmt.Errorf("%s: %w: %d > %d", op, ErrTTLOutOfRange, ttl, MaxTTL)
	}
	return &Envelope{
		ID:           uuid.NewString(),
		Type:         t,
		TTL:          ttl,
		OriginPeerID: originPeerID,
		CreatedAt:    time.Now().UTC(),
		Payload:      payload,
	}, nil
}

// Forwarded returns a copy of e with TTL decremented by one, or nil if
// ttl<=1 (the envelope must not travel further). The id, origin, and
// payload are unchanged so that the dedup key is preserved along every
// relay hop.
func (e *Envelope) Forwarded() *Envelope {
	if e.TTL <= 1 {
		return nil
	}
	cp := *e
	cp.TTL--
	return &cp
}

// Encode serializes the envelope to its stable JSON wire form, failing
// with ErrPayloadTooLarge if the result exceeds MaxEnvelopeSize.
func (e *Envelope) Encode() ([]byte, error) {
	const op = "mesh.Envelope.Encode"
	buf, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(buf) > MaxEnvelopeSize {
		return nil, fmt.Errorf("%s: %w: %d > %d", op, ErrPayloadTooLarge, len(buf), MaxEnvelopeSize)
	}
	return buf, nil
}

// signingBytes returns the canonical byte sequence an envelope's
// signature covers: every field except Signature itself, so a relayed
// envelope's decremented TTL invalidates the origin's signature (relays
// are not expected to re-sign; the origin's signature authenticates
// the envelope it created, not every hop's TTL).
func (e *Envelope) signingBytes() []byte {
	var ttl [1]byte
	ttl[0] = e.TTL
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(e.CreatedAt.UnixNano()))

	buf := make([]byte, 0, len(e.ID)+1+1+len(e.Type)+len(e.OriginPeerID)+8+len(e.Payload))
	buf = append(buf, e.ID...)
	buf = append(buf, ttl[:]...)
	buf = append(buf, e.Type...)
	buf = append(buf, e.OriginPeerID...)
	buf = append(buf, ts[:]...)
	buf = append(buf, e.Payload...)
	return buf
}

// Sign signs the envelope's origin-authenticated fields with the
// node's identity and sets Signature. Relays that decrement TTL do not
// re-sign; a verifier MUST check the signature before the TTL
// decrement, not after, which is why signingBytes covers the TTL value
// the signer saw.
func (e *Envelope) Sign(id *crypto.NodeIdentity) {
	e.Signature = id.Sign(e.signingBytes())
}

// VerifySignature checks e.Signature against originPub, the signing
// public key of OriginPeerID. Fails if no signature is present.
func (e *Envelope) VerifySignature(originPub ed25519.PublicKey) error {
	const op = "mesh.Envelope.VerifySignature"
	if len(e.Signature) == 0 {
		return fmt.Errorf("%s: %w: envelope carries no signature", op, ErrInvalidEnvelope)
	}
	if err := crypto.Verify(originPub, e.signingBytes(), e.Signature); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidEnvelope)
	}
	return nil
}

// DecodeEnvelope parses the wire form produced by Encode.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	const op = "mesh.DecodeEnvelope"
	if len(data) > MaxEnvelopeSize {
		return nil, fmt.Errorf("%s: %w: %d > %d", op, ErrPayloadTooLarge, len(data), MaxEnvelopeSize)
	}
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

// StealthPayloadVersion discriminates sender-settles (v1) from
// pre-signed (v2) stealth payloads.
type StealthPayloadVersion uint8

const (
	StealthPayloadV1 StealthPayloadVersion = 1
	StealthPayloadV2 StealthPayloadVersion = 2
)

// StealthPayload is the mesh-carried form of a one-time stealth
// destination plus payment amount. PreSignedTransaction is
// present iff ProtocolVersion == StealthPayloadV2.
type StealthPayload struct {
	StealthAddress         string                `json:"stealthAddress"`
	EphemeralPublicKey     []byte                `json:"ephemeralPublicKey"`
	MLKEMCiphertext        []byte                `json:"mlkemCiphertext,omitempty"`
	Amount                 uint64                `json:"amount"`
	TokenMint              string                `json:"tokenMint,omitempty"`
	ViewTag                byte                  `json:"viewTag"`
	Memo                   string                `json:"memo,omitempty"`
	ProtocolVersion        StealthPayloadVersion `json:"protocolVersion"`
	PreSignedTransaction   []byte                `json:"preSignedTransaction,omitempty"`
	NonceAccountAddress    string                `json:"nonceAccountAddress,omitempty"`
	PreSignedAt            *time.Time            `json:"preSignedAt,omitempty"`
}

// Validate checks the v1/v2 invariant: a pre-signed transaction is
// present if and only if ProtocolVersion is v2.
func (p *StealthPayload) Validate() error {
	const op = "mesh.StealthPayload.Validate"
	hasPreSigned := len(p.PreSignedTransaction) > 0
	switch p.ProtocolVersion {
	case StealthPayloadV1:
		if hasPreSigned {
			return fmt.Errorf("%s: %w: v1 payload carries a pre-signed transaction", op, ErrProtocolMismatch)
		}
	case StealthPayloadV2:
		if !hasPreSigned {
			return fmt.Errorf("%s: %w: v2 payload missing pre-signed transaction", op, ErrProtocolMismatch)
		}
	default:
		return fmt.Errorf("%s: %w: %d", op, ErrUnknownProtocolVersion, p.ProtocolVersion)
	}
	return nil
}

// EncodePayload marshals p to JSON for embedding in an Envelope.Payload.
func (p *StealthPayload) EncodePayload() ([]byte, error) {
	return json.Marshal(p)
}

// DecodeStealthPayload parses an Envelope.Payload produced by
// EncodePayload and validates its v1/v2 invariant.
func DecodeStealthPayload(data []byte) (*StealthPayload, error) {
	const op = "mesh.DecodeStealthPayload"
	var p StealthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
