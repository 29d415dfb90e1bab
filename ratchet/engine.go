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

package ratchet

import (
	"bytes"
	"fmt"
	"time"

	"github.com/meshpay-project/meshcore/primitives"
)

const (
	rootKDFSalt     = "MeshChat_Salt"
	rootKDFInfo     = "MeshChat_RootKey"
	dhRatchetInfo   = "MeshChat_ChainKey"
	rootKDFOutLen   = 96 // rootKey(32) || chainA(32) || chainB(32)
	dhRatchetOutLen = 64 // rootKey(32) || chain(32)
)

// KeyAgreementRequest is what the initiator sends to open a session:
// fresh X25519 and ML-KEM public keys.
type KeyAgreementRequest struct {
	DHPublicKey    []byte
	MLKEMPublicKey []byte
}

// KeyAgreementResponse is what the responder returns: its own X25519
// public key plus the ML-KEM ciphertext encapsulated against the
// initiator's key.
type KeyAgreementResponse struct {
	DHPublicKey    []byte
	MLKEMCiphertext []byte
}

// InitiateSession generates the initiator's ephemeral key material and
// the request to send to the responder.
func InitiateSession(sessionID string) (*State, *KeyAgreementRequest, error) {
	const op = "ratchet.InitiateSession"
	dh, err := primitives.GenerateX25519()
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	kem, err := primitives.GenerateMLKEM()
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	state := newState(sessionID, true, dh, kem)
	return state, &KeyAgreementRequest{DHPublicKey: dh.PublicBytes(), MLKEMPublicKey: kem.PublicKeyBytes()}, nil
}

// RespondToSession performs the responder's half of hybrid key
// agreement: X = X25519(r, R_dh), (ct, K_mlkem) = Encaps(k_pk); both
// sides then derive rootKey/chainA/chainB from SHA-256(X || K_mlkem).
// The responder's chains are swapped relative to the initiator's:
// recv = chainA, send = chainB. The swap is the single most
// error-prone part of the ratchet; it is made explicit here via named
// variables rather than symmetric-looking code.
func RespondToSession(sessionID string, req *KeyAgreementRequest) (*State, *KeyAgreementResponse, error) {
	const op = "ratchet.RespondToSession"

	if err := sanityCheckRequest(req); err != nil {
		return nil, nil, primitives.NewError(primitives.KindInvalidInput, op, err)
	}

	dh, err := primitives.GenerateX25519()
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	X, err := dh.ECDH(req.DHPublicKey)
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	ct, Kmlkem, err := primitives.MLKEMEncapsulate(req.MLKEMPublicKey)
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	hybridSecret := primitives.Sha256(X, Kmlkem)
	derived, err := primitives.HKDFSHA256(hybridSecret, []byte(rootKDFSalt), []byte(rootKDFInfo), rootKDFOutLen)
	if err != nil {
		return nil, nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	rootKey := derived[:32]
	chainA := derived[32:64]
	chainB := derived[64:96]

	state := newState(sessionID, false, dh, nil)
	state.rootKey = rootKey
	// Responder swap: recv = chainA, send = chainB.
	state.recvChainKey = chainA
	state.sendChainKey = chainB
	state.remoteDhPub = req.DHPublicKey
	// The responder opens a fresh DH epoch on its first send; the
	// initiator's receive-side ratchet step then keeps the rotation
	// alternating between the two sides for post-compromise security.
	state.sendRatchetPending = true

	return state, &KeyAgreementResponse{DHPublicKey: dh.PublicBytes(), MLKEMCiphertext: ct}, nil
}

// CompleteSession lets the initiator finish key agreement once the
// responder's KeyAgreementResponse arrives: X = X25519(r, R'_dh),
// K_mlkem = Decaps(k_sk, ct); the initiator's chains are NOT swapped:
// send = chainA, recv = chainB.
func CompleteSession(state *State, resp *KeyAgreementResponse) error {
	const op = "ratchet.CompleteSession"
	if !state.IsInitiator {
		return primitives.NewError(primitives.KindProtocolViolation, op, ErrNotInitiator)
	}

	X, err := state.dhPriv.ECDH(resp.DHPublicKey)
	if err != nil {
		return primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	Kmlkem, err := state.mlkemPriv.Decapsulate(resp.MLKEMCiphertext)
	if err != nil {
		return primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	hybridSecret := primitives.Sha256(X, Kmlkem)
	derived, err := primitives.HKDFSHA256(hybridSecret, []byte(rootKDFSalt), []byte(rootKDFInfo), rootKDFOutLen)
	if err != nil {
		return primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	state.rootKey = derived[:32]
	state.sendChainKey = derived[32:64]
	state.recvChainKey = derived[64:96]
	state.remoteDhPub = resp.DHPublicKey
	return nil
}

// symmetricStep implements the per-message ratchet:
// messageKey = HMAC-SHA256(c, 0x01), nextChainKey = HMAC-SHA256(c, 0x02).
func symmetricStep(chainKey []byte) (messageKey, nextChainKey []byte) {
	messageKey = primitives.HMACSHA256(chainKey, []byte{0x01})
	nextChainKey = primitives.HMACSHA256(chainKey, []byte{0x02})
	return
}

// Message is an encrypted ratchet message as carried over the mesh:
// the sender's current DH public key, its position in the
// send chain, and the AES-256-GCM sealed payload split into its
// wire-visible parts.
type Message struct {
	DHPublicKey   []byte
	MessageNumber uint32
	Nonce         []byte
	Ciphertext    []byte
	Tag           []byte
}

// Encrypt advances the send chain by one step and seals plaintext
// under the resulting message key, rotating the local DH keypair
// first when a send-side ratchet is pending.
func Encrypt(state *State, plaintext []byte) (*Message, error) {
	const op = "ratchet.Encrypt"
	if state.sendChainKey == nil {
		return nil, primitives.NewError(primitives.KindProtocolViolation, op, ErrNoSendChain)
	}
	if state.sendRatchetPending {
		if err := sendRatchetStep(state); err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
	}

	messageKey, nextChain := symmetricStep(state.sendChainKey)
	sealed, err := primitives.SealAESGCM(messageKey, nil, plaintext)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}

	msg := &Message{
		DHPublicKey:   state.DHPublicKey(),
		MessageNumber: state.sendN,
		Nonce:         sealed[:primitives.AEADNonceSize],
		Ciphertext:    sealed[primitives.AEADNonceSize : len(sealed)-primitives.AEADTagSize],
		Tag:           sealed[len(sealed)-primitives.AEADTagSize:],
	}

	state.sendChainKey = nextChain
	state.sendN++
	state.LastActivity = time.Now()
	return msg, nil
}

// Decrypt opens a Message, performing a DH ratchet step first if the
// message's DH public key differs from the currently known remote key,
// and consuming (or storing) skipped-message keys as needed. A message
// numbered below the receive counter with no stored skipped key is a
// replay and fails with ProtocolViolation.
func Decrypt(state *State, msg *Message) ([]byte, error) {
	const op = "ratchet.Decrypt"

	if key, ok := state.takeSkipped(msg.DHPublicKey, msg.MessageNumber); ok {
		return openWithKey(key, msg)
	}

	if state.remoteDhPub == nil {
		return nil, primitives.NewError(primitives.KindProtocolViolation, op, ErrNoKeyAgreement)
	}

	if !bytes.Equal(msg.DHPublicKey, state.remoteDhPub) {
		if err := dhRatchetStep(state, msg.DHPublicKey); err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
	}

	if msg.MessageNumber < state.recvN {
		return nil, primitives.NewError(primitives.KindProtocolViolation, op,
			fmt.Errorf("message %d already received and no skipped key is stored for it", msg.MessageNumber))
	}

	if msg.MessageNumber > state.recvN {
		if err := skipMessageKeys(state, msg.DHPublicKey, msg.MessageNumber); err != nil {
			return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
		}
	}

	messageKey, nextChain := symmetricStep(state.recvChainKey)
	plaintext, err := openWithKey(messageKey, msg)
	if err != nil {
		return nil, err
	}
	state.recvChainKey = nextChain
	state.recvN++
	state.LastActivity = time.Now()
	return plaintext, nil
}

// skipMessageKeys advances the receive chain up to (but not including)
// msg.MessageNumber, storing each intermediate message key so an
// out-of-order arrival can still be decrypted later.
func skipMessageKeys(state *State, dhPub []byte, upTo uint32) error {
	for state.recvN < upTo {
		mk, nextChain := symmetricStep(state.recvChainKey)
		state.storeSkipped(dhPub, state.recvN, mk)
		state.recvChainKey = nextChain
		state.recvN++
	}
	return nil
}

// sendRatchetStep rotates the local DH keypair ahead of the next
// outgoing message and derives a fresh send chain from the new shared
// secret with the current remote key. The peer's receive-side ratchet
// step derives the identical chain from its end of the exchange.
func sendRatchetStep(state *State) error {
	newPriv, err := primitives.GenerateX25519()
	if err != nil {
		return err
	}
	dhSecret, err := newPriv.ECDH(state.remoteDhPub)
	if err != nil {
		return err
	}
	derived, err := primitives.HKDFSHA256(dhSecret, state.rootKey, []byte(dhRatchetInfo), dhRatchetOutLen)
	if err != nil {
		return err
	}

	state.prevChainLen = state.sendN
	state.dhPriv = newPriv
	state.rootKey = derived[:32]
	state.sendChainKey = derived[32:64]
	state.sendN = 0
	state.sendRatchetPending = false
	return nil
}

// dhRatchetStep replaces the local DH keypair and derives a fresh
// receive chain from the new shared secret with remotePub, then a
// fresh send chain from the new local keypair's secret with the same
// remote key, the two-derivation form of the standard Double Ratchet.
func dhRatchetStep(state *State, remotePub []byte) error {
	state.prevChainLen = state.sendN

	dhSecretOld, err := state.dhPriv.ECDH(remotePub)
	if err != nil {
		return err
	}
	recvDerived, err := primitives.HKDFSHA256(dhSecretOld, state.rootKey, []byte(dhRatchetInfo), dhRatchetOutLen)
	if err != nil {
		return err
	}

	newPriv, err := primitives.GenerateX25519()
	if err != nil {
		return err
	}
	dhSecretNew, err := newPriv.ECDH(remotePub)
	if err != nil {
		return err
	}
	sendDerived, err := primitives.HKDFSHA256(dhSecretNew, recvDerived[:32], []byte(dhRatchetInfo), dhRatchetOutLen)
	if err != nil {
		return err
	}

	state.dhPriv = newPriv
	state.remoteDhPub = remotePub
	state.rootKey = sendDerived[:32]
	state.recvChainKey = recvDerived[32:64]
	state.sendChainKey = sendDerived[32:64]
	state.sendN = 0
	state.recvN = 0
	return nil
}

func openWithKey(key []byte, msg *Message) ([]byte, error) {
	const op = "ratchet.openWithKey"
	sealed := make([]byte, 0, len(msg.Nonce)+len(msg.Ciphertext)+len(msg.Tag))
	sealed = append(sealed, msg.Nonce...)
	sealed = append(sealed, msg.Ciphertext...)
	sealed = append(sealed, msg.Tag...)
	plaintext, err := primitives.OpenAESGCM(key, nil, sealed)
	if err != nil {
		return nil, primitives.NewError(primitives.KindCryptoFailure, op, err)
	}
	return plaintext, nil
}

// sanityCheckRequest validates a key agreement request's wire sizes
// before any crypto runs on it.
func sanityCheckRequest(req *KeyAgreementRequest) error {
	if len(req.DHPublicKey) != 32 {
		return fmt.Errorf("ratchet: %w: dh public key", primitives.ErrWrongLength)
	}
	if len(req.MLKEMPublicKey) != primitives.MLKEMPublicKeySize {
		return fmt.Errorf("ratchet: %w: mlkem public key", primitives.ErrWrongLength)
	}
	return nil
}
