// SPDX-License-Identifier: LGPL-3.0-or-later

package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshpay-project/meshcore/crypto"
)

func TestForwardedDecrementsTTL(t *testing.T) {
	env, err := NewEnvelope(MessageTypeStealthPayment, "peer-a", 5, []byte("payload"))
	require.NoError(t, err)

	fwd := env.Forwarded()
	require.NotNil(t, fwd)
	require.Equal(t, uint8(4), fwd.TTL)
	require.Equal(t, env.ID, fwd.ID)
}

func TestForwardedAtTTLOneForwardsToNoOne(t *testing.T) {
	env, err := NewEnvelope(MessageTypeAcknowledgment, "peer-a", 1, nil)
	require.NoError(t, err)
	require.Nil(t, env.Forwarded())
}

func TestNewEnvelopeRejectsTTLOverflow(t *testing.T) {
	_, err := NewEnvelope(MessageTypeHeartbeat, "peer-a", MaxTTL+1, nil)
	require.ErrorIs(t, err, ErrTTLOutOfRange)
}

func TestEncodeDecodeEnvelopeRoundTrips(t *testing.T) {
	env, err := NewEnvelope(MessageTypeDiscovery, "peer-a", 1, []byte("hello"))
	require.NoError(t, err)

	wire, err := env.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(wire)
	require.NoError(t, err)
	require.Equal(t, env.ID, decoded.ID)
	require.Equal(t, env.Payload, decoded.Payload)
}

func TestEncodeRejectsOversizedEnvelope(t *testing.T) {
	env, err := NewEnvelope(MessageTypeStealthPayment, "peer-a", 5, make([]byte, MaxEnvelopeSize))
	require.NoError(t, err)
	_, err = env.Encode()
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDefaultTTLPerType(t *testing.T) {
	require.Equal(t, uint8(5), DefaultTTL(MessageTypeStealthPayment, 0))
	require.Equal(t, uint8(7), DefaultTTL(MessageTypeStealthPayment, 7))
	require.Equal(t, uint8(3), DefaultTTL(MessageTypeAcknowledgment, 0))
	require.Equal(t, uint8(1), DefaultTTL(MessageTypeDiscovery, 0))
	require.Equal(t, uint8(1), DefaultTTL(MessageTypeChatRequest, 0))
}

func TestStealthPayloadValidateV1RejectsPreSigned(t *testing.T) {
	p := &StealthPayload{ProtocolVersion: StealthPayloadV1, PreSignedTransaction: []byte("tx")}
	require.ErrorIs(t, p.Validate(), ErrProtocolMismatch)
}

func TestStealthPayloadValidateV2RequiresPreSigned(t *testing.T) {
	p := &StealthPayload{ProtocolVersion: StealthPayloadV2}
	require.ErrorIs(t, p.Validate(), ErrProtocolMismatch)
}

func TestEnvelopeSignAndVerify(t *testing.T) {
	id, err := crypto.GenerateNodeIdentity()
	require.NoError(t, err)

	env, err := NewEnvelope(MessageTypeHeartbeat, id.PeerID(), 1, []byte("ping"))
	require.NoError(t, err)

	env.Sign(id)
	require.NoError(t, env.VerifySignature(id.PublicKey()))
}

func TestEnvelopeVerifyRejectsWrongKey(t *testing.T) {
	id, err := crypto.GenerateNodeIdentity()
	require.NoError(t, err)
	other, err := crypto.GenerateNodeIdentity()
	require.NoError(t, err)

	env, err := NewEnvelope(MessageTypeHeartbeat, id.PeerID(), 1, []byte("ping"))
	require.NoError(t, err)
	env.Sign(id)

	require.ErrorIs(t, env.VerifySignature(other.PublicKey()), ErrInvalidEnvelope)
}

func TestEnvelopeVerifyRejectsMissingSignature(t *testing.T) {
	id, err := crypto.GenerateNodeIdentity()
	require.NoError(t, err)

	env, err := NewEnvelope(MessageTypeHeartbeat, id.PeerID(), 1, []byte("ping"))
	require.NoError(t, err)
	require.ErrorIs(t, env.VerifySignature(id.PublicKey()), ErrInvalidEnvelope)
}

func TestEnvelopeVerifyRejectsTamperedTTL(t *testing.T) {
	id, err := crypto.GenerateNodeIdentity()
	require.NoError(t, err)

	env, err := NewEnvelope(MessageTypeStealthPayment, id.PeerID(), 5, []byte("payload"))
	require.NoError(t, err)
	env.Sign(id)

	fwd := env.Forwarded()
	require.ErrorIs(t, fwd.VerifySignature(id.PublicKey()), ErrInvalidEnvelope)
}

func TestStealthPayloadRoundTrip(t *testing.T) {
	p := &StealthPayload{
		StealthAddress:     "abc123",
		EphemeralPublicKey: make([]byte, 32),
		Amount:             1_000_000,
		ViewTag:            0x42,
		ProtocolVersion:    StealthPayloadV1,
	}
	encoded, err := p.EncodePayload()
	require.NoError(t, err)

	decoded, err := DecodeStealthPayload(encoded)
	require.NoError(t, err)
	require.Equal(t, p.StealthAddress, decoded.StealthAddress)
	require.Equal(t, p.ViewTag, decoded.ViewTag)
}
