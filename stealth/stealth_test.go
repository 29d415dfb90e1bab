// SPDX-License-Identifier: LGPL-3.0-or-later

package stealth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshpay-project/meshcore/primitives"
)

func TestClassicalScanMatch(t *testing.T) {
	id, err := Generate(false)
	require.NoError(t, err)

	out, err := DeriveAddress(id.MetaAddress())
	require.NoError(t, err)
	require.Nil(t, out.MLKEMCiphertext)

	payment, err := Scan(id, Candidate{
		DestinationAddress: out.StealthAddress,
		EphemeralPublicKey: out.EphemeralPublicKey,
		ViewTag:            &out.ViewTag,
	})
	require.NoError(t, err)
	require.NotNil(t, payment)

	recovered, err := primitives.ScalarMultBaseNoClamp(payment.SpendingPrivateKey)
	require.NoError(t, err)
	require.Equal(t, out.StealthPublicKey, recovered)
}

func TestHybridScanMatch(t *testing.T) {
	id, err := Generate(true)
	require.NoError(t, err)

	out, err := DeriveAddress(id.MetaAddress())
	require.NoError(t, err)
	require.NotNil(t, out.MLKEMCiphertext)

	payment, err := Scan(id, Candidate{
		DestinationAddress: out.StealthAddress,
		EphemeralPublicKey: out.EphemeralPublicKey,
		ViewTag:            &out.ViewTag,
		MLKEMCiphertext:    out.MLKEMCiphertext,
	})
	require.NoError(t, err)
	require.NotNil(t, payment)

	recovered, err := primitives.ScalarMultBaseNoClamp(payment.SpendingPrivateKey)
	require.NoError(t, err)
	require.Equal(t, out.StealthPublicKey, recovered)
}

func TestViewTagPreFilterRejectsWithoutFullScan(t *testing.T) {
	id, err := Generate(false)
	require.NoError(t, err)
	out, err := DeriveAddress(id.MetaAddress())
	require.NoError(t, err)

	flipped := out.ViewTag ^ 0xFF
	payment, err := Scan(id, Candidate{
		DestinationAddress: out.StealthAddress,
		EphemeralPublicKey: out.EphemeralPublicKey,
		ViewTag:            &flipped,
	})
	require.NoError(t, err)
	require.Nil(t, payment)
}

func TestVerifyOutputMatchesDerivation(t *testing.T) {
	for _, hybrid := range []bool{false, true} {
		id, err := Generate(hybrid)
		require.NoError(t, err)

		out, err := DeriveAddress(id.MetaAddress())
		require.NoError(t, err)

		ok, err := VerifyOutput(id, out)
		require.NoError(t, err)
		require.True(t, ok)

		stranger, err := Generate(hybrid)
		require.NoError(t, err)
		ok, err = VerifyOutput(stranger, out)
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestScanRejectsForeignIdentity(t *testing.T) {
	owner, err := Generate(false)
	require.NoError(t, err)
	stranger, err := Generate(false)
	require.NoError(t, err)

	out, err := DeriveAddress(owner.MetaAddress())
	require.NoError(t, err)

	payment, err := Scan(stranger, Candidate{
		DestinationAddress: out.StealthAddress,
		EphemeralPublicKey: out.EphemeralPublicKey,
	})
	require.NoError(t, err)
	require.Nil(t, payment)
}

func TestRestoreIdentityMatchesGenerated(t *testing.T) {
	id, err := Generate(true)
	require.NoError(t, err)

	restored, err := Restore(id.SpendingScalar, id.ViewingKey.PrivateBytes(), id.MLKEM.PrivateKeyBytes())
	require.NoError(t, err)

	require.Equal(t, id.SpendingPublic, restored.SpendingPublic)
	require.Equal(t, id.ViewingKey.PublicBytes(), restored.ViewingKey.PublicBytes())
	require.Equal(t, id.MLKEM.PublicKeyBytes(), restored.MLKEM.PublicKeyBytes())
}

func TestMetaAddressRoundtrip(t *testing.T) {
	id, err := Generate(true)
	require.NoError(t, err)
	meta := id.MetaAddress()

	encoded := meta.Encode()
	decoded, err := ParseMetaAddress(encoded)
	require.NoError(t, err)

	require.Equal(t, meta.SpendingPublicKey, decoded.SpendingPublicKey)
	require.Equal(t, meta.ViewingPublicKey, decoded.ViewingPublicKey)
	require.Equal(t, meta.MLKEMPublicKey, decoded.MLKEMPublicKey)
}

func TestParseMetaAddressRejectsBadLength(t *testing.T) {
	_, err := ParseMetaAddressBytes(make([]byte, 10))
	require.Error(t, err)
}

func TestParseMemoAcceptsExactLengthsOnly(t *testing.T) {
	_, _, err := ParseMemo(make([]byte, 32))
	require.NoError(t, err)

	_, _, err = ParseMemo(make([]byte, 32+primitives.MLKEMCiphertextSize))
	require.NoError(t, err)

	_, _, err = ParseMemo(make([]byte, 100))
	require.Error(t, err)
}
