// SPDX-License-Identifier: LGPL-3.0-or-later

package signer

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshpay-project/meshcore/primitives"
)

func randomScalar(t *testing.T) []byte {
	t.Helper()
	raw, err := primitives.RandomBytes(64)
	require.NoError(t, err)
	scalar, err := primitives.ReduceScalar(raw[:32])
	require.NoError(t, err)
	return scalar
}

func TestSignVerifyRoundtrip(t *testing.T) {
	p := randomScalar(t)
	A, err := primitives.ScalarMultBaseNoClamp(p)
	require.NoError(t, err)

	message := []byte("a stealth payment memo")
	sig, err := Sign(p, A, message)
	require.NoError(t, err)
	require.Len(t, sig, SignatureSize)

	ok, err := Verify(A, message, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignIsDeterministic(t *testing.T) {
	p := randomScalar(t)
	A, err := primitives.ScalarMultBaseNoClamp(p)
	require.NoError(t, err)
	message := []byte("same message twice")

	sig1, err := Sign(p, A, message)
	require.NoError(t, err)
	sig2, err := Sign(p, A, message)
	require.NoError(t, err)

	require.Equal(t, sig1, sig2)
}

func TestSignatureVerifiesUnderStdlibEd25519(t *testing.T) {
	p := randomScalar(t)
	A, err := primitives.ScalarMultBaseNoClamp(p)
	require.NoError(t, err)

	message := []byte("standard verify equation interop")
	sig, err := Sign(p, A, message)
	require.NoError(t, err)

	require.True(t, ed25519.Verify(ed25519.PublicKey(A), message, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	p := randomScalar(t)
	A, err := primitives.ScalarMultBaseNoClamp(p)
	require.NoError(t, err)
	sig, err := Sign(p, A, []byte("original"))
	require.NoError(t, err)

	ok, err := Verify(A, []byte("tampered"), sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyRejectsWrongLengthSignature(t *testing.T) {
	p := randomScalar(t)
	A, err := primitives.ScalarMultBaseNoClamp(p)
	require.NoError(t, err)

	_, err = Verify(A, []byte("msg"), make([]byte, 10))
	require.Error(t, err)
}
