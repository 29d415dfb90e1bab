// SPDX-License-Identifier: LGPL-3.0-or-later

package primitives

import (
	"crypto/ed25519"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarMultBaseMatchesStdlib(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	want := []byte(priv.Public().(ed25519.PublicKey))

	h := sha512.Sum512(seed)
	got, err := ScalarMultBase(h[:32])
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAddScalarsAndPointsAgree(t *testing.T) {
	a, err := RandomBytes(PointSize)
	require.NoError(t, err)
	b, err := RandomBytes(PointSize)
	require.NoError(t, err)
	ra, err := ReduceScalar(append(a, a...))
	require.NoError(t, err)
	rb, err := ReduceScalar(append(b, b...))
	require.NoError(t, err)

	sum, err := AddScalars(ra, rb)
	require.NoError(t, err)

	A, err := ScalarMultBaseNoClamp(ra)
	require.NoError(t, err)
	B, err := ScalarMultBaseNoClamp(rb)
	require.NoError(t, err)
	pointSum, err := AddPoints(A, B)
	require.NoError(t, err)

	scalarSumPoint, err := ScalarMultBaseNoClamp(sum)
	require.NoError(t, err)

	require.Equal(t, pointSum, scalarSumPoint)
}

func TestIsOnCurveRejectsGarbage(t *testing.T) {
	require.False(t, IsOnCurve(make([]byte, 31)))
	require.False(t, IsOnCurve(make([]byte, 33)))

	var garbage [32]byte
	for i := range garbage {
		garbage[i] = 0xFF
	}
	require.False(t, IsOnCurve(garbage[:]))
}

func TestReduceScalarRejectsOverlong(t *testing.T) {
	_, err := ReduceScalar(make([]byte, 65))
	require.Error(t, err)
}
