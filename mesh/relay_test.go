// SPDX-License-Identifier: LGPL-3.0-or-later

package mesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEnvelope(t *testing.T, ttl uint8) *Envelope {
	t.Helper()
	env, err := NewEnvelope(MessageTypeStealthPayment, "peer-a", ttl, []byte("payload"))
	require.NoError(t, err)
	return env
}

func TestStoreMessageIgnoresDuplicateAndAcknowledged(t *testing.T) {
	r := NewRelay(DefaultRelayConfig(), nil)
	env := newTestEnvelope(t, 5)

	r.StoreMessage(env)
	r.StoreMessage(env) // duplicate, no-op

	r.MarkAcknowledged(env.ID)
	r.StoreMessage(env) // already acknowledged, no-op

	relayed := r.PrepareRelay()
	require.Empty(t, relayed)
}

func TestStoreMessageEvictsOldestWhenFull(t *testing.T) {
	cfg := DefaultRelayConfig()
	cfg.MaxStoredMessages = 2
	r := NewRelay(cfg, nil)

	e1 := newTestEnvelope(t, 5)
	e2 := newTestEnvelope(t, 5)
	e3 := newTestEnvelope(t, 5)

	r.StoreMessage(e1)
	r.StoreMessage(e2)
	r.StoreMessage(e3)

	r.mu.Lock()
	_, e1Present := r.stored[e1.ID]
	_, e3Present := r.stored[e3.ID]
	r.mu.Unlock()
	require.False(t, e1Present)
	require.True(t, e3Present)
}

func TestPrepareRelayReturnsEmptyWithNoEligiblePeer(t *testing.T) {
	cfg := DefaultRelayConfig()
	r := NewRelay(cfg, func() []int { return []int{-90, -95} })
	r.StoreMessage(newTestEnvelope(t, 5))

	require.Empty(t, r.PrepareRelay())
}

func TestPrepareRelayHonorsMaxPerCycle(t *testing.T) {
	cfg := DefaultRelayConfig()
	cfg.MaxMessagesPerCycle = 2
	r := NewRelay(cfg, nil)

	for i := 0; i < 5; i++ {
		r.StoreMessage(newTestEnvelope(t, 5))
	}

	require.Len(t, r.PrepareRelay(), 2)
}

func TestPrepareRelaySkipsExhaustedTTL(t *testing.T) {
	r := NewRelay(DefaultRelayConfig(), nil)
	r.StoreMessage(newTestEnvelope(t, 1))

	require.Empty(t, r.PrepareRelay())
}

func TestMarkAcknowledgedRemovesFromStore(t *testing.T) {
	r := NewRelay(DefaultRelayConfig(), nil)
	env := newTestEnvelope(t, 5)
	r.StoreMessage(env)
	r.MarkAcknowledged(env.ID)

	r.mu.Lock()
	_, present := r.stored[env.ID]
	r.mu.Unlock()
	require.False(t, present)
}

func TestPruneTaskIsCancellable(t *testing.T) {
	cfg := DefaultRelayConfig()
	cfg.PruneInterval = 10 * time.Millisecond
	cfg.MessageExpiry = 5 * time.Millisecond
	r := NewRelay(cfg, nil)

	env := newTestEnvelope(t, 5)
	r.StoreMessage(env)

	r.Start()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, r.Close())

	r.mu.Lock()
	_, present := r.stored[env.ID]
	r.mu.Unlock()
	require.False(t, present)
}

func TestEventsEmittedOnStore(t *testing.T) {
	r := NewRelay(DefaultRelayConfig(), nil)
	env := newTestEnvelope(t, 5)
	r.StoreMessage(env)

	select {
	case e := <-r.Events():
		require.Equal(t, EventMessageStored, e.Kind)
		require.Equal(t, []string{env.ID}, e.IDs)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}
