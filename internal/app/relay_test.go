package app

import (
	"testing"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_Forward(t *testing.T) {
	d := NewDirectory()
	alice, bob := &fakeConn{}, &fakeConn{}
	online(d, "alice", alice, nil)
	online(d, "bob", bob, nil)
	r := NewRelay(NewDispatcher(d, nil))

	t.Run("ice candidate reaches the target tagged with the sender", func(t *testing.T) {
		candidate := map[string]any{"candidate": "candidate:1 1 udp 2122260223 10.0.0.2 54321 typ host", "sdpMid": "0"}
		ok, err := r.Forward("conn-alice", "alice", Signal{Kind: SignalICE, To: "bob", Payload: candidate})
		require.NoError(t, err)
		assert.True(t, ok)

		evs := bob.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, "peer-signal-ice-candidate", evs[0].Type)
		data := evs[0].Data.(map[string]any)
		assert.Equal(t, "conn-alice", data["from"])
		assert.Equal(t, "alice", data["fromUserId"])
		assert.Equal(t, candidate, data["candidate"])
		assert.NotContains(t, data, "callId")
		assert.Empty(t, alice.events(t))
	})

	t.Run("offer keeps the call id", func(t *testing.T) {
		ok, err := r.Forward("conn-bob", "bob", Signal{Kind: SignalOffer, To: "alice", Payload: map[string]any{"type": "offer", "sdp": "v=0"}, CallID: "call-1"})
		require.NoError(t, err)
		assert.True(t, ok)
		evs := alice.events(t)
		require.Len(t, evs, 1)
		assert.Equal(t, "peer-signal-offer", evs[0].Type)
		assert.Equal(t, "call-1", evs[0].Data.(map[string]any)["callId"])
	})

	t.Run("offline target is a silent no-op", func(t *testing.T) {
		ok, err := r.Forward("conn-alice", "alice", Signal{Kind: SignalAnswer, To: "carol", Payload: "sdp"})
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing target or payload is dropped", func(t *testing.T) {
		ok, err := r.Forward("conn-alice", "alice", Signal{Kind: SignalAnswer, Payload: "sdp"})
		assert.NoError(t, err)
		assert.False(t, ok)
		ok, err = r.Forward("conn-alice", "alice", Signal{Kind: SignalAnswer, To: "bob"})
		assert.NoError(t, err)
		assert.False(t, ok)
		ok, err = r.Forward("conn-alice", "alice", Signal{Kind: SignalAnswer, To: "bob", Payload: map[string]any{}})
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, bob.events(t), 1, "nothing new reached bob")
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		_, err := r.Forward("conn-alice", "alice", Signal{Kind: "renegotiate", To: "bob", Payload: "x"})
		assert.ErrorIs(t, err, domain.ErrUnknownEvent)
	})
}

func TestSignalKind_Field(t *testing.T) {
	assert.Equal(t, "offer", SignalNegoOffer.Field())
	assert.Equal(t, "answer", SignalNegoAnswer.Field())
	assert.Equal(t, "candidate", SignalICE.Field())
	assert.Empty(t, SignalKind("bogus").Field())
}
