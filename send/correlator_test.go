package send

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/ais-nmea/sentence"
)

func TestCorrelatorAck(t *testing.T) {
	tt := []struct {
		desc    string
		ackType sentence.AckType
		err     error
	}{
		{desc: "received", ackType: sentence.AckReceived},
		{desc: "broadcast", ackType: sentence.AckBroadcastDone},
		{desc: "not received", ackType: sentence.AckNotReceived, err: ErrNegativeAck},
		{desc: "not broadcast", ackType: sentence.AckNotBroadcast, err: ErrNegativeAck},
		{desc: "late", ackType: sentence.AckLateReception, err: ErrNegativeAck},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			correlator := NewCorrelator()
			pending, err := correlator.Register(2, time.Minute)
			require.NoError(t, err)

			ack := sentence.Acknowledgement{Talker: "AI", Destination: 219015063, MessageID: 12, Sequence: 2, Type: tc.ackType}
			assert.True(t, correlator.Resolve(ack))
			assert.False(t, correlator.Resolve(ack), "resolved at most once")

			actual, err := pending.Wait(context.Background())
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.NotErrorIs(t, err, ErrTimeout)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, ack, actual)
			assert.Equal(t, 0, correlator.Len())
		})
	}
}

func TestCorrelatorTimeout(t *testing.T) {
	correlator := NewCorrelator()
	pending, err := correlator.Register(1, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrNegativeAck)
	assert.Equal(t, 0, correlator.Len())

	assert.False(t, correlator.Resolve(sentence.Acknowledgement{Sequence: 1}), "late ack is ignored")

	_, err = correlator.Register(1, time.Minute)
	assert.NoError(t, err, "the timeout frees the sequence number")
}

func TestCorrelatorSequenceInUse(t *testing.T) {
	correlator := NewCorrelator()
	_, err := correlator.Register(0, time.Minute)
	require.NoError(t, err)

	_, err = correlator.Register(0, time.Minute)
	assert.ErrorIs(t, err, ErrSequenceInUse)

	_, err = correlator.Register(1, time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 2, correlator.Len())
}

func TestCorrelatorUnknownSequence(t *testing.T) {
	correlator := NewCorrelator()
	assert.False(t, correlator.Resolve(sentence.Acknowledgement{Sequence: 3}))
}

func TestCorrelatorCallback(t *testing.T) {
	correlator := NewCorrelator()
	pending, err := correlator.Register(3, time.Minute)
	require.NoError(t, err)

	results := make(chan Result, 2)
	pending.OnResult(func(r Result) { results <- r })

	correlator.Resolve(sentence.Acknowledgement{Sequence: 3, Type: sentence.AckBroadcastDone})
	select {
	case result := <-results:
		assert.NoError(t, result.Err)
		assert.Equal(t, 3, result.Sequence)
	case <-time.After(time.Second):
		t.Fatal("callback was not called")
	}

	pending.OnResult(func(r Result) { results <- r })
	select {
	case result := <-results:
		assert.NoError(t, result.Err)
	default:
		t.Fatal("callback on a resolved send was not called immediately")
	}
}

func TestCorrelatorWaitCancelled(t *testing.T) {
	correlator := NewCorrelator()
	pending, err := correlator.Register(0, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pending.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, correlator.Len())
}
