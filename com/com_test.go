package com

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
)

const (
	positionReport = "!AIVDM,1,1,,B,19NS7Sp02wo?HETKA2K6mUM20<L=,0*27"
	staticPart1    = "!AIVDM,2,1,6,B,55ArUT02:nkG<I8GB20nuJ0p5HTu>0hT9860TV16000006420BDi@E53,0*33"
	staticPart2    = "!AIVDM,2,2,6,B,1KUDhH888888880,2*6A"
)

type collector struct {
	mu       sync.Mutex
	messages []message.Message
	errors   []error
}

func (c *collector) onMessage(m message.Message, _ sentence.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

func (c *collector) onError(err error, _ []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

func waitClosed(t *testing.T, com *COM) {
	t.Helper()
	select {
	case <-com.Done():
	case <-time.After(time.Second):
		t.Fatal("session was not closed")
	}
}

func TestReadLoop_CloseDevice(t *testing.T) {
	device := NewInMemory()
	lines := readLoop(device)
	device.Close()

	_, valid := <-lines

	assert.False(t, valid)
}

func TestReadLoop_ReadLine(t *testing.T) {
	device := NewInMemory()
	lines := readLoop(device)

	go func() {
		time.Sleep(10 * time.Millisecond)
		device.PrepareRead([]byte("hello\r\n\nworld"))
	}()

	firstLine, valid := <-lines

	assert.True(t, valid)
	assert.Equal(t, "hello", firstLine)

	device.Close()
	lastLine, valid := <-lines

	assert.True(t, valid)
	assert.Equal(t, "world", lastLine)

	_, valid = <-lines

	assert.False(t, valid)
}

func TestCOM_CloseDevice(t *testing.T) {
	device := NewInMemory()
	com := New(device)

	device.Close()

	waitClosed(t, com)
	assert.True(t, com.Closed())
}

func TestCOM_DecodeMessages(t *testing.T) {
	device := NewInMemory()
	device.PrepareLines(
		"garbage on startup",
		staticPart1,
		"JunkInFront"+positionReport,
		staticPart2,
		"$GPGLL,4916.45,N,12311.12,W,225444,A*31",
		"!AIVDM,1,1,,B,19NS7Sp02wo?HETKA2K6mUM20<L>,0*27",
	)
	device.CloseWhenEmpty(true)

	c := new(collector)
	com := New(device, WithMessageCallback(c.onMessage), WithErrorCallback(c.onError))
	waitClosed(t, com)

	require.Len(t, c.messages, 2)
	assert.Equal(t, ais.MMSI(636012431), c.messages[0].MessageHeader().UserID)
	assert.IsType(t, message.PositionReport{}, c.messages[0])
	assert.Equal(t, "M/V NAVIOS LIBRA II", c.messages[1].(message.StaticVoyageData).Name)

	require.Len(t, c.errors, 2)
	assert.ErrorIs(t, c.errors[0], sentence.ErrNoStartDelimiter)
	assert.ErrorIs(t, c.errors[1], sentence.ErrChecksumMismatch)

	assert.Equal(t, map[int]int{1: 1, 5: 1}, com.Counts())
	assert.Equal(t, "1:1 5:1", com.CountSummary())
}

func TestCOM_DecodeLengthError(t *testing.T) {
	device := NewInMemory()
	device.PrepareLines("!AIVDM,1,1,,B,19NS7Sp02wo?HETKA2K6mUM20<L,0*1A")
	device.CloseWhenEmpty(true)

	c := new(collector)
	com := New(device, WithMessageCallback(c.onMessage), WithErrorCallback(c.onError))
	waitClosed(t, com)

	assert.Empty(t, c.messages)
	require.Len(t, c.errors, 1)
	assert.ErrorIs(t, c.errors[0], message.ErrInvalidLength)
}

func TestCOM_Trace(t *testing.T) {
	device := NewInMemory()
	device.PrepareLines(positionReport)
	device.CloseWhenEmpty(true)

	tracer := new(bytes.Buffer)
	com := NewWithTrace(device, tracer)
	waitClosed(t, com)

	assert.Contains(t, tracer.String(), "rx:  "+positionReport)
	assert.True(t, bytes.HasSuffix(tracer.Bytes(), []byte("* SESSION END\n****\n")), "session end is traced before the session is done")
}

func TestCOM_Send(t *testing.T) {
	tt := []struct {
		desc    string
		request send.Request
		ack     string
		sent    []string
		err     error
	}{
		{
			desc:    "addressed safety acknowledged",
			request: send.NewRequest(message.AddressedSafety{Header: message.Header{ID: 12}, Destination: 219593000, Text: "TEST FROM FRV"}, 0),
			ack:     "$AIABK,219593000,A,12,0,0*1B",
			sent:    []string{"!AIABM,1,1,0,219593000,0,12,D5CDP6B?=P6BF,0*72"},
		},
		{
			desc:    "addressed safety not received",
			request: send.NewRequest(message.AddressedSafety{Header: message.Header{ID: 12}, Destination: 219593000, Text: "TEST FROM FRV"}, 1),
			ack:     "$AIABK,219593000,A,12,1,1*1B",
			err:     send.ErrNegativeAck,
		},
		{
			desc:    "broadcast safety",
			request: send.NewRequest(message.BroadcastSafety{Header: message.Header{ID: 14}, Text: "SECURITE"}, 2),
			ack:     "$AIABK,,B,14,2,3*2A",
			sent:    []string{"!AIBBM,1,1,2,0,14,C53EB9D5,0*54"},
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			device := NewInMemory()
			defer device.Close()
			com := New(device)

			go func() {
				if device.WaitUntilWritten(time.Second) {
					device.PrepareLines(tc.ack)
				}
			}()

			ack, err := com.Send(context.Background(), tc.request, time.Second)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.request.Sequence, ack.Sequence)
			assert.True(t, ack.Type.Success())
			assert.Equal(t, tc.sent, device.WrittenLines())
		})
	}
}

func TestCOM_SendTimeout(t *testing.T) {
	device := NewInMemory()
	defer device.Close()
	com := New(device)

	request := send.NewRequest(message.BroadcastSafety{Header: message.Header{ID: 14}, Text: "SECURITE"}, 3)
	_, err := com.Send(context.Background(), request, 20*time.Millisecond)
	assert.ErrorIs(t, err, send.ErrTimeout)

	_, err = com.SendAsync(context.Background(), request, time.Second)
	assert.NoError(t, err, "the sequence number is free again after the timeout")
}

func TestCOM_SendNotSendable(t *testing.T) {
	device := NewInMemory()
	defer device.Close()
	com := New(device)

	_, err := com.Send(context.Background(), send.NewRequest(message.PositionReport{Header: message.Header{ID: 1}}, 0), time.Second)
	assert.ErrorIs(t, err, send.ErrNotSendable)
	assert.Empty(t, device.Written())
}

func TestCOM_SendClosed(t *testing.T) {
	device := NewInMemory()
	com := New(device)
	device.Close()
	waitClosed(t, com)

	request := send.NewRequest(message.BroadcastSafety{Header: message.Header{ID: 14}, Text: "SECURITE"}, 0)
	_, err := com.Send(context.Background(), request, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDecodePayload_EnvelopeSequence(t *testing.T) {
	tt := []struct {
		desc       string
		sequenceID int
		expected   uint8
	}{
		{desc: "without sequence", sequenceID: sentence.NoSequence, expected: 0},
		{desc: "sequence 2", sequenceID: 2, expected: 2},
		{desc: "sequence 3", sequenceID: 3, expected: 3},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			payload := sentence.Payload{
				Formatter:   sentence.ABM,
				SequenceID:  tc.sequenceID,
				Destination: 219593000,
				MessageID:   12,
				Armored:     "D5CDP6B?=P6BF",
			}

			m, err := DecodePayload(message.NewParser(), payload)
			require.NoError(t, err)

			safety := m.(message.AddressedSafety)
			assert.Equal(t, tc.expected, safety.Sequence)
			assert.Equal(t, ais.MMSI(219593000), safety.Destination)
			assert.Equal(t, "TEST FROM FRV", safety.Text)
		})
	}
}
