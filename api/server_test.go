package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
)

type fakeSender struct {
	requests []send.Request
	ack      sentence.Acknowledgement
	err      error
}

func (s *fakeSender) Send(_ context.Context, request send.Request, _ time.Duration) (sentence.Acknowledgement, error) {
	s.requests = append(s.requests, request)
	return s.ack, s.err
}

type fakeStats map[int]int

func (s fakeStats) Counts() map[int]int {
	return s
}

func newTestServer(options ...Option) *Server {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewServer("", logrus.NewEntry(log), options...)
}

func do(t *testing.T, server *Server, method, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	request := httptest.NewRequest(method, path, &buf)
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	return recorder.Code, result
}

func TestHealth(t *testing.T) {
	server := newTestServer(WithStats(fakeStats{1: 3, 5: 1}))
	code, response := do(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, map[string]interface{}{"1": float64(3), "5": float64(1)}, response["counts"])
}

func TestDecode(t *testing.T) {
	server := newTestServer()
	code, response := do(t, server, http.MethodPost, "/decode", body{
		"lines": []string{
			"!AIVDM,1,1,,A,15M67FC000G?ufbE`FepT@3n00Sa,0*5F",
			"!AIVDM,1,1,,A,15M67FC000G?ufbE`FepT@3n00Sa,0*00",
			"!AIVDM,2,1,3,B,55P5TL01VIaAL@7WKO@mBplU@<PDhh000000001S;AJ::4A80?4i@E53,0*3E",
		},
	})

	assert.Equal(t, http.StatusOK, code)
	messages := response["messages"].([]interface{})
	require.Len(t, messages, 1)
	decoded := messages[0].(map[string]interface{})
	assert.Equal(t, "position_report", decoded["type"])
	assert.Equal(t, "A", decoded["channel"])
	assert.Equal(t, float64(366053209), decoded["message"].(map[string]interface{})["mmsi"])

	assert.Len(t, response["errors"].([]interface{}), 1)
	assert.Equal(t, float64(1), response["pending"])
}

func TestDecodeBadRequest(t *testing.T) {
	server := newTestServer()
	code, _ := do(t, server, http.MethodPost, "/decode", body{"nothing": true})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEncodeVDM(t *testing.T) {
	server := newTestServer()
	code, response := do(t, server, http.MethodPost, "/encode", body{
		"type": 14,
		"mmsi": 2190047,
		"text": "Sécurité",
	})
	require.Equal(t, http.StatusOK, code, "%v", response)

	sentences := response["sentences"].([]interface{})
	require.Len(t, sentences, 1)
	line := sentences[0].(string)
	assert.Contains(t, line, "!AIVDM,1,1,,A,")

	status, payload, err := sentence.NewAssembler().Put(line)
	require.NoError(t, err)
	require.Equal(t, sentence.Complete, status)
	m, err := message.Parse(payload.Armored, payload.FillBits)
	require.NoError(t, err)
	assert.Equal(t, message.BroadcastSafety{Header: message.Header{ID: 14, UserID: 2190047}, Text: "SECURITE"}, m)
}

func TestEncodeForSending(t *testing.T) {
	server := newTestServer()
	code, response := do(t, server, http.MethodPost, "/encode", body{
		"type":     14,
		"text":     "SECURITE",
		"sequence": 2,
		"format":   FormatSend,
	})
	require.Equal(t, http.StatusOK, code, "%v", response)
	assert.Equal(t, []interface{}{"!AIBBM,1,1,2,0,14,C53EB9D5,0*54"}, response["sentences"])
}

func TestEncodeInvalid(t *testing.T) {
	tt := []struct {
		desc    string
		request body
	}{
		{desc: "no text message", request: body{"type": 1, "text": "X"}},
		{desc: "unknown format", request: body{"type": 14, "text": "X", "format": "xml"}},
		{desc: "invalid channel", request: body{"type": 14, "text": "X", "channel": "C"}},
		{desc: "missing destination", request: body{"type": 12, "text": "X", "format": FormatSend}},
	}
	server := newTestServer()
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			code, response := do(t, server, http.MethodPost, "/encode", tc.request)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, response["error"])
		})
	}
}

func TestSend(t *testing.T) {
	tt := []struct {
		desc     string
		ack      sentence.Acknowledgement
		err      error
		expected int
	}{
		{desc: "acknowledged", ack: sentence.Acknowledgement{Type: sentence.AckReceived}, expected: http.StatusOK},
		{desc: "timeout", err: fmt.Errorf("%w within 1s", send.ErrTimeout), expected: http.StatusGatewayTimeout},
		{desc: "negative", ack: sentence.Acknowledgement{Type: sentence.AckNotReceived}, err: fmt.Errorf("%w: not received", send.ErrNegativeAck), expected: http.StatusBadGateway},
		{desc: "sequence in use", err: send.ErrSequenceInUse, expected: http.StatusConflict},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			sender := &fakeSender{ack: tc.ack, err: tc.err}
			server := newTestServer(WithSender(sender, time.Second))

			code, _ := do(t, server, http.MethodPost, "/send", body{
				"type":        12,
				"destination": 219593000,
				"sequence":    1,
				"channel":     "B",
				"text":        "test from frv",
			})

			assert.Equal(t, tc.expected, code)
			require.Len(t, sender.requests, 1)
			assert.Equal(t, send.ChannelB, sender.requests[0].Channel)
			assert.Equal(t, 1, sender.requests[0].Sequence)
			assert.Equal(t, "TEST FROM FRV", sender.requests[0].Message.(message.AddressedSafety).Text)
		})
	}
}

func TestSendWithoutTransponder(t *testing.T) {
	server := newTestServer()
	code, _ := do(t, server, http.MethodPost, "/send", body{"type": 14, "text": "X"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

type body map[string]interface{}
