package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

var testRoute = RouteInformation{
	LinkID:      10,
	SenderClass: SenderAuthority,
	RouteType:   RouteRecommended,
	Start:       Timestamp{Month: 1, Day: 13, Hour: 16, Minute: 50},
	Duration:    35,
	Waypoints: []ais.Position{
		ais.PositionFromDegrees(55.845283333333334, 12.704933333333333),
		ais.PositionFromDegrees(55.913383333333336, 12.6453),
		ais.PositionFromDegrees(55.93476666666667, 12.644016666666667),
		ais.PositionFromDegrees(55.97728333333333, 12.7015),
		ais.PositionFromDegrees(56.00, 12.8),
		ais.PositionFromDegrees(56.10, 12.9),
	},
}

var testAreaNotice = AreaNotice{
	Notice:   0,
	Start:    Timestamp{Month: 1, Day: 13, Hour: 16, Minute: 50},
	Duration: 35,
	SubAreas: []SubArea{
		{Shape: 2, Scale: 1, Longitude: 1233, Latitude: 14441, Precision: 4, Radius: 12, LeftBound: 15, RightBound: 7},
		{Shape: 1, Scale: 0, Longitude: 12333, Latitude: 144421, Precision: 2, Radius: 12, LeftBound: 15, RightBound: 7},
		{Shape: 3, Scale: 3, Longitude: 12333, Latitude: 144421, Precision: 2, Radius: 12, LeftBound: 15, RightBound: 7},
	},
}

func encode(t *testing.T, m Message) sixbit.Bits {
	t.Helper()
	w := sixbit.NewWriter()
	Encode(w, m)
	require.NoError(t, w.Err())
	return w.Bits()
}

func TestRoundtrip(t *testing.T) {
	addressedRoute := testRoute
	addressedRoute.Addressed = true
	addressedNotice := testAreaNotice
	addressedNotice.Addressed = true

	tt := []struct {
		desc   string
		value  Message
		length int
	}{
		{desc: "broadcast route", value: testRoute, length: 16 + 56 + 6*55},
		{desc: "addressed route", value: addressedRoute, length: 16 + 56 + 6*55},
		{desc: "route without waypoints", value: RouteInformation{LinkID: 1, Waypoints: []ais.Position{}}, length: 16 + 56},
		{desc: "broadcast area notice", value: testAreaNotice, length: 16 + 55 + 3*87},
		{desc: "addressed area notice", value: addressedNotice, length: 16 + 55 + 3*87},
		{desc: "text telegram", value: TextTelegram{AckRequired: true, Sequence: 1234, Text: "HELLO WORLD"}, length: 16 + 12 + 66},
		{desc: "text description", value: TextDescription{LinkID: 10, Text: "NO ANCHORING"}, length: 16 + 10 + 72},
		{desc: "addressed text description", value: TextDescription{Addressed: true, LinkID: 3, Text: "X"}, length: 16 + 10 + 6},
		{desc: "capability interrogation", value: CapabilityInterrogation{Requested: RouteBroadcastKey}, length: 32},
		{desc: "raw", value: Raw{ID: Key{DAC: 219, FI: 12}, Data: sixbit.Bits{1, 0, 1, 1}}, length: 20},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			bits := encode(t, tc.value)
			assert.Equal(t, tc.length, len(bits))

			actual, err := Decode(sixbit.NewBitsReader(bits))
			require.NoError(t, err)
			assert.Equal(t, tc.value, actual)
		})
	}
}

func TestRouteDegrees(t *testing.T) {
	actual, err := Decode(sixbit.NewBitsReader(encode(t, testRoute)))
	require.NoError(t, err)
	route := actual.(RouteInformation)
	require.Len(t, route.Waypoints, 6)
	lat, lon := route.Waypoints[0].Degrees()
	assert.InDelta(t, 55.845283333333334, lat, 1e-6)
	assert.InDelta(t, 12.704933333333333, lon, 1e-6)
	lat, lon = route.Waypoints[5].Degrees()
	assert.InDelta(t, 56.10, lat, 1e-6)
	assert.InDelta(t, 12.9, lon, 1e-6)
}

func TestMalformedTrailer(t *testing.T) {
	tt := []struct {
		desc  string
		value Message
		key   Key
	}{
		{desc: "route", value: testRoute, key: RouteBroadcastKey},
		{desc: "area notice", value: testAreaNotice, key: AreaNoticeBroadcastKey},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			bits := append(encode(t, tc.value), 0, 1, 0, 1, 0)

			actual, err := Decode(sixbit.NewBitsReader(bits))
			assert.ErrorIs(t, err, ErrMalformedTrailer)
			require.IsType(t, Raw{}, actual)
			raw := actual.(Raw)
			assert.Equal(t, tc.key, raw.Key())
			assert.Equal(t, len(bits)-16, len(raw.Data))
		})
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(sixbit.NewBitsReader(sixbit.Bits{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}))
	assert.ErrorIs(t, err, sixbit.ErrInsufficientBits)

	actual, err := Decode(sixbit.NewBitsReader(encode(t, Raw{ID: TextTelegramKey, Data: sixbit.Bits{1}})))
	assert.ErrorIs(t, err, sixbit.ErrInsufficientBits)
	assert.IsType(t, Raw{}, actual)
}

func TestParserSet(t *testing.T) {
	key := Key{DAC: 219, FI: 1}
	parser := NewParser()
	parser.Set(key, func(r *sixbit.Reader) (Message, error) {
		return TextDescription{LinkID: uint16(r.Uint(10))}, r.Err()
	})

	bits := encode(t, Raw{ID: key, Data: sixbit.Bits{0, 0, 0, 0, 0, 0, 0, 1, 0, 1}})
	actual, err := parser.Decode(sixbit.NewBitsReader(bits))
	require.NoError(t, err)
	assert.Equal(t, TextDescription{LinkID: 5}, actual)
}

func TestEncodeNil(t *testing.T) {
	w := sixbit.NewWriter()
	Encode(w, nil)
	assert.Error(t, w.Err())
}
