package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReceiver(t *testing.T) {
	tt := []struct {
		desc        string
		description string
		expected    bool
	}{
		{desc: "dAISy", description: "dAISy AIS Receiver", expected: true},
		{desc: "transponder", description: "em-trak B100", expected: true},
		{desc: "quark", description: "Quark-elec QK-A026", expected: true},
		{desc: "GPS mouse", description: "u-blox 7 - GPS/GNSS Receiver", expected: false},
		{desc: "empty", description: "", expected: false},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, isReceiver(tc.description))
		})
	}
}
