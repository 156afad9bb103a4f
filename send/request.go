package send

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/sentence"
)

var (
	ErrNotSendable      = errors.New("message cannot be sent")
	ErrInvalidSequence  = errors.New("invalid sequence number")
	ErrMissingRecipient = errors.New("addressed message without destination")
)

// MaxSequence is the largest sequence number of an ABM or BBM sentence.
const MaxSequence = 3

// Channel selections for ABM and BBM sentences.
const (
	AnyChannel  = 0
	ChannelA    = 1
	ChannelB    = 2
	BothChannel = 3
)

// Request is a message to be transmitted by an AIS transponder.
type Request struct {
	Message message.Message
	// Sequence identifies the request in the acknowledgement of the transponder, 0-3.
	Sequence int
	// Channel selects the transmission channel, 0-3.
	Channel int
}

// NewRequest creates a request for any channel.
func NewRequest(m message.Message, sequence int) Request {
	return Request{Message: m, Sequence: sequence, Channel: AnyChannel}
}

// Sentences encodes the request into ABM sentences for addressed messages (6 and 12) or BBM
// sentences for broadcast messages (8 and 14).
func (r Request) Sentences(talker string) ([]string, error) {
	if r.Sequence < 0 || r.Sequence > MaxSequence {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSequence, r.Sequence)
	}
	if r.Channel < AnyChannel || r.Channel > BothChannel {
		return nil, fmt.Errorf("invalid channel selection %d", r.Channel)
	}
	if r.Message == nil {
		return nil, fmt.Errorf("%w: no message", ErrNotSendable)
	}
	envelope, payload, fillBits, err := message.EncodeEncapsulated(r.Message)
	if errors.Is(err, message.ErrNotEncapsulated) {
		return nil, fmt.Errorf("%w: %v", ErrNotSendable, err)
	}
	if err != nil {
		return nil, err
	}

	template := sentence.Fragment{
		Talker:     talker,
		SequenceID: r.Sequence,
		Channel:    strconv.Itoa(r.Channel),
		MessageID:  envelope.MessageID,
	}
	maxChars := sentence.MaxBBMPayload
	if envelope.Addressed() {
		if envelope.Destination == ais.Broadcast {
			return nil, ErrMissingRecipient
		}
		template.Formatter = sentence.ABM
		template.Destination = envelope.Destination
		maxChars = sentence.MaxABMPayload
	} else {
		template.Formatter = sentence.BBM
	}

	fragments, err := sentence.Split(template, payload, fillBits, maxChars)
	if err != nil {
		return nil, err
	}
	result := make([]string, len(fragments))
	for i, fragment := range fragments {
		result[i] = fragment.Encode()
	}
	return result, nil
}
