package sentence

import (
	"fmt"
	"sync"
)

// Split divides an armored payload into fragments of at most maxChars payload characters. The
// fragments take their addressing from the template, only the last fragment carries fill bits.
func Split(template Fragment, armored string, fillBits int, maxChars int) ([]Fragment, error) {
	if maxChars < 1 {
		return nil, fmt.Errorf("invalid maximum payload length %d", maxChars)
	}
	if fillBits < 0 || fillBits > 5 {
		return nil, fmt.Errorf("invalid number of fill bits %d", fillBits)
	}
	total := (len(armored) + maxChars - 1) / maxChars
	if total == 0 {
		total = 1
	}
	if total > 9 {
		return nil, fmt.Errorf("payload of %d characters needs %d sentences, at most 9 are allowed", len(armored), total)
	}

	result := make([]Fragment, 0, total)
	for i := 0; i < total; i++ {
		end := (i + 1) * maxChars
		if end > len(armored) {
			end = len(armored)
		}
		fragment := template
		fragment.Total = total
		fragment.Index = i + 1
		fragment.Payload = armored[i*maxChars : end]
		if i == total-1 {
			fragment.FillBits = fillBits
		} else {
			fragment.FillBits = 0
		}
		result = append(result, fragment)
	}
	return result, nil
}

// Fragmenter splits outgoing payloads into sentences. Multi-sentence messages without a
// sequence ID in the template get a rolling sequence ID 0-9. A Fragmenter is safe for
// concurrent use.
type Fragmenter struct {
	template Fragment
	maxChars int

	mu   sync.Mutex
	next int
}

// NewFragmenter creates a Fragmenter for the given template and maximum payload length.
func NewFragmenter(template Fragment, maxChars int) *Fragmenter {
	return &Fragmenter{
		template: template,
		maxChars: maxChars,
	}
}

// NewVDMFragmenter creates a Fragmenter for VDM sentences on the given channel.
func NewVDMFragmenter(talker string, channel string) *Fragmenter {
	return NewFragmenter(Fragment{
		Talker:     talker,
		Formatter:  VDM,
		SequenceID: NoSequence,
		Channel:    channel,
		MessageID:  -1,
	}, MaxVDMPayload)
}

// Sentences splits the payload and renders the resulting sentences.
func (f *Fragmenter) Sentences(armored string, fillBits int) ([]string, error) {
	template := f.template
	if template.SequenceID == NoSequence && len(armored) > f.maxChars {
		template.SequenceID = f.nextSequenceID()
	}
	fragments, err := Split(template, armored, fillBits, f.maxChars)
	if err != nil {
		return nil, err
	}
	result := make([]string, len(fragments))
	for i, fragment := range fragments {
		result[i] = fragment.Encode()
	}
	return result, nil
}

func (f *Fragmenter) nextSequenceID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := f.next
	f.next = (f.next + 1) % 10
	return result
}
