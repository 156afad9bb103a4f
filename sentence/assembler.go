package sentence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// Status is the outcome of putting a sentence into the Assembler.
type Status int

// The status values.
const (
	Malformed  Status = -1
	Complete   Status = 0
	Incomplete Status = 1
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Incomplete:
		return "incomplete"
	default:
		return "malformed"
	}
}

// Defaults for the Assembler.
const (
	DefaultMaxAge    = 10 * time.Second
	DefaultMaxGroups = 64
)

// Payload is the complete armored payload of a message, concatenated from all of its fragments.
type Payload struct {
	Talker      string
	Formatter   string
	Channel     string
	SequenceID  int
	Destination ais.MMSI
	MessageID   int
	Armored     string
	FillBits    int
	Sentences   []string
}

// Reader returns a bit reader for the payload.
func (p Payload) Reader() (*sixbit.Reader, error) {
	return sixbit.NewReader(p.Armored, p.FillBits)
}

// BitLength returns the number of payload bits.
func (p Payload) BitLength() int {
	return sixbit.BitLength(len(p.Armored), p.FillBits)
}

// Fault describes a group of fragments that was dropped without producing a message.
type Fault struct {
	Reason    string
	Sentences []string
}

func (f Fault) String() string {
	return fmt.Sprintf("%s: %s", f.Reason, strings.Join(f.Sentences, " "))
}

// FaultCallback is called for each dropped group of fragments.
type FaultCallback func(Fault)

type groupKey struct {
	address  string
	sequence int
	channel  string
}

type group struct {
	total     int
	last      int
	started   time.Time
	order     uint64
	first     Fragment
	armored   strings.Builder
	sentences []string
}

// Assembler collects the fragments of multi-sentence messages and concatenates their payloads.
// Fragments of different messages may interleave if they carry different sequence IDs or are
// received on different channels. An Assembler is not safe for concurrent use.
type Assembler struct {
	groups        map[groupKey]*group
	maxAge        time.Duration
	maxGroups     int
	now           func() time.Time
	faultCallback FaultCallback
	counter       uint64
}

// NewAssembler creates an Assembler with the default limits.
func NewAssembler() *Assembler {
	return &Assembler{
		groups:    make(map[groupKey]*group),
		maxAge:    DefaultMaxAge,
		maxGroups: DefaultMaxGroups,
		now:       time.Now,
	}
}

// WithFaultCallback sets the callback that is notified about dropped fragment groups.
func (a *Assembler) WithFaultCallback(callback FaultCallback) *Assembler {
	a.faultCallback = callback
	return a
}

// WithMaxAge sets the maximum time between the first and the last fragment of a message.
func (a *Assembler) WithMaxAge(maxAge time.Duration) *Assembler {
	a.maxAge = maxAge
	return a
}

// WithMaxGroups limits the number of incomplete messages that are kept at the same time.
func (a *Assembler) WithMaxGroups(maxGroups int) *Assembler {
	a.maxGroups = maxGroups
	return a
}

// WithClock sets the time source used for expiring incomplete messages.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Pending returns the number of incomplete messages.
func (a *Assembler) Pending() int {
	return len(a.groups)
}

// Put parses the given line and adds it to the assembler.
func (a *Assembler) Put(line string) (Status, Payload, error) {
	frame, err := Parse(line)
	if err != nil {
		return Malformed, Payload{}, err
	}
	return a.PutFrame(frame, line)
}

// PutFrame adds an already parsed frame to the assembler. The line is kept for diagnostics.
func (a *Assembler) PutFrame(frame Frame, line string) (Status, Payload, error) {
	fragment, err := ParseFragment(frame)
	if err != nil {
		return Malformed, Payload{}, err
	}
	return a.PutFragment(fragment, line)
}

// PutFragment adds a fragment to the assembler. A fragment that does not continue its group
// drops the group; if it is the first fragment of a message, it starts a new group.
func (a *Assembler) PutFragment(fragment Fragment, line string) (Status, Payload, error) {
	now := a.now()
	a.expire(now)

	if fragment.Total == 1 {
		g := &group{total: 1, started: now}
		g.add(fragment, line)
		return Complete, g.payload(), nil
	}

	key := groupKey{
		address:  fragment.Talker + fragment.Formatter,
		sequence: fragment.SequenceID,
		channel:  fragment.Channel,
	}
	g, ok := a.groups[key]
	if ok && (g.total != fragment.Total || fragment.Index != g.last+1) {
		delete(a.groups, key)
		a.fault(fmt.Sprintf("fragment %d of %d does not continue at %d of %d", fragment.Index, fragment.Total, g.last, g.total), append(g.sentences, line))
		ok = false
	}
	if !ok {
		if fragment.Index != 1 {
			a.fault(fmt.Sprintf("fragment %d of %d without its predecessors", fragment.Index, fragment.Total), []string{line})
			return Incomplete, Payload{}, nil
		}
		a.counter++
		g = &group{total: fragment.Total, started: now, order: a.counter}
		a.groups[key] = g
		a.limit()
	}

	g.add(fragment, line)
	if g.last < g.total {
		return Incomplete, Payload{}, nil
	}
	delete(a.groups, key)
	return Complete, g.payload(), nil
}

func (a *Assembler) expire(now time.Time) {
	if a.maxAge <= 0 {
		return
	}
	for key, g := range a.groups {
		if now.Sub(g.started) > a.maxAge {
			delete(a.groups, key)
			a.fault("expired", g.sentences)
		}
	}
}

func (a *Assembler) limit() {
	if a.maxGroups <= 0 || len(a.groups) <= a.maxGroups {
		return
	}
	keys := make([]groupKey, 0, len(a.groups))
	for key := range a.groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := a.groups[keys[i]], a.groups[keys[j]]
		if gi.started.Equal(gj.started) {
			return gi.order < gj.order
		}
		return gi.started.Before(gj.started)
	})
	for _, key := range keys[:len(keys)-a.maxGroups] {
		g := a.groups[key]
		delete(a.groups, key)
		a.fault("too many incomplete messages", g.sentences)
	}
}

func (a *Assembler) fault(reason string, sentences []string) {
	if a.faultCallback == nil {
		return
	}
	a.faultCallback(Fault{Reason: reason, Sentences: sentences})
}

func (g *group) add(fragment Fragment, line string) {
	if g.last == 0 {
		g.first = fragment
	}
	g.last = fragment.Index
	g.armored.WriteString(fragment.Payload)
	g.sentences = append(g.sentences, line)
	g.first.FillBits = fragment.FillBits
}

func (g *group) payload() Payload {
	result := Payload{
		Talker:      g.first.Talker,
		Formatter:   g.first.Formatter,
		Channel:     g.first.Channel,
		SequenceID:  g.first.SequenceID,
		Destination: g.first.Destination,
		MessageID:   g.first.MessageID,
		Armored:     g.armored.String(),
		FillBits:    g.first.FillBits,
		Sentences:   g.sentences,
	}
	if result.MessageID < 0 && len(result.Armored) > 0 {
		if v, err := sixbit.Dearmor(result.Armored[0]); err == nil {
			result.MessageID = int(v)
		}
	}
	return result
}
