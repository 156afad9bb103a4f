package com

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
)

const (
	readBufferSize      = 1024
	sendingQueueTimeout = 500 * time.Millisecond

	// DefaultTalker is the talker ID used for sentences sent to a transponder.
	DefaultTalker = "AI"
)

// ErrClosed is returned when sending through a closed connection.
var ErrClosed = errors.New("connection closed")

// MessageCallback is called for each decoded message, together with the payload it was decoded from.
type MessageCallback func(message.Message, sentence.Payload)

// ErrorCallback is called for each line or message that could not be decoded.
type ErrorCallback func(err error, lines []string)

// SentenceHandler handles a parametric sentence, like an acknowledgement.
type SentenceHandler func(sentence.Frame)

// Option configures a COM instance.
type Option func(*COM)

// WithMessageCallback sets the callback for decoded messages.
func WithMessageCallback(callback MessageCallback) Option {
	return func(c *COM) {
		c.onMessage = callback
	}
}

// WithErrorCallback sets the callback for lines or messages that could not be decoded.
func WithErrorCallback(callback ErrorCallback) Option {
	return func(c *COM) {
		c.onError = callback
	}
}

// WithSentenceHandler registers a handler for sentences with the given formatter.
func WithSentenceHandler(formatter string, handler SentenceHandler) Option {
	return func(c *COM) {
		c.handlers[formatter] = handler
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *COM) {
		c.log = log
	}
}

// WithTalker sets the talker ID of sent sentences.
func WithTalker(talker string) Option {
	return func(c *COM) {
		c.talker = talker
	}
}

// WithAssemblerLimits sets how long and how many incomplete messages are kept.
func WithAssemblerLimits(maxAge time.Duration, maxGroups int) Option {
	return func(c *COM) {
		c.assembler.WithMaxAge(maxAge).WithMaxGroups(maxGroups)
	}
}

// WithParser sets the message parser.
func WithParser(parser *message.Parser) Option {
	return func(c *COM) {
		c.parser = parser
	}
}

// NewWithTrace creates a new COM instance that traces all communications to a second writer.
func NewWithTrace(device io.ReadWriter, tracer io.Writer, options ...Option) *COM {
	return New(device, append([]Option{withTracer(tracer)}, options...)...)
}

func withTracer(tracer io.Writer) Option {
	return func(c *COM) {
		c.tracer = tracer
	}
}

// New creates a new COM instance that reads sentences from the given device, reassembles and
// decodes them, and sends requests to the device.
func New(device io.ReadWriter, options ...Option) *COM {
	outgoing := make(chan transmission)
	result := &COM{
		outgoing:   outgoing,
		closed:     make(chan struct{}),
		log:        logrus.NewEntry(logrus.StandardLogger()),
		talker:     DefaultTalker,
		assembler:  sentence.NewAssembler(),
		parser:     message.NewParser(),
		correlator: send.NewCorrelator(),
		handlers:   make(map[string]SentenceHandler),
		counts:     make(map[int]int),
	}
	result.handlers[sentence.ABK] = result.acknowledge
	result.assembler.WithFaultCallback(result.fault)
	for _, option := range options {
		option(result)
	}

	lines := readLoop(device)
	go func() {
		result.trace("****\n* SESSION START\n****\n")
		defer close(result.closed)
		defer result.trace("****\n* SESSION END\n****\n")

		for {
			select {
			case line, valid := <-lines:
				if !valid {
					return
				}
				result.tracef("rx:  %s\n", line)
				result.handleLine(line)
			case tx := <-outgoing:
				tx.done <- result.write(device, tx.lines)
			}
		}
	}()

	return result
}

// COM reads and decodes AIS messages from a receiver and sends messages through a transponder.
type COM struct {
	outgoing chan<- transmission
	closed   chan struct{}
	tracer   io.Writer
	log      *logrus.Entry
	talker   string

	assembler  *sentence.Assembler
	parser     *message.Parser
	correlator *send.Correlator
	handlers   map[string]SentenceHandler
	onMessage  MessageCallback
	onError    ErrorCallback

	countsLock sync.Mutex
	counts     map[int]int
}

type transmission struct {
	lines []string
	done  chan error
}

func readLoop(r io.Reader) <-chan string {
	lines := make(chan string, 1)
	go func() {
		defer close(lines)
		buf := make([]byte, readBufferSize)
		currentLine := make([]byte, 0, readBufferSize)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[0:n] {
				switch {
				case b == '\n':
					if len(currentLine) == 0 {
						continue
					}
					lines <- string(currentLine)
					currentLine = currentLine[:0]
				case b < ' ':
					continue
				default:
					currentLine = append(currentLine, b)
				}
			}
			if err != nil {
				if len(currentLine) > 0 {
					lines <- string(currentLine)
				}
				return
			}
		}
	}()
	return lines
}

// Closed reports whether the device was closed.
func (c *COM) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Done is closed when the device was closed.
func (c *COM) Done() <-chan struct{} {
	return c.closed
}

// Counts returns the number of decoded messages per message ID.
func (c *COM) Counts() map[int]int {
	c.countsLock.Lock()
	defer c.countsLock.Unlock()
	result := make(map[int]int, len(c.counts))
	for id, count := range c.counts {
		result[id] = count
	}
	return result
}

// CountSummary lists the message counts ordered by message ID.
func (c *COM) CountSummary() string {
	counts := c.Counts()
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := ""
	for _, id := range ids {
		if result != "" {
			result += " "
		}
		result += fmt.Sprintf("%d:%d", id, counts[id])
	}
	return result
}

func (c *COM) handleLine(line string) {
	frame, err := sentence.Parse(line)
	if err != nil {
		c.reportError(err, []string{line})
		return
	}
	if handler, ok := c.handlers[frame.Formatter]; ok {
		handler(frame)
		return
	}
	if !sentence.Encapsulating(frame.Formatter) {
		c.log.WithField("formatter", frame.Formatter).Debug("ignoring sentence")
		return
	}

	status, payload, err := c.assembler.PutFrame(frame, line)
	if err != nil {
		c.reportError(err, []string{line})
		return
	}
	if status != sentence.Complete {
		return
	}

	msg, err := c.decode(payload)
	if err != nil {
		c.reportError(err, payload.Sentences)
		return
	}
	c.count(msg.MessageHeader().ID)
	c.log.WithFields(logrus.Fields{
		"id":   msg.MessageHeader().ID,
		"mmsi": msg.MessageHeader().UserID,
	}).Trace("message decoded")
	if c.onMessage != nil {
		c.onMessage(msg, payload)
	}
}

func (c *COM) decode(payload sentence.Payload) (message.Message, error) {
	return DecodePayload(c.parser, payload)
}

// DecodePayload decodes a complete payload with the given parser. ABM and BBM payloads are
// decoded as encapsulated messages.
func DecodePayload(parser *message.Parser, payload sentence.Payload) (message.Message, error) {
	r, err := payload.Reader()
	if err != nil {
		return nil, err
	}
	switch payload.Formatter {
	case sentence.ABM, sentence.BBM:
		envelope := message.Envelope{
			MessageID:   payload.MessageID,
			Destination: payload.Destination,
			Sequence:    envelopeSequence(payload.SequenceID),
		}
		return message.DecodeEncapsulated(envelope, ais.Broadcast, r)
	default:
		return parser.Decode(r)
	}
}

// A sentence without sequence number carries sequence 0.
func envelopeSequence(sequenceID int) uint8 {
	if sequenceID == sentence.NoSequence {
		return 0
	}
	return uint8(sequenceID & 3)
}

func (c *COM) count(id int) {
	c.countsLock.Lock()
	defer c.countsLock.Unlock()
	c.counts[id]++
}

func (c *COM) reportError(err error, lines []string) {
	c.log.WithError(err).WithField("lines", lines).Debug("cannot decode")
	if c.onError != nil {
		c.onError(err, lines)
	}
}

func (c *COM) fault(f sentence.Fault) {
	c.log.WithField("lines", f.Sentences).Debugf("dropped incomplete message: %s", f.Reason)
}

func (c *COM) acknowledge(frame sentence.Frame) {
	ack, err := sentence.ParseABK(frame)
	if err != nil {
		c.reportError(err, []string{frame.Encode()})
		return
	}
	if !c.correlator.Resolve(ack) {
		c.log.WithFields(logrus.Fields{
			"sequence": ack.Sequence,
			"type":     ack.Type,
		}).Debug("acknowledgement without pending send")
	}
}

func (c *COM) write(device io.Writer, lines []string) error {
	for _, line := range lines {
		c.tracef("tx:  %s\n", line)
		if _, err := io.WriteString(device, line+"\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// Send transmits the request and waits for its acknowledgement. The send fails with
// send.ErrTimeout if no acknowledgement arrives within the timeout.
func (c *COM) Send(ctx context.Context, request send.Request, timeout time.Duration) (sentence.Acknowledgement, error) {
	pending, err := c.SendAsync(ctx, request, timeout)
	if err != nil {
		return sentence.Acknowledgement{}, err
	}
	return pending.Wait(ctx)
}

// SendAsync transmits the request and returns without waiting for the acknowledgement.
func (c *COM) SendAsync(ctx context.Context, request send.Request, timeout time.Duration) (*send.Pending, error) {
	lines, err := request.Sentences(c.talker)
	if err != nil {
		return nil, err
	}
	pending, err := c.correlator.Register(request.Sequence, timeout)
	if err != nil {
		return nil, err
	}
	if err := c.Transmit(ctx, lines...); err != nil {
		pending.Cancel(err)
		return nil, err
	}
	return pending, nil
}

// Transmit writes the given sentences to the device.
func (c *COM) Transmit(ctx context.Context, lines ...string) error {
	tx := transmission{
		lines: lines,
		done:  make(chan error, 1),
	}

	select {
	case c.outgoing <- tx:
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sendingQueueTimeout):
		return fmt.Errorf("sending queue timeout")
	}

	select {
	case err := <-tx.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *COM) trace(args ...interface{}) {
	if c.tracer == nil {
		return
	}
	fmt.Fprint(c.tracer, args...)
}

func (c *COM) tracef(format string, args ...interface{}) {
	if c.tracer == nil {
		return
	}
	fmt.Fprintf(c.tracer, format, args...)
}
