package send

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ftl/ais-nmea/sentence"
)

var (
	ErrTimeout       = errors.New("no acknowledgement received")
	ErrNegativeAck   = errors.New("negative acknowledgement")
	ErrSequenceInUse = errors.New("sequence number is already in use")
)

// Result is the outcome of a pending send.
type Result struct {
	Sequence int
	Ack      sentence.Acknowledgement
	Err      error
}

// Correlator matches acknowledgements to pending sends by their sequence number.
// A Correlator is safe for concurrent use.
type Correlator struct {
	mu      sync.Mutex
	pending map[int]*Pending
}

// NewCorrelator creates an empty Correlator.
func NewCorrelator() *Correlator {
	return &Correlator{
		pending: make(map[int]*Pending),
	}
}

// Pending is a send waiting for its acknowledgement. It is resolved exactly once, either by an
// acknowledgement, by its timeout or by cancellation.
type Pending struct {
	Sequence int

	correlator *Correlator
	timer      *time.Timer
	done       chan struct{}

	mu        sync.Mutex
	resolved  bool
	result    Result
	callbacks []func(Result)
}

// Register a pending send for the given sequence number. If no acknowledgement arrives within
// the timeout, the send resolves with ErrTimeout and the sequence number becomes free again.
func (c *Correlator) Register(sequence int, timeout time.Duration) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[sequence]; ok {
		return nil, fmt.Errorf("%w: %d", ErrSequenceInUse, sequence)
	}
	result := &Pending{
		Sequence:   sequence,
		correlator: c,
		done:       make(chan struct{}),
	}
	c.pending[sequence] = result
	result.timer = time.AfterFunc(timeout, func() {
		c.complete(result, Result{Sequence: sequence, Err: fmt.Errorf("%w within %v", ErrTimeout, timeout)})
	})
	return result, nil
}

// Resolve the pending send matching the sequence number of the given acknowledgement.
// Resolve returns false if no send is pending for this sequence number.
func (c *Correlator) Resolve(ack sentence.Acknowledgement) bool {
	c.mu.Lock()
	p, ok := c.pending[ack.Sequence]
	c.mu.Unlock()
	if !ok {
		return false
	}

	result := Result{Sequence: ack.Sequence, Ack: ack}
	if !ack.Type.Success() {
		result.Err = fmt.Errorf("%w: %s", ErrNegativeAck, ack.Type)
	}
	return c.complete(p, result)
}

// Len returns the number of pending sends.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Correlator) complete(p *Pending, result Result) bool {
	c.mu.Lock()
	if c.pending[p.Sequence] != p {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, p.Sequence)
	timer := p.timer
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	p.finish(result)
	return true
}

func (p *Pending) finish(result Result) {
	p.mu.Lock()
	p.resolved = true
	p.result = result
	callbacks := p.callbacks
	p.callbacks = nil
	close(p.done)
	p.mu.Unlock()

	for _, callback := range callbacks {
		callback(result)
	}
}

// Done is closed when the send is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// OnResult registers a callback for the result. If the send is already resolved, the callback
// is called immediately.
func (p *Pending) OnResult(callback func(Result)) {
	p.mu.Lock()
	if !p.resolved {
		p.callbacks = append(p.callbacks, callback)
		p.mu.Unlock()
		return
	}
	result := p.result
	p.mu.Unlock()
	callback(result)
}

// Cancel resolves the send with the given error, unless it is already resolved.
func (p *Pending) Cancel(err error) {
	p.correlator.complete(p, Result{Sequence: p.Sequence, Err: err})
}

// Wait blocks until the send is resolved or the context is done. If the context is done first,
// the send is cancelled with the context's error.
func (p *Pending) Wait(ctx context.Context) (sentence.Acknowledgement, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.Cancel(ctx.Err())
		<-p.done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result.Ack, p.result.Err
}
