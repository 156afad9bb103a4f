package com

import (
	"io"
	"strings"
	"sync"
	"time"
)

// NewInMemory creates an in-memory device. It is meant for testing sessions without a
// receiver or transponder.
func NewInMemory() *InMemory {
	result := &InMemory{
		writeSignal: make(chan struct{}, 1),
	}
	result.readable = sync.NewCond(&result.mu)
	return result
}

// InMemory is an io.ReadWriteCloser that reads prepared data and records everything written to it.
type InMemory struct {
	mu             sync.Mutex
	readable       *sync.Cond
	readBuffer     []byte
	writeBuffer    []byte
	writeSignal    chan struct{}
	closed         bool
	closeWhenEmpty bool
}

func (d *InMemory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.readable.Broadcast()
	return nil
}

func (d *InMemory) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.readBuffer) == 0 && !d.closed {
		d.readable.Wait()
	}
	if len(d.readBuffer) == 0 {
		return 0, io.EOF
	}

	n := copy(p, d.readBuffer)
	d.readBuffer = d.readBuffer[n:]
	if d.closeWhenEmpty && len(d.readBuffer) == 0 {
		d.closed = true
	}
	return n, nil
}

// PrepareRead appends data to be read from the device.
func (d *InMemory) PrepareRead(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readBuffer = append(d.readBuffer, p...)
	d.readable.Broadcast()
}

// PrepareLines appends lines, terminated with CR LF, to be read from the device.
func (d *InMemory) PrepareLines(lines ...string) {
	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString("\r\n")
	}
	d.PrepareRead([]byte(buf.String()))
}

// IsReadEmpty reports whether all prepared data was read.
func (d *InMemory) IsReadEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.readBuffer) == 0
}

// CloseWhenEmpty lets the device close itself once all prepared data was read.
func (d *InMemory) CloseWhenEmpty(value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeWhenEmpty = value
	if value && len(d.readBuffer) == 0 {
		d.closed = true
		d.readable.Broadcast()
	}
}

func (d *InMemory) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	d.writeBuffer = append(d.writeBuffer, p...)
	select {
	case d.writeSignal <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Written returns everything written to the device.
func (d *InMemory) Written() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]byte, len(d.writeBuffer))
	copy(result, d.writeBuffer)
	return result
}

// WrittenLines returns the lines written to the device.
func (d *InMemory) WrittenLines() []string {
	result := []string{}
	for _, line := range strings.Split(string(d.Written()), "\r\n") {
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

// ClearWrite forgets everything written so far.
func (d *InMemory) ClearWrite() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeBuffer = nil
}

// WaitUntilWritten blocks until the next write or the timeout, and reports whether a write happened.
func (d *InMemory) WaitUntilWritten(timeout time.Duration) bool {
	select {
	case <-d.writeSignal:
		return true
	case <-time.After(timeout):
		return false
	}
}
