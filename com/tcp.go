package com

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults of the RoundRobinDialer.
const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultMaxDelay       = time.Minute
	DefaultDialTimeout    = 10 * time.Second
)

// ParseHosts splits a comma separated list of host:port addresses.
func ParseHosts(s string) []string {
	result := make([]string, 0)
	for _, host := range strings.Split(s, ",") {
		host = strings.TrimSpace(host)
		if host != "" {
			result = append(result, host)
		}
	}
	return result
}

// RoundRobinDialer keeps a TCP connection to one of several AIS sources. When a connection
// cannot be established or is lost, it waits and continues with the next host. The delay
// doubles with every failed attempt, up to MaxDelay.
type RoundRobinDialer struct {
	Hosts          []string
	ReconnectDelay time.Duration
	MaxDelay       time.Duration
	DialTimeout    time.Duration
	Log            *logrus.Entry
}

// ConnectionHandler serves an established connection until it fails or the context is done.
type ConnectionHandler func(ctx context.Context, conn io.ReadWriter) error

// Run connects to the hosts in turn and calls the handler for each established connection,
// until the context is done.
func (d *RoundRobinDialer) Run(ctx context.Context, handle ConnectionHandler) error {
	if len(d.Hosts) == 0 {
		return errors.New("no hosts to connect to")
	}
	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	reconnectDelay := valueOrDefault(d.ReconnectDelay, DefaultReconnectDelay)
	maxDelay := valueOrDefault(d.MaxDelay, DefaultMaxDelay)
	dialer := net.Dialer{Timeout: valueOrDefault(d.DialTimeout, DefaultDialTimeout)}

	delay := reconnectDelay
	for i := 0; ; i = (i + 1) % len(d.Hosts) {
		host := d.Hosts[i]
		hostLog := log.WithField("host", host)

		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err == nil {
			hostLog.Info("connected")
			delay = reconnectDelay
			err = handle(ctx, conn)
			conn.Close()
			hostLog.WithError(err).Info("disconnected")
		} else {
			hostLog.WithError(err).Warn("cannot connect")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func valueOrDefault(value, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	return value
}
