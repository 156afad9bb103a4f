package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ftl/ais-nmea/com"
	"github.com/ftl/ais-nmea/config"
	"github.com/ftl/ais-nmea/serial"
)

var errConnectionClosed = errors.New("connection closed")

type readOnly struct {
	io.Reader
}

func (readOnly) Write(p []byte) (int, error) {
	return len(p), nil
}

// SessionHandler is called for every new session on the configured source.
type SessionHandler func(*com.COM)

// runSource reads from the configured source until the context is done or the source is exhausted.
// TCP sources are reconnected when the connection is lost.
func (e *environment) runSource(ctx context.Context, onSession SessionHandler, options ...com.Option) error {
	source := e.cfg.Source
	log := e.log.WithField("source", source.Kind)

	switch source.Kind {
	case config.SourceSerial:
		portName, err := e.serialPortName()
		if err != nil {
			return err
		}
		var session *com.COM
		var closer io.Closer
		if e.tracer != nil {
			session, closer, err = serial.OpenWithTrace(portName, source.Baud, e.tracer, e.sessionOptions(options...)...)
		} else {
			session, closer, err = serial.Open(portName, source.Baud, e.sessionOptions(options...)...)
		}
		if err != nil {
			return fmt.Errorf("cannot open serial port %s: %w", portName, err)
		}
		defer closer.Close()
		log.WithField("port", portName).Info("serial port opened")
		return waitForSession(ctx, session, onSession)
	case config.SourceTCP:
		dialer := com.RoundRobinDialer{
			Hosts:          source.Hosts,
			ReconnectDelay: source.ReconnectDelay(),
			MaxDelay:       source.MaxReconnectDelay(),
			DialTimeout:    source.DialTimeoutDuration(),
			Log:            log,
		}
		return dialer.Run(ctx, func(ctx context.Context, conn io.ReadWriter) error {
			err := waitForSession(ctx, e.newSession(conn, options...), onSession)
			if err == nil {
				return errConnectionClosed
			}
			return err
		})
	case config.SourceFile:
		file, err := os.Open(source.File)
		if err != nil {
			return err
		}
		defer file.Close()
		log.WithField("file", source.File).Info("reading file")
		return waitForSession(ctx, e.newSession(readOnly{file}, options...), onSession)
	default:
		return fmt.Errorf("unknown source kind %q", source.Kind)
	}
}

// openTransponder connects to a device that can send messages. TCP sources connect to the first
// reachable host without reconnecting.
func (e *environment) openTransponder(ctx context.Context, options ...com.Option) (*com.COM, io.Closer, error) {
	source := e.cfg.Source
	switch source.Kind {
	case config.SourceSerial:
		portName, err := e.serialPortName()
		if err != nil {
			return nil, nil, err
		}
		device, err := serial.OpenDevice(portName, source.Baud)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open serial port %s: %w", portName, err)
		}
		return e.newSession(device, options...), device, nil
	case config.SourceTCP:
		dialer := net.Dialer{Timeout: source.DialTimeoutDuration()}
		var lastErr error
		for _, host := range source.Hosts {
			conn, err := dialer.DialContext(ctx, "tcp", host)
			if err != nil {
				e.log.WithError(err).WithField("host", host).Warn("cannot connect")
				lastErr = err
				continue
			}
			e.log.WithField("host", host).Info("connected")
			return e.newSession(conn, options...), conn, nil
		}
		return nil, nil, fmt.Errorf("cannot connect to any host: %w", lastErr)
	default:
		return nil, nil, fmt.Errorf("cannot send through a %s source", source.Kind)
	}
}

func (e *environment) serialPortName() (string, error) {
	if e.cfg.Source.Port != "" {
		return e.cfg.Source.Port, nil
	}
	portName, err := serial.FindReceiverPortName()
	if err != nil {
		return "", err
	}
	e.log.WithFields(logrus.Fields{"port": portName}).Info("found AIS device")
	return portName, nil
}

func waitForSession(ctx context.Context, session *com.COM, onSession SessionHandler) error {
	if onSession != nil {
		onSession(session)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-session.Done():
		return nil
	}
}
