package serial

import (
	"errors"
	"io"
	"strings"

	"github.com/jacobsa/go-serial/serial"

	"github.com/ftl/ais-nmea/com"
)

var (
	ErrNoReceiverFound = errors.New("no AIS receiver found")
)

// DefaultBaudRate is the NMEA 0183 high speed baud rate used by AIS equipment.
const DefaultBaudRate = 38400

// Keywords in the descriptions of USB serial devices that identify AIS receivers and transponders.
var receiverKeywords = []string{"ais", "daisy", "quark", "em-trak", "comar"}

func isReceiver(description string) bool {
	description = strings.ToLower(description)
	for _, keyword := range receiverKeywords {
		if strings.Contains(description, keyword) {
			return true
		}
	}
	return false
}

// Open opens the serial port and starts a session on it. The returned closer closes the port.
func Open(portName string, baudRate int, options ...com.Option) (*com.COM, io.Closer, error) {
	device, err := OpenDevice(portName, baudRate)
	if err != nil {
		return nil, nil, err
	}

	return com.New(device, options...), device, nil
}

// OpenWithTrace opens the serial port and starts a session that traces all communication.
func OpenWithTrace(portName string, baudRate int, tracer io.Writer, options ...com.Option) (*com.COM, io.Closer, error) {
	device, err := OpenDevice(portName, baudRate)
	if err != nil {
		return nil, nil, err
	}

	return com.NewWithTrace(device, tracer, options...), device, nil
}

// OpenDevice opens the serial port with 8N1 framing.
func OpenDevice(portName string, baudRate int) (io.ReadWriteCloser, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	portConfig := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       1,
		InterCharacterTimeout: 100,
	}

	return serial.Open(portConfig)
}
