//go:build linux

package serial

import (
	"github.com/hedhyw/Go-Serial-Detector/pkg/v1/serialdet"
)

// FindReceiverPortName returns the path of the first serial device that looks like an AIS receiver.
func FindReceiverPortName() (string, error) {
	devices, err := serialdet.List()
	if err != nil {
		return "", err
	}

	for _, device := range devices {
		if isReceiver(device.Description()) {
			return device.Path(), nil
		}
	}

	return "", ErrNoReceiverFound
}
