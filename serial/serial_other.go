//go:build !linux

package serial

// FindReceiverPortName is only supported on linux.
func FindReceiverPortName() (string, error) {
	return "", ErrNoReceiverFound
}
