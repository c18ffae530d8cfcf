//go:build !linux

package device

// Open opens a joystick.
func Open(int) (Device, error) {
	return nil, ErrUnsupported
}

// DetectAndOpen opens the first joystick from startIndex.
func DetectAndOpen(int) (Device, error) {
	return nil, ErrUnsupported
}
