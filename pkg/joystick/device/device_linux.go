//go:build linux

package device

import (
	"bytes"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const iocGNAME uint = 0x80ff6a13

// Open opens /dev/input/jsN.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	var buf [256]byte
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(iocGNAME), uintptr(unsafe.Pointer(&buf)))
	if errno != 0 {
		f.Close()
		return nil, errno
	}
	name := buf[:]
	if pos := bytes.IndexByte(name, 0); pos >= 0 {
		name = name[:pos]
	}
	return NewReader(f, string(name)), nil
}

// DetectAndOpen opens the first joystick from startIndex. It returns nil
// without error when there is none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}
