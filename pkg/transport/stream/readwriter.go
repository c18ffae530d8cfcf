// Package stream carries frames over byte streams: TCP connections and
// serial lines.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultMaxFrame bounds the size of a received frame.
const DefaultMaxFrame = 4096

// FrameTooLargeError reports a length prefix above the limit.
type FrameTooLargeError struct {
	Size, Max uint32
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("stream: frame of %d bytes exceeds %d", e.Size, e.Max)
}

// ReadWriter implements transport.FrameReadWriter.
// Each frame is prefixed by 4 bytes (little-endian) indicating the length.
type ReadWriter struct {
	io.ReadWriter
	MaxFrame uint32
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s, MaxFrame: DefaultMaxFrame}
}

// ReadFrame implements transport.FrameReader.
func (p *ReadWriter) ReadFrame() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if p.MaxFrame > 0 && size > p.MaxFrame {
		return nil, &FrameTooLargeError{Size: size, Max: p.MaxFrame}
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(p.ReadWriter, frame); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// WriteFrame implements transport.FrameWriter. The prefix and the frame
// go out in a single write.
func (p *ReadWriter) WriteFrame(frame []byte) error {
	buf := make([]byte, 4+len(frame))
	binary.LittleEndian.PutUint32(buf, uint32(len(frame)))
	copy(buf[4:], frame)
	_, err := p.Write(buf)
	return err
}

// Close closes the underlying stream if it is an io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
