package input

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"
)

// LineReader reads command lines from a terminal or a script
type LineReader struct {
	r      *bufio.Reader
	device Device
}

// NewLineReader wraps r; device records where the lines come from
func NewLineReader(r io.Reader, device Device) *LineReader {
	return &LineReader{r: bufio.NewReader(r), device: device}
}

// ReadLine reads one raw line. It returns io.EOF once the input is
// exhausted; a final line without a newline is still returned.
func (l *LineReader) ReadLine() (RawInput, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return RawInput{}, err
	}
	if err != nil && line == "" {
		return RawInput{}, io.EOF
	}
	return RawInput{Device: l.device, Line: strings.TrimRight(line, "\r\n"), Timestamp: time.Now()}, nil
}
