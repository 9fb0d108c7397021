// Package rig talks to the stamp handling rig over a serial line. The rig
// sends one command per line ("detect", "moved"); the host answers with one
// line per command ("retry", "complete").
package rig

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// Commands received from the rig.
const (
	CommandDetect = "detect" // a stamp is under the overview camera
	CommandMoved  = "moved"  // a stamp was moved in front of the side cameras
)

var ErrWriteFailed = errors.New("failed to write to serial port")

// Port is the part of a serial port the link uses.
type Port interface {
	io.ReadWriter
	io.Closer
}

// Link is a line oriented connection to the rig.
type Link struct {
	port    Port
	writeMu sync.Mutex
}

func NewLink(port Port) *Link {
	return &Link{port: port}
}

// Open opens the serial port at path.
func Open(path string, opts PortOptions) (*Link, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return NewLink(port), nil
}

// Send writes one command line to the rig.
func (l *Link) Send(command string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := l.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Listen reads lines from the rig until ctx is cancelled or the port is
// closed. Lines are trimmed and empty lines dropped. The returned error
// channel receives at most one read error; both channels are closed when
// reading stops.
func (l *Link) Listen(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(lines)
		scan := bufio.NewScanner(l.port)
		for scan.Scan() {
			line := strings.TrimSpace(scan.Text())
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return lines, errs
}

func (l *Link) Close() error {
	return l.port.Close()
}
