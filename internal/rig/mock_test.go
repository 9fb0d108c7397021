package rig

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/StampPaper/internal/model"
)

// mockPort feeds scripted rig output and captures what the host writes.
type mockPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu       sync.Mutex
	written  bytes.Buffer
	writeErr error
	shortBy  int
	closed   bool
}

func newMockPort() *mockPort {
	r, w := io.Pipe()
	return &mockPort{r: r, w: w}
}

func (m *mockPort) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *mockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	n := len(p) - m.shortBy
	m.written.Write(p[:n])
	return n, nil
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return m.r.Close()
}

func (m *mockPort) output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// rig writes lines as the rig would, then hangs up.
func (m *mockPort) rig(lines ...string) {
	go func() {
		for _, l := range lines {
			if _, err := io.WriteString(m.w, l+"\n"); err != nil {
				return
			}
		}
		m.w.Close()
	}()
}

// sliceSource serves stamps from memory.
type sliceSource struct {
	stamps []model.Stamp
	err    error
	served int
	done   []string
}

func (s *sliceSource) Next() (model.Stamp, string, error) {
	if s.err != nil {
		return model.Stamp{}, "broken.jpg", s.err
	}
	if len(s.stamps) == 0 {
		return model.Stamp{}, "", ErrInboxEmpty
	}
	st := s.stamps[0]
	s.stamps = s.stamps[1:]
	s.served++
	return st, fmt.Sprintf("stamp%d.jpg", s.served), nil
}

func (s *sliceSource) Done(path string) error {
	s.done = append(s.done, path)
	return nil
}

func squares(n, size int) []model.Stamp {
	var out []model.Stamp
	for i := 0; i < n; i++ {
		out = append(out, model.NewStamp(image.NewNRGBA(image.Rect(0, 0, size, size))))
	}
	return out
}

// failingStore refuses every write.
type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) WriteSheet(image.Image) (string, int, error) { return "", 0, errDiskFull }
func (failingStore) WritePicture(int, int, image.Image) (string, error) { return "", errDiskFull }
func (failingStore) NextPictureIndex(int) (int, error) { return 0, nil }

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}
