package serialmux

import (
	"io"
	"sync"
)

// MockPort implements SerialPorter for testing. Reads serve the queued data
// in caller-defined chunk sizes, then block until more data arrives or the
// port closes, mimicking a quiet serial line.
type MockPort struct {
	mu          sync.Mutex
	cond        *sync.Cond
	pending     [][]byte
	WrittenData []byte
	ReadError   error
	WriteError  error
	CloseError  error
	Closed      bool
}

// NewMockPort returns a MockPort preloaded with the given chunks. Each chunk
// is served by exactly one Read call.
func NewMockPort(chunks ...[]byte) *MockPort {
	m := &MockPort{}
	m.cond = sync.NewCond(&m.mu)
	for _, c := range chunks {
		m.pending = append(m.pending, c)
	}
	return m
}

// Feed queues another chunk for a later Read.
func (m *MockPort) Feed(chunk []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, chunk)
	m.cond.Broadcast()
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) == 0 && !m.Closed && m.ReadError == nil {
		m.cond.Wait()
	}
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if len(m.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.pending[0])
	if n < len(m.pending[0]) {
		m.pending[0] = m.pending[0][n:]
	} else {
		m.pending = m.pending[1:]
	}
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	m.cond.Broadcast()
	return m.CloseError
}

// NewMockMux creates a Mux backed by a mock port preloaded with data.
func NewMockMux(chunks ...[]byte) (*Mux, *MockPort) {
	port := NewMockPort(chunks...)
	return New(port), port
}
