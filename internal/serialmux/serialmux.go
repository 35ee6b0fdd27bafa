// Package serialmux provides an abstraction over a serial port with the
// ability for multiple clients to subscribe to the raw byte stream and send
// commands to a single serial port device. Subscribers receive arbitrary
// chunks in arrival order, never lines: the decoding pipeline owns all
// framing decisions.
package serialmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// ErrWriteFailed reports a short write to the serial port.
var ErrWriteFailed = errors.New("failed to write to serial port")

// readBufferSize is the per-read chunk cap. Small enough to keep latency low
// at typical baud rates, large enough that the reader is not syscall-bound.
const readBufferSize = 4096

// SerialPorter is the minimal interface needed from a serial port.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// Mux fans the byte stream of one serial port out to any number of
// subscribers.
type Mux struct {
	port SerialPorter

	subscriberMu sync.Mutex
	subscribers  map[string]chan []byte

	commandMu sync.Mutex

	closingMu sync.Mutex
	closing   bool
}

// New creates a Mux over an open port.
func New(port SerialPorter) *Mux {
	return &Mux{
		port:        port,
		subscribers: make(map[string]chan []byte),
	}
}

// Subscribe registers a new chunk channel. The returned id identifies the
// channel for Unsubscribe.
func (m *Mux) Subscribe() (string, chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, 64)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (m *Mux) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// SendCommand writes a command string to the serial port, appending a
// newline if the command lacks one.
func (m *Mux) SendCommand(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	if len(command) == 0 || command[len(command)-1] != '\n' {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads chunks from the serial port and fans them out to subscribers
// until the context is cancelled or the port fails. Each subscriber gets its
// own copy of the chunk.
func (m *Mux) Monitor(ctx context.Context) error {
	chunkChan := make(chan []byte)
	errChan := make(chan error, 1)

	// The blocking port read lives in its own goroutine so the fan-out
	// loop stays responsive to cancellation.
	go func() {
		defer close(chunkChan)
		buf := make([]byte, readBufferSize)
		for {
			n, err := m.port.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunkChan <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case errChan <- err:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errChan:
			return err

		case chunk, ok := <-chunkChan:
			if !ok {
				return nil
			}
			if err := m.broadcast(ctx, chunk); err != nil {
				return err
			}
		}
	}
}

// broadcast delivers the chunk to every subscriber. Sends block rather than
// drop: losing a chunk would corrupt the decoded record downstream, so a
// subscriber must keep draining its channel until it unsubscribes. Only
// cancellation interrupts a blocked send.
func (m *Mux) broadcast(ctx context.Context, chunk []byte) error {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for _, ch := range m.subscribers {
		copied := make([]byte, len(chunk))
		copy(copied, chunk)
		select {
		case ch <- copied:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close closes all subscriber channels and the underlying port.
func (m *Mux) Close() error {
	m.closingMu.Lock()
	if m.closing {
		m.closingMu.Unlock()
		return nil
	}
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	m.subscriberMu.Unlock()

	return m.port.Close()
}
