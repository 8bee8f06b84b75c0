package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrTransportClosed is returned by Send and Receive after Close, or when
// the peer closes its end of the channel.
var ErrTransportClosed = errors.New("mcp: transport closed")

// Transport frames JSON-RPC messages to and from a provider process.
type Transport interface {
	// Send writes one JSON-RPC message.
	Send(ctx context.Context, msg []byte) error
	// Receive reads the next JSON-RPC message, blocking until one arrives,
	// the context is done, or the transport closes.
	Receive(ctx context.Context) ([]byte, error)
	// Close releases the underlying streams. Idempotent.
	Close() error
}

// stdioTransport speaks newline-delimited JSON over a pair of byte
// streams, typically a subprocess's stdin and stdout. A background reader
// goroutine makes Receive cancellable even though pipe reads are not.
type stdioTransport struct {
	w  io.WriteCloser
	r  io.ReadCloser
	mu sync.Mutex // serializes writes and guards closed

	closed  bool
	lines   chan []byte
	readErr error
	done    chan struct{}
	quit    chan struct{}
}

// NewStdioTransport wraps a write stream (the peer's stdin) and a read
// stream (the peer's stdout) as a Transport.
func NewStdioTransport(w io.WriteCloser, r io.ReadCloser) Transport {
	t := &stdioTransport{
		w:     w,
		r:     r,
		lines: make(chan []byte),
		done:  make(chan struct{}),
		quit:  make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// readLoop reads lines from the peer until EOF or Close, skipping blank
// lines. It owns t.readErr; the error is visible only after done closes.
func (t *stdioTransport) readLoop() {
	defer close(t.done)

	reader := bufio.NewReader(t.r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
				select {
				case t.lines <- trimmed:
				case <-t.quit:
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				t.readErr = err
			}
			return
		}
	}
}

func (t *stdioTransport) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	if _, err := t.w.Write(append(msg, '\n')); err != nil {
		return err
	}
	return nil
}

func (t *stdioTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case line := <-t.lines:
		return line, nil
	case <-t.done:
		if t.readErr != nil {
			return nil, t.readErr
		}
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *stdioTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.quit)
	err := t.w.Close()
	if rerr := t.r.Close(); err == nil {
		err = rerr
	}
	return err
}
