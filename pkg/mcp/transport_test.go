package mcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStdioTransportSendFraming(t *testing.T) {
	pr, pw := io.Pipe()
	readR, readW := io.Pipe()
	tr := NewStdioTransport(pw, readR)
	defer tr.Close()
	defer readW.Close()

	go func() {
		if err := tr.Send(context.Background(), []byte(`{"jsonrpc":"2.0"}`)); err != nil {
			t.Errorf("Send() failed: %v", err)
		}
	}()

	line, err := bufio.NewReader(pr).ReadString('\n')
	if err != nil {
		t.Fatalf("reading sent frame: %v", err)
	}
	if line != `{"jsonrpc":"2.0"}`+"\n" {
		t.Errorf("expected newline-terminated frame, got %q", line)
	}
}

func TestStdioTransportReceiveSkipsBlankLines(t *testing.T) {
	pr, pw := io.Pipe()
	_, sink := io.Pipe()
	tr := NewStdioTransport(sink, pr)
	defer tr.Close()

	go func() {
		pw.Write([]byte("\n  \n{\"id\":1}\n"))
		pw.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	line, err := tr.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if string(line) != `{"id":1}` {
		t.Errorf("expected first non-blank line, got %q", line)
	}

	if _, err := tr.Receive(ctx); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("expected ErrTransportClosed after peer EOF, got %v", err)
	}
}

func TestStdioTransportReceiveHonorsContext(t *testing.T) {
	pr, pw := io.Pipe()
	_, sink := io.Pipe()
	tr := NewStdioTransport(sink, pr)
	defer tr.Close()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tr.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStdioTransportCloseIdempotent(t *testing.T) {
	pr, pw := io.Pipe()
	tr := NewStdioTransport(pw, pr)

	if err := tr.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
	if err := tr.Send(context.Background(), []byte("{}")); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Send after Close should fail with ErrTransportClosed, got %v", err)
	}
}
