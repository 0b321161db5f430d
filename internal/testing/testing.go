// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"
)

// Event is a named event captured by [ChanEmitter].
type Event struct {
	Name    string
	Payload any
}

// ChanEmitter records emitted events on a buffered channel.
type ChanEmitter struct {
	Events chan Event
}

func NewChanEmitter(size int) *ChanEmitter {
	return &ChanEmitter{Events: make(chan Event, size)}
}

func (c *ChanEmitter) Emit(name string, payload any) error {
	c.Events <- Event{Name: name, Payload: payload}
	return nil
}

// Next waits for the next event or fails the test after timeout.
func (c *ChanEmitter) Next(t *testing.T, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-c.Events:
		return ev
	case <-time.After(timeout):
		t.Fatalf("no event received within %v", timeout)
		return Event{}
	}
}

// AssertNoEvent fails when an event arrives within wait.
func (c *ChanEmitter) AssertNoEvent(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-c.Events:
		t.Errorf("unexpected event %q: %+v", ev.Name, ev.Payload)
	case <-time.After(wait):
	}
}

// FEmitter always fails to emit but counts attempts.
type FEmitter struct {
	mu    sync.Mutex
	calls int
}

func (f *FEmitter) Emit(string, any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("emit failed")
}

func (f *FEmitter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// SyncBuffer is a [bytes.Buffer] that can be written from one goroutine and read from another.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *SyncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *SyncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Eventually polls cond until it holds or fails the test after timeout.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// WaitListening dials addr until something accepts.
func WaitListening(t *testing.T, addr string) {
	t.Helper()
	Eventually(t, 2*time.Second, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	})
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FreePort asks the kernel for an unused loopback port.
func FreePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer ln.Close()
	return uint16(ln.Addr().(*net.TCPAddr).Port)
}

// MustRoundTrip dials addr, writes raw and returns everything the server sends back.
func MustRoundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("failed to set deadline: %v", err)
	}
	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("failed to write request: %v", err)
	}
	body, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return string(body)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
