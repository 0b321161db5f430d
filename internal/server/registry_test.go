package server

import (
	"context"
	"errors"
	"net"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	tu "github.com/desertthunder/oauthcap/internal/testing"
)

func addrFor(port uint16) string {
	return net.JoinHostPort(DefaultHost, strconv.Itoa(int(port)))
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener loop did not exit")
	}
}

func TestRegistry(t *testing.T) {
	t.Run("Start accepts callbacks", func(t *testing.T) {
		em := tu.NewChanEmitter(1)
		reg := NewRegistry(em, testLogger(), Options{})
		defer reg.Close()

		port := tu.FreePort(t)
		if err := reg.Start(port); err != nil {
			t.Fatalf("Start() error: %v", err)
		}

		reply := tu.MustRoundTrip(t, addrFor(port), "GET /callback/google?code=abc123&state=xyz HTTP/1.1\r\n\r\n")
		if reply != Response {
			t.Errorf("reply = %q, want fixed response", reply)
		}

		p := em.Next(t, time.Second).Payload.(Payload)
		if p.Provider != "google" || Value(p.Code) != "abc123" || Value(p.State) != "xyz" {
			t.Errorf("payload = %+v", p)
		}
	})

	t.Run("Start twice keeps one listener", func(t *testing.T) {
		em := tu.NewChanEmitter(2)
		reg := NewRegistry(em, testLogger(), Options{})
		defer reg.Close()

		port := tu.FreePort(t)
		if err := reg.Start(port); err != nil {
			t.Fatalf("first Start() error: %v", err)
		}
		first := reg.Done(port)

		if err := reg.Start(port); err != nil {
			t.Fatalf("second Start() error: %v", err)
		}

		waitClosed(t, first)

		if ports := reg.Ports(); !slices.Equal(ports, []uint16{port}) {
			t.Errorf("Ports() = %v, want [%d]", ports, port)
		}

		reply := tu.MustRoundTrip(t, addrFor(port), "GET /callback/github?code=c HTTP/1.1\r\n\r\n")
		if reply != Response {
			t.Errorf("reply = %q, want fixed response", reply)
		}
		em.Next(t, time.Second)
	})

	t.Run("bind failure is reported and not registered", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		defer reg.Close()

		occupied, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to occupy port: %v", err)
		}
		defer occupied.Close()
		port := uint16(occupied.Addr().(*net.TCPAddr).Port)

		err = reg.Start(port)
		var bindErr *BindError
		if !errors.As(err, &bindErr) {
			t.Fatalf("Start() error = %v, want *BindError", err)
		}
		if bindErr.Port != port {
			t.Errorf("BindError.Port = %d, want %d", bindErr.Port, port)
		}
		if bindErr.Unwrap() == nil {
			t.Error("BindError should wrap the OS error")
		}
		if len(reg.Ports()) != 0 {
			t.Errorf("Ports() = %v, want empty", reg.Ports())
		}
	})

	t.Run("port zero is rejected", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		if err := reg.Start(0); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("Start(0) error = %v, want ErrInvalidPort", err)
		}
	})

	t.Run("StopAll on empty registry is a no-op", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		if err := reg.StopAll(); err != nil {
			t.Errorf("StopAll() error = %v", err)
		}
		if err := reg.StopAll(); err != nil {
			t.Errorf("second StopAll() error = %v", err)
		}
	})

	t.Run("StopAll closes every listener", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		defer reg.Close()

		ports := []uint16{tu.FreePort(t), tu.FreePort(t)}
		var done []<-chan struct{}
		for _, p := range ports {
			if err := reg.Start(p); err != nil {
				t.Fatalf("Start(%d) error: %v", p, err)
			}
			done = append(done, reg.Done(p))
		}

		if err := reg.StopAll(); err != nil {
			t.Fatalf("StopAll() error: %v", err)
		}
		for _, d := range done {
			waitClosed(t, d)
		}

		if len(reg.Ports()) != 0 {
			t.Errorf("Ports() = %v, want empty", reg.Ports())
		}
		for _, p := range ports {
			if conn, err := net.DialTimeout("tcp", addrFor(p), time.Second); err == nil {
				conn.Close()
				t.Errorf("port %d still accepting after StopAll", p)
			}
		}
	})

	t.Run("Stop releases a single port", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		defer reg.Close()

		a, b := tu.FreePort(t), tu.FreePort(t)
		for _, p := range []uint16{a, b} {
			if err := reg.Start(p); err != nil {
				t.Fatalf("Start(%d) error: %v", p, err)
			}
		}
		doneA := reg.Done(a)

		if err := reg.Stop(a); err != nil {
			t.Fatalf("Stop() error: %v", err)
		}
		waitClosed(t, doneA)

		if ports := reg.Ports(); !slices.Equal(ports, []uint16{b}) {
			t.Errorf("Ports() = %v, want [%d]", ports, b)
		}
		if err := reg.Stop(a); err != nil {
			t.Errorf("Stop() on stopped port error = %v", err)
		}

		// the port can be bound again
		if err := reg.Start(a); err != nil {
			t.Errorf("restart after Stop error: %v", err)
		}
	})

	t.Run("closed registry is unavailable", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		if err := reg.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		if err := reg.Start(tu.FreePort(t)); !errors.Is(err, ErrRegistryUnavailable) {
			t.Errorf("Start() error = %v, want ErrRegistryUnavailable", err)
		}
		if err := reg.StopAll(); !errors.Is(err, ErrRegistryUnavailable) {
			t.Errorf("StopAll() error = %v, want ErrRegistryUnavailable", err)
		}
		if err := reg.Stop(1); !errors.Is(err, ErrRegistryUnavailable) {
			t.Errorf("Stop() error = %v, want ErrRegistryUnavailable", err)
		}
	})

	t.Run("concurrent restarts leave one listener", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		defer reg.Close()
		reg.listenFn = func(network, address string) (net.Listener, error) {
			time.Sleep(20 * time.Millisecond)
			return net.Listen(network, address)
		}

		port := tu.FreePort(t)
		errs := make(chan error, 8)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- reg.Start(port)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("Start() error = %v", err)
			}
		}
		if ports := reg.Ports(); !slices.Equal(ports, []uint16{port}) {
			t.Fatalf("Ports() = %v, want [%d]", ports, port)
		}
		tu.MustRoundTrip(t, addrFor(port), "GET / HTTP/1.1\r\n\r\n")
	})

	t.Run("slow bind does not block other ports", func(t *testing.T) {
		reg := NewRegistry(nil, testLogger(), Options{})
		defer reg.Close()

		slow, fast := tu.FreePort(t), tu.FreePort(t)
		release := make(chan struct{})
		reg.listenFn = func(network, address string) (net.Listener, error) {
			if address == addrFor(slow) {
				<-release
			}
			return net.Listen(network, address)
		}

		slowErr := make(chan error, 1)
		go func() { slowErr <- reg.Start(slow) }()

		if err := reg.Start(fast); err != nil {
			t.Errorf("Start(fast) error = %v", err)
		}
		close(release)
		if err := <-slowErr; err != nil {
			t.Errorf("Start(slow) error = %v", err)
		}
		if got := len(reg.Ports()); got != 2 {
			t.Errorf("Ports() has %d entries, want 2", got)
		}
	})
}

// failingListener returns err from every Accept.
type failingListener struct {
	err    error
	closed chan struct{}
	once   sync.Once
}

func (f *failingListener) Accept() (net.Conn, error) { return nil, f.err }
func (f *failingListener) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}
func (f *failingListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestListener(t *testing.T) {
	t.Run("accept failure stops the loop", func(t *testing.T) {
		boom := errors.New("boom")
		fl := &failingListener{err: boom, closed: make(chan struct{})}
		l := NewListener(fl, NewHandler(nil, testLogger(), 1, Options{}), testLogger(), Options{})

		err := l.Serve(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("Serve() error = %v, want %v", err, boom)
		}
		waitClosed(t, fl.closed)
	})

	t.Run("cancellation returns nil", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		l := NewListener(ln, NewHandler(nil, testLogger(), 1, Options{}), testLogger(), Options{})

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- l.Serve(ctx) }()

		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Serve() error = %v, want nil", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return after cancel")
		}
	})

	t.Run("slow client does not block accept", func(t *testing.T) {
		em := tu.NewChanEmitter(1)
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		l := NewListener(ln, NewHandler(em, testLogger(), 1, Options{}), testLogger(), Options{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go l.Serve(ctx)

		stalled, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			t.Fatalf("failed to dial: %v", err)
		}
		defer stalled.Close()

		reply := tu.MustRoundTrip(t, ln.Addr().String(), "GET /callback/google?code=1 HTTP/1.1\r\n\r\n")
		if reply != Response {
			t.Errorf("reply = %q, want fixed response", reply)
		}
		em.Next(t, time.Second)
	})
}
