package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	ErrRegistryUnavailable = errors.New("listener registry unavailable")
	ErrInvalidPort         = errors.New("invalid port")
)

// BindError reports a failure to bind a listener port.
type BindError struct {
	Port uint16
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// handle tracks one running accept loop.
type handle struct {
	port   uint16
	cancel context.CancelFunc
	done   chan struct{}
	addr   net.Addr
}

// stop cancels the loop and waits until its socket is closed.
func (h *handle) stop() {
	h.cancel()
	<-h.done
}

// Registry owns the running listeners, keyed by port.
//
// Start and Stop on the same port run one at a time; different ports proceed in parallel.
// The zero value is not usable; create one with [NewRegistry].
type Registry struct {
	mu       sync.Mutex
	handles  map[uint16]*handle
	ports    map[uint16]*sync.Mutex
	closed   bool
	emitter  Emitter
	logger   *log.Logger
	opts     Options
	listenFn func(network, address string) (net.Listener, error)
}

// NewRegistry creates an empty [Registry] whose listeners publish to emitter.
func NewRegistry(emitter Emitter, logger *log.Logger, opts Options) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		handles:  make(map[uint16]*handle),
		ports:    make(map[uint16]*sync.Mutex),
		emitter:  emitter,
		logger:   logger,
		opts:     opts.withDefaults(),
		listenFn: net.Listen,
	}
}

// Start binds port and begins accepting callbacks on it.
//
// A listener already running on port is stopped first. On bind failure a [*BindError]
// is returned and nothing is registered.
func (r *Registry) Start(port uint16) error {
	if port == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidPort)
	}

	unlock := r.lockPort(port)
	defer unlock()

	prev, err := r.take(port)
	if err != nil {
		return err
	}
	if prev != nil {
		r.logger.Info("replacing listener", "port", port)
		prev.stop()
	}

	addr := net.JoinHostPort(r.opts.Host, strconv.Itoa(int(port)))
	ln, err := r.listenFn("tcp", addr)
	if err != nil {
		return &BindError{Port: port, Err: err}
	}

	logger := r.logger.With("port", port)
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{port: port, cancel: cancel, done: make(chan struct{}), addr: ln.Addr()}
	l := NewListener(ln, NewHandler(r.emitter, logger, port, r.opts), logger, r.opts)

	go func() {
		defer close(h.done)
		_ = l.Serve(ctx)
	}()

	logger.Info("listening for callbacks", "addr", ln.Addr())

	displaced, err := r.put(h)
	if err != nil {
		h.stop()
		return err
	}
	if displaced != nil {
		displaced.stop()
	}
	return nil
}

// Stop cancels the listener on port and waits for its socket to close. Unknown ports are ignored.
func (r *Registry) Stop(port uint16) error {
	unlock := r.lockPort(port)
	defer unlock()

	h, err := r.take(port)
	if err != nil {
		return err
	}
	if h != nil {
		h.stop()
	}
	return nil
}

// StopAll cancels every tracked listener, empties the registry and waits for the sockets to close.
//
// It does not wait for connections already being handled.
func (r *Registry) StopAll() error {
	return r.drain(false)
}

// Close stops every listener and makes the registry unavailable.
func (r *Registry) Close() error {
	return r.drain(true)
}

func (r *Registry) drain(closing bool) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegistryUnavailable
	}
	drained := r.handles
	r.handles = make(map[uint16]*handle)
	r.closed = closing
	r.mu.Unlock()

	for port, h := range drained {
		r.logger.Debug("stopping listener", "port", port)
		h.cancel()
	}
	for _, h := range drained {
		<-h.done
	}
	return nil
}

// Ports returns the ports with a tracked listener, sorted.
func (r *Registry) Ports() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ports := make([]uint16, 0, len(r.handles))
	for p := range r.handles {
		ports = append(ports, p)
	}
	slices.Sort(ports)
	return ports
}

// Addr returns the bound address for port, or nil when not running.
func (r *Registry) Addr(port uint16) net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[port]; ok {
		return h.addr
	}
	return nil
}

// Done returns a channel closed when the loop on port exits, or nil when not running.
func (r *Registry) Done(port uint16) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[port]; ok {
		return h.done
	}
	return nil
}

// lockPort serializes Start and Stop for port without holding r.mu across a bind.
func (r *Registry) lockPort(port uint16) (unlock func()) {
	r.mu.Lock()
	l, ok := r.ports[port]
	if !ok {
		l = &sync.Mutex{}
		r.ports[port] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *Registry) take(port uint16) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryUnavailable
	}
	h := r.handles[port]
	delete(r.handles, port)
	return h, nil
}

func (r *Registry) put(h *handle) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryUnavailable
	}
	prev := r.handles[h.port]
	r.handles[h.port] = h
	return prev, nil
}
