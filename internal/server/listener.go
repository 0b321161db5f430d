package server

import (
	"context"
	"errors"
	"net"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Listener runs the accept loop for one bound port.
type Listener struct {
	ln      net.Listener
	handler *Handler
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewListener wraps an already bound ln.
func NewListener(ln net.Listener, handler *Handler, logger *log.Logger, opts Options) *Listener {
	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.AcceptRate > 0 {
		limit = rate.Limit(opts.AcceptRate)
	}

	return &Listener{
		ln:      ln,
		handler: handler,
		limiter: rate.NewLimiter(limit, opts.AcceptBurst),
		logger:  logger,
	}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Serve accepts connections until ctx is cancelled or accept fails.
//
// Each connection is handled on its own goroutine; Serve never waits for handlers.
// It returns nil on cancellation and the accept error otherwise. The listener is closed on return.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()
	defer l.ln.Close()

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return l.exit(ctx, err)
		}

		conn, err := l.ln.Accept()
		if err != nil {
			return l.exit(ctx, err)
		}

		go l.handler.Handle(conn)
	}
}

func (l *Listener) exit(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		l.logger.Info("listener stopped", "addr", l.ln.Addr())
		return nil
	}
	l.logger.Error("accept failed, listener exiting", "addr", l.ln.Addr(), "error", err)
	return err
}
