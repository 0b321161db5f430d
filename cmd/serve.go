package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/oauthcap/internal/events"
	"github.com/desertthunder/oauthcap/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const feedBuffer = 64

// Serve starts a listener on every requested port and prints callbacks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	ports, err := r.resolvePorts(cmd.IntSlice("port"))
	if err != nil {
		return err
	}

	record := !cmd.Bool("no-record")
	if record {
		if err := r.openDatabase(); err != nil {
			r.logger.Warn("history disabled", "error", err)
			record = false
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.serve(ctx, ports, record, cmd.Bool("pretty"))
}

// serve runs listeners on ports until ctx is done, then stops all of them.
func (r *Runner) serve(ctx context.Context, ports []uint16, record, pretty bool) error {
	feed, unsubscribe := r.bus.Subscribe(server.CallbackEvent, feedBuffer)
	defer unsubscribe()

	registry := r.newRegistry()
	defer registry.Close()

	for _, port := range ports {
		if err := registry.Start(port); err != nil {
			return err
		}
		r.logger.Info("listening", "addr", registry.Addr(port))
	}
	r.writePlain("Listening for callbacks on %v (Ctrl+C to stop)\n", registry.Ports())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-feed:
				if !ok {
					return nil
				}
				r.printCallback(ev, record, pretty)
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		r.logger.Info("stopping listeners", "ports", registry.Ports())
		return registry.StopAll()
	})

	return g.Wait()
}

func (r *Runner) printCallback(ev events.Event, record, pretty bool) {
	p, ok := ev.Payload.(server.Payload)
	if !ok {
		r.logger.Warn("unexpected payload", "event", ev.Name, "type", ev.Payload)
		return
	}

	if err := r.writeJSON(p, pretty); err != nil {
		r.logger.Error("failed to print callback", "error", err)
	}
	if record {
		r.record(p)
	}
}

// record stores p in history when a database is open.
func (r *Runner) record(p server.Payload) {
	if r.recorder == nil {
		return
	}
	if _, err := r.recorder.Record(p, 0); err != nil {
		r.logger.Warn("failed to record callback", "provider", p.Provider, "error", err)
	}
}

// recordFeed stores every callback read from feed until it closes or ctx is done.
func (r *Runner) recordFeed(ctx context.Context, feed <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			if p, ok := ev.Payload.(server.Payload); ok {
				r.record(p)
			}
		}
	}
}
