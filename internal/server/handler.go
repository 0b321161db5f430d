package server

import (
	"net"
	"time"

	"github.com/charmbracelet/log"
)

// Response is written to every connection whose request line parses.
const Response = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"Connection: close\r\n" +
	"\r\n" +
	`<html><body><h1>Authorization complete</h1><p>You can close this window.</p><script>window.close();</script></body></html>`

// Handler serves a single accepted connection.
//
// It reads once, parses the request line, publishes a [Payload] for callback paths and writes [Response].
type Handler struct {
	emitter    Emitter
	logger     *log.Logger
	bufferSize int
	timeout    time.Duration
	port       uint16
}

// NewHandler creates a [Handler] publishing to emitter.
func NewHandler(emitter Emitter, logger *log.Logger, port uint16, opts Options) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	opts = opts.withDefaults()
	return &Handler{
		emitter:    emitter,
		logger:     logger,
		bufferSize: opts.BufferSize,
		timeout:    opts.IOTimeout,
		port:       port,
	}
}

// Handle processes conn and closes it.
func (h *Handler) Handle(conn net.Conn) {
	defer conn.Close()

	if h.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(h.timeout)); err != nil {
			h.logger.Debug("failed to set deadline", "error", err)
		}
	}

	buf := make([]byte, h.bufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		h.logger.Debug("empty or failed read", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	req, err := ParseRequestLine(buf[:n])
	if err != nil {
		h.logger.Warn("dropping request", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	h.logger.Debug("request", "method", req.Method, "path", req.Path())

	if req.IsCallback() {
		if raw, ok := req.RawQuery(); ok {
			q := ParseQuery(raw)
			h.logger.Debug("callback", "provider", req.Provider(), "params", q.Keys())
			p := NewPayload(req.Provider(), q)
			p.Port = h.port
			h.publish(p)
		}
	}

	if _, err := conn.Write([]byte(Response)); err != nil {
		h.logger.Warn("failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

func (h *Handler) publish(p Payload) {
	if h.emitter == nil {
		return
	}
	if err := h.emitter.Emit(CallbackEvent, p); err != nil {
		h.logger.Error("failed to emit callback event", "provider", p.Provider, "error", err)
		return
	}
	h.logger.Info("callback received", "provider", p.Provider, "port", h.port, "error", Value(p.Error))
}
