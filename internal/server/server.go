package server

import (
	"time"
)

// Emitter publishes a named event with a payload to the host application.
type Emitter interface {
	Emit(name string, payload any) error
}

// EmitterFunc adapts a function to [Emitter].
type EmitterFunc func(name string, payload any) error

// Emit calls f(name, payload).
func (f EmitterFunc) Emit(name string, payload any) error { return f(name, payload) }

const (
	DefaultHost        = "127.0.0.1"
	DefaultBufferSize  = 1024
	DefaultIOTimeout   = 5 * time.Second
	DefaultAcceptRate  = 50.0
	DefaultAcceptBurst = 10
)

// Options configures listeners created by a [Registry].
type Options struct {
	Host        string        // bind address, loopback by default
	BufferSize  int           // bytes read from each connection
	IOTimeout   time.Duration // read/write deadline per connection; negative disables
	AcceptRate  float64       // connections dispatched per second; negative disables
	AcceptBurst int
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.IOTimeout == 0 {
		o.IOTimeout = DefaultIOTimeout
	}
	if o.AcceptRate == 0 {
		o.AcceptRate = DefaultAcceptRate
	}
	if o.AcceptBurst <= 0 {
		o.AcceptBurst = DefaultAcceptBurst
	}
	return o
}
