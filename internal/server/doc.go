// Package server captures OAuth authorization redirects on ephemeral loopback ports.
//
// A native login flow sends the browser to the identity provider, which redirects back to
// http://127.0.0.1:<port>/callback/<provider>?code=...&state=... . This package owns that
// listener without a general-purpose HTTP stack: it reads a single request line, decodes the
// query and publishes the result.
//
// # Parsing
//
// [ParseRequestLine] reads "METHOD TARGET VERSION" from the first line of a request.
// [ParseQuery] decodes a raw query string into ordered [QueryParams]. Malformed items are
// dropped one at a time, never the whole request.
//
// # Connection Handling
//
// [Handler] reads one buffer from a connection, publishes a [Payload] under [CallbackEvent]
// when the path starts with [CallbackPrefix], and always answers with the fixed [Response]
// once the request line parses. Publish failures are logged only.
//
// # Lifecycle
//
// [Listener] runs the accept loop for one bound socket, dispatching every connection to its
// own goroutine. Cancelling its context closes the socket; handlers already running finish on
// their own.
//
// [Registry] maps ports to running listeners. [Registry.Start] replaces any listener on the
// same port before binding, so at most one loop accepts per port. [Registry.StopAll] drains
// the registry and returns once every socket is closed. The registry is an explicit value; hosts create one with [NewRegistry] and
// pass it where it is needed.
package server
