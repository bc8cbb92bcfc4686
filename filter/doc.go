// Package filter implements a client library for out-of-process extensions
// to a mail server that speaks a line-oriented, pipe-delimited control
// protocol over standard input and standard output.
//
// An extension registers interest in specific protocol events — reports,
// which are fire-and-forget notifications, and filters, which demand a
// verdict — and supplies callbacks that run per session and per in-flight
// message. The Engine owns the wire protocol, the per-session state
// machine, and dispatch; callbacks supply only the business decisions.
package filter
