// Package dispatch delivers addressed requests to in-process servers.
//
// A Registry maps host names to ports.RequestHandler values and wraps every
// delivery with the configured Wrappers (logging, metrics, panic recovery).
// An Agent is a lazily resolved pointer into a server's resource tree: it
// follows link queries from its parent and caches the resolved address until
// Unresolve is called.
package dispatch
