// Package store implements the storage engine: a named collection of to-do
// items persisted as one JSON document through a ports.Backend.
//
// Every read-modify-write cycle runs under a per-collection Guard, so
// concurrent requests against the same collection never lose updates. The
// package also exposes the collection as a resource tree (see Handler) so
// that other servers reach it only through addressed requests.
package store
