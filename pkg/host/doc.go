// Package host implements the resource host: the server that routes UI-level
// requests (SHOW, CHECK, EDIT, ...) and coordinates the storage and render
// servers to fulfil them.
//
// The host never touches storage or templates directly. It reaches both
// through dispatch agents that navigate the servers' link headers, fans the
// dependent requests out concurrently, and applies the aggregated result to a
// ports.View only once every required sub-request succeeded.
//
// Routing table:
//
//	/                          HEAD POST
//	/{id}                      HEAD EDIT CHECK UNCHECK DELETE
//	/{all,active,completed}    SHOW
//
// The ids "active" and "completed" also name the pseudo-collections of items
// with that state; CHECK, UNCHECK and DELETE on them apply to every member.
package host
