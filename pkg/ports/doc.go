/*
Package ports defines the driven ports (interfaces) of todosoa.

These interfaces decouple the resource host and the storage engine from
concrete implementations, so the same coordination logic runs against any
persistence backend, any render server and any view.

# Key Interfaces

  - RequestHandler: a server answering addressed requests (storage, render, host).
  - Backend: persists one serialized collection per name.
  - DistributedLocker: cross-process locking for read-modify-write cycles.
  - View: the list view the host renders into.
*/
package ports
