/*
Package domain contains the core models shared by every todosoa component.

It defines the to-do records kept by the storage engine, the HTTP-shaped
messages exchanged between in-process servers, the link descriptors used to
advertise navigable resources, and the filter routes tracked by the host.
This package is kept free of I/O so that adapters, the dispatcher and the
resource host can all depend on it.

# Key Entities

  - Item: a single to-do record (id, title, completed).
  - Patch / Filter: partial updates and exact-match predicates over Items.
  - Request / Response: addressed messages routed between servers.
  - Link: a descriptor advertising a related resource by rel and id.
  - Route: the filter (all, active, completed) driving which items are shown.
*/
package domain
