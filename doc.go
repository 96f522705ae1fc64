/*
Package todosoa is a hypermedia to-do list built from three in-process servers
that only talk to each other through addressed requests.

# Concept

A storage engine keeps the collection, a render service turns items into HTML
fragments and a resource host drives a list view. Every call between them goes
through a dispatcher as a Request and comes back as a Response carrying a
link header; clients discover addresses by following links rather than by
building paths. The host fans out requests concurrently and only touches the
view once every request it depends on has succeeded.

# Usage

	app, err := todosoa.New(ctx, todosoa.WithBackend(memory.New()))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Add(ctx, "Buy milk"); err != nil {
		log.Fatal(err)
	}
	snap := app.View().Snapshot()

Backends live under pkg/adapters (memory, file, redis, sqlite) and may be
decorated with pkg/persistence/middleware, for example to encrypt the stored
document.
*/
package todosoa
