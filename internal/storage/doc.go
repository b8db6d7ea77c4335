// Package storage persists the default layer across restarts.
//
// Store keeps the current default layer and a history of selections in a
// SQL database through bun. SQLite (modernc), PostgreSQL (pgx) and MySQL
// are supported:
//
//	store, err := storage.Open(storage.DriverSQLite, "keyweave.db", logger)
//	p := storage.NewPersister(store, logger)
//	defer p.Close()
//
// Persister adapts any Backend to the dispatcher's persistence interface.
// Saves are written behind on a goroutine so the event loop never waits for
// the database; only the latest pending value is written.
package storage
