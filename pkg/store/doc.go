// Package store provides named key/value containers inside a single
// durable storage unit.
//
// Mutations made with Set and Remove are staged in memory and only become
// durable when Commit returns nil. Commit applies every staged mutation of
// a container in one SQLite transaction, so a crash before or during Commit
// leaves the previously committed values intact.
//
//	db, err := store.Open(path)
//	state, err := db.Container(ctx, "state")
//	state.Set("123", record)
//	err = state.Commit(ctx)
package store
