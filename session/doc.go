// Package session houses the core.SessionStore implementations and the
// per-identity serialization used by the runner.
//
// Two stores are provided: InMemoryStore (the default, volatile) and
// SQLiteStore (durable, backed by modernc.org/sqlite). Locker gives FIFO
// mutual exclusion per sender identity so that turns of one conversation are
// dispatched strictly in arrival order, and Janitor evicts idle sessions on a
// cron schedule.
package session
