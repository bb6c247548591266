// Package runner drives one conversational turn end to end.
//
// For each inbound message the Runner:
//   - Serializes work per sender identity through a FIFO session.Locker
//   - Loads (or creates) the sender's session
//   - Dispatches the user text through the agent graph under a turn timeout
//   - Commits the new turns only when the dispatch succeeded
//
// A failed or timed-out turn leaves the stored transcript untouched, so the
// transcript after turn n is always a prefix-extension of the one before.
package runner
