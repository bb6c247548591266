// Package core provides the domain types shared by every layer of finassist:
//
//   - Turns and Transcripts (the append-only conversation record)
//   - Sessions and the SessionStore contract keyed by sender identity
//   - RunContext / ToolContext (per-turn execution scope handed to tools)
//   - HopLimiter (the per-turn bound on tool invocations and delegations)
//   - The error taxonomy (configuration, invalid argument, external service,
//     asset unavailable)
//
// Implementation concerns (persistence, dispatch, transport) live in other
// packages and depend on the small interfaces defined here.
package core
