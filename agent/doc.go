// Package agent defines immutable agent definitions and the delegation graph
// that connects them.
//
// An agent has exactly one capability:
//
//  1. Router: it has delegates and may only hand the turn to one of them
//  2. Executor: it declares tools (possibly none) and produces the reply
//
// Agents are built bottom-up with New, so a delegate always exists before the
// router that points to it. ValidateGraph re-checks a finished graph for name
// collisions and cycles before it is handed to a dispatcher.
package agent
