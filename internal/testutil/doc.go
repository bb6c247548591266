// Package testutil contains builders that cut the boilerplate of assembling
// transcripts in tests. Not for production use.
package testutil
