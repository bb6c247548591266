// Package artifact contains the static asset stores used by the financing
// tools.
//
// The Store interface is small on purpose: tools only need to know whether
// an asset exists and where, and the HTTP server needs to stream it. DirStore
// serves a directory on disk (ASSETS_DIR); InMemoryStore backs tests.
package artifact
