// Package registry implements the filesystem-backed package registry store.
//
// A registry root R is laid out as:
//
//	R/index/config.json                     fallback registries (fallback_registries)
//	R/index/<scope>/<name>                  one JSON manifest per line, append-only
//	R/contents/<scope>/<name>/<version>.zip raw content bytes
//
// FSStore publishes by appending a single line to the package index and
// overwriting the version's content blob; it never reads back or rewrites
// earlier index lines. Queries stream the index and fail closed on the first
// malformed record. There is no locking across processes: appends from
// concurrent publishers are only as atomic as a single write(2) with O_APPEND
// on the underlying filesystem, and large records may interleave.
//
// Chain walks a store and its fallback registries breadth-first, moving on to
// the next source only when the current one reports a not-found condition.
package registry
