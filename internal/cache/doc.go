// Package cache implements the two on-disk caches that keep a batch run cheap.
//
// [PlaylistStore] remembers the per-service result of every descriptor, keyed by "user/title" and
// invalidated by the SHA-256 of the descriptor file. Remote descriptors also carry the service's
// snapshot id and a valid/frozen status.
//
// [TrackStore] remembers catalog lookups per "artist - title", including negative results, with one
// version per normalized album and at most one default version per service.
//
// Both stores are plain maps persisted as indented JSON. They are not safe for concurrent use; a
// batch owns them for its whole run.
package cache
