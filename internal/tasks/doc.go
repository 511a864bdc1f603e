// Package tasks runs the mixdisc batch: resolving descriptors through the two cache tiers and the
// music service, tracking remote playlists by snapshot, and pruning the caches afterwards.
//
// # Core Operations
//
// [BatchEngine] exposes two operations:
//
//  1. [BatchEngine.Render] : process every descriptor for publishing
//     - Manual playlists with an unchanged content hash reuse the cached result
//     - Changed or new manual playlists are resolved entry by entry via [Resolver]
//     - Remote playlists go through [RemoteChecker]; state changes are saved at once
//     - [Maintain] prunes both caches once all descriptors are processed
//
//  2. [BatchEngine.ValidateFiles] : check descriptor files against the duration limit
//     - Reports load failures, duplicates, missing tracks and overruns
//     - Writes passing playlists back to the cache when a store is configured
//
// # Remote Playlists
//
// A remote playlist is either valid or frozen. The checker compares the live snapshot with the
// cached one and only fetches tracks when it moved. A new version over the limit is rejected: the
// entry keeps its last valid snapshot and tracks, gains a freeze reason, and is rendered with a
// [models.ValidationWarning]. The checker returns a [cache.RemoteUpdate] instead of mutating the
// entry.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
