// Package models defines the data shared between the caches, the music service clients and the renderers.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs passed between components
//   - [Playlist] : a parsed mixdisc descriptor, manual or remote
//   - [Track] : a resolved catalog track with service-specific [Extras]
//   - [ServiceResult] : the per-service resolution of one playlist, nil slots included
//   - [ProcessedPlaylist] : what the renderers receive for each descriptor
//
// 2. Persistent Entities: database-backed records
//   - [Run] : one batch invocation and its counters
//
// Persistent entities implement the Model interface. The Repository[T] interface defines the storage operations.
package models
