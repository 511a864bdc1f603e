// Package services defines the [Service] interface for music catalogs and implements it for Spotify.
//
// # Service Interface
//
// A service answers three questions for the batch: which catalog track matches an entry
// ([Service.FindTrack]), which version a hosted playlist is at ([Service.SnapshotID]), and what
// that playlist currently contains ([Service.FetchRemotePlaylist]).
//
// FindTrack returns (nil, nil) when the catalog has no match. Errors mean the question could not
// be answered and must not be cached.
//
// # Spotify Implementation
//
// [SpotifyService] authenticates with the client-credentials grant from
// [golang.org/x/oauth2/clientcredentials]; the token is fetched on first use and refreshed by the
// transport. Requests are paced by a [rate.Limiter].
//
// # Error Handling
//
// Every failed call is returned as a [shared.ServiceError], which matches
// [shared.ErrServiceUnavailable]. Malformed playlist links are reported with
// [shared.ErrInvalidPlaylistURL].
package services
