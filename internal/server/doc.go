// Package server previews a rendered site over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers method-qualified
// [http.ServeMux] patterns, and [Middleware] wraps handlers in reverse order so the first one added runs outermost.
//
// Custom handlers implement the [Handler] interface, which adds Routes to the stdlib handler interface so a
// handler carries its own route definitions.
//
// # Handlers
//
//	GET /          [SiteHandler] serves the output directory (index.html, index.md, playlists/*.csv)
//	GET /api/runs  [RunsHandler] lists recorded batches as JSON
//
// [Serve] runs the router until its context is cancelled.
package server
