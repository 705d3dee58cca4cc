// Package http provides the HTTP endpoints of zipstream.
//
// # Routes
//
//   - GET /                      landing page (configured file or built-in page)
//   - GET /archive/{archiveID}/  streamed zip archive of the directory archiveID
//   - GET /archives              JSON listing of available archives
//   - GET /metrics               Prometheus metrics, when configured
//   - GET /jobs                  finished job history, when configured
//
// # Archive downloads
//
// A successful download answers 200 with Content-Type application/zip and
// Content-Disposition attachment; filename="{archiveID}.zip", then streams
// the archive as it is produced. There is no Content-Length. Unknown or
// invalid identifiers answer 404 with an empty body, a full job limit 503,
// and a compression tool that cannot be started 500. Once streaming has
// begun the status cannot change: a client disconnect simply ends the job,
// and a failing compression process aborts the connection.
//
// # Job history
//
// GET /jobs accepts archive_id, limit and cursor query parameters and answers
// {"items": [...], "next_cursor": "..."}, newest job first. Pass next_cursor
// back as cursor to fetch the following page. A malformed limit, archive_id
// or cursor answers 400 invalid_query.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    IndexPath: "index.html",
//	    Metrics:   metrics.Handler(registry),
//	    History:   db.GetRepo(),
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// The service parameter must implement the Service interface with Open and
// List methods; *zipstream.ArchiveService does.
package http
