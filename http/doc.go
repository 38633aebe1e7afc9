// Package http provides the JSON API of the photoblog catalog.
//
// # Routes
//
//	GET    /api/photos                 list photos (page, limit, search, tag)
//	POST   /api/photos                 create a photo for an uploaded object
//	GET    /api/photos/tags/all        all distinct tags, sorted
//	POST   /api/photos/presigned-url   issue an upload target
//	GET    /api/photos/{id}            get one photo
//	PUT    /api/photos/{id}            partial update
//	DELETE /api/photos/{id}            delete photo and object
//	PUT    /api/photos/{id}/like       increment likes
//	GET    /health                     liveness and catalog reachability
//
// When HandlerConfig.Objects is set, objects of the local store are served
// under /objects/ and accepted by PUT. Those routes only answer requests
// carrying a valid presigned URL.
//
// # Responses
//
// Successful responses use the envelope {"success":true,"data":...}; listings
// add totalPages, currentPage, total and pageSize. Errors are written as
// {"success":false,"error":kind,"message":text} where kind is one of
// validation_failed (400), not_found (404), conflict_on_cleanup (409),
// unauthorized (401) and store_unavailable (503).
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Objects:  backend.Local,
//	    Verifier: backend.Verifier,
//	    Health:   db,
//	}, coordinator, facade)
//	server := &http.Server{Addr: ":8080", Handler: handler.Router()}
package http
