// Package server exposes the document library over HTTP.
//
// The API is plain JSON over net/http. Uploads are multipart POSTs that
// return a task ID immediately; clients poll /tasks/{id} to follow the
// ingestion pipeline. Documents, shelves and search are synchronous CRUD
// routes over the repositories.
package server
